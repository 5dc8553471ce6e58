package nuclia

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// UserMetadata is Nuclia's nested usermetadata structure.
// A flat map {"key": "value"} is carried as {"fields": {"key": {"value": "value"}}}.
type UserMetadata struct {
	Fields map[string]FieldValue `json:"fields"`
}

// FieldValue wraps a single metadata value.
type FieldValue struct {
	Value string `json:"value"`
}

// Origin describes where an indexed resource came from.
type Origin struct {
	SourceID string `json:"source_id,omitempty"`
	URL      string `json:"url,omitempty"`
	Created  string `json:"created,omitempty"`
}

// TextField is a text body attached to a resource.
type TextField struct {
	Body   string `json:"body"`
	Format string `json:"format"` // "PLAIN" or "HTML"
}

// LinkField points Nuclia at a remote URL to ingest.
type LinkField struct {
	URI string `json:"uri"`
}

// createResourceRequest is the POST /resources payload.
type createResourceRequest struct {
	Title        string               `json:"title"`
	Texts        map[string]TextField `json:"texts,omitempty"`
	Links        map[string]LinkField `json:"links,omitempty"`
	Origin       *Origin              `json:"origin,omitempty"`
	UserMetadata *UserMetadata        `json:"usermetadata,omitempty"`
}

// createResourceResponse carries the document id Nuclia assigned.
type createResourceResponse struct {
	UUID string `json:"uuid"`
}

// patchResourceRequest is the PATCH /resource/{id} payload.
type patchResourceRequest struct {
	UserMetadata *UserMetadata `json:"usermetadata"`
}

// askRequest is the POST /ask payload.
// RangeCreationStart/End scope the answer to resources created in an
// inclusive ISO date range.
type askRequest struct {
	Query              string             `json:"query"`
	AnswerJSONSchema   *jsonschema.Schema `json:"answer_json_schema,omitempty"`
	RangeCreationStart string             `json:"range_creation_start,omitempty"`
	RangeCreationEnd   string             `json:"range_creation_end,omitempty"`
}

// askResponse is the raw POST /ask response.
type askResponse struct {
	Answer    string          `json:"answer"`
	Citations json.RawMessage `json:"citations,omitempty"`
}

// Product is one structured product extracted from an answer.
// Field names follow the JSON schema sent with the ask request.
type Product struct {
	Name         string   `json:"name"`
	Price        string   `json:"price"`
	Description  string   `json:"description"`
	Supplier     string   `json:"supplier"`
	Availability string   `json:"availability"`
	ImageURL     string   `json:"imageUrl"`
	ProductURL   string   `json:"productUrl"`
	Category     string   `json:"category,omitempty"`
	Rating       float64  `json:"rating,omitempty"`
	Features     []string `json:"features,omitempty"`
}

// StructuredData is the flattened product payload handed to the UI.
type StructuredData struct {
	Products []Product `json:"products"`
	Summary  string    `json:"summary"`
}

// Answer is the result of an ask call: the raw model answer plus the
// structured products recovered from it.
type Answer struct {
	Raw        string
	Structured *StructuredData // nil when no products could be parsed
	Citations  json.RawMessage
}

// rephraseRequest is the POST /predict/rephrase payload.
type rephraseRequest struct {
	Query   string   `json:"query"`
	Context []string `json:"context,omitempty"`
}

// rephraseResponse carries the rewritten query.
type rephraseResponse struct {
	RephrasedQuery string `json:"rephrased_query"`
}

// resourceData is the entity/relation section of a resource.
type resourceData struct {
	Entities  map[string]json.RawMessage `json:"entities"`
	Relations []json.RawMessage          `json:"relations"`
}

// resourceResponse is the GET /resource/{id} response body.
type resourceResponse struct {
	Data resourceData `json:"data"`
}

// listResourcesResponse is the GET /resources response body.
// Resources are relayed verbatim; their shape belongs to the provider.
type listResourcesResponse struct {
	Resources []json.RawMessage `json:"resources"`
}

// Entities is the named-entity view of a resource.
type Entities struct {
	Entities  map[string]json.RawMessage `json:"entities"`
	Relations []json.RawMessage          `json:"relations"`
}

package nuclia

import "github.com/google/jsonschema-go/jsonschema"

// falseSchema matches nothing; used for additionalProperties: false.
func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

// productAnswerSchema is the answer_json_schema sent with every ask call.
// It instructs the provider's generative model to reply with a product array
// plus a free-text summary instead of unstructured prose.
func productAnswerSchema() *jsonschema.Schema {
	productSchema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name":         {Type: "string", Description: "Product name or title"},
			"price":        {Type: "string", Description: "Product price with currency"},
			"description":  {Type: "string", Description: "Product description"},
			"supplier":     {Type: "string", Description: "Supplier or brand name"},
			"availability": {Type: "string", Description: "Stock availability status"},
			"imageUrl":     {Type: "string", Description: "Product image URL"},
			"productUrl":   {Type: "string", Description: "Original product page URL"},
			"category":     {Type: "string", Description: "Product category"},
			"rating":       {Type: "number", Description: "Product rating if available"},
			"features": {
				Type:        "array",
				Items:       &jsonschema.Schema{Type: "string"},
				Description: "Key product features or specifications",
			},
		},
		Required: []string{
			"name", "price", "description", "supplier", "availability",
			"imageUrl", "productUrl", "category", "rating", "features",
		},
		AdditionalProperties: falseSchema(),
	}

	return &jsonschema.Schema{
		Title: "E-commerce Product Search Result",
		Type:  "object",
		Properties: map[string]*jsonschema.Schema{
			"products": {
				Type:  "array",
				Items: productSchema,
			},
			"summary": {Type: "string", Description: "Summary of the search results"},
		},
		Required: []string{"products"},
	}
}

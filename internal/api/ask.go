package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/nadinev6/RAGgle/internal/log"
	"github.com/nadinev6/RAGgle/internal/nuclia"
)

// dateLayout is the wire format for date filters.
const dateLayout = "2006-01-02"

// AskHandler answers product questions through the provider's /ask endpoint.
type AskHandler struct {
	indexer Indexer
	logger  log.Logger
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(indexer Indexer, logger log.Logger) *AskHandler {
	return &AskHandler{indexer: indexer, logger: logger}
}

// RegisterRoutes registers ask routes on the given mux.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /ask-product-details", h.ask)
	mux.HandleFunc("POST /search-products", h.ask)
}

// AskRequest is the request body for product questions.
// FromDate and ToDate are optional YYYY-MM-DD filters on resource creation
// time; ToDate is inclusive of its whole day.
type AskRequest struct {
	Query    string `json:"query"`
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`

	// Rephrase asks the provider to rewrite the query before answering.
	Rephrase bool `json:"rephrase"`
}

// AskResponse carries the raw answer plus whatever structured product data
// could be recovered from it.
type AskResponse struct {
	Success        bool                   `json:"success"`
	Query          string                 `json:"query"`
	Answer         string                 `json:"answer"`
	StructuredData *nuclia.StructuredData `json:"structured_data"`
	Citations      json.RawMessage        `json:"citations,omitempty"`
}

func (h *AskHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	opts, err := parseAskOptions(req.FromDate, req.ToDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := req.Query
	if req.Rephrase {
		// Rephrase failures fall back to the original query.
		rephrased, err := h.indexer.Rephrase(r.Context(), query, nil)
		if err != nil {
			h.logger.Warn("rephrase failed, using original query", "error", err)
		} else if rephrased != "" {
			query = rephrased
		}
	}

	answer, err := h.indexer.Ask(r.Context(), query, opts)
	if err != nil {
		h.logger.Error("ask failed", "query", req.Query, "error", err)
		writeError(w, http.StatusBadGateway, "Ask failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{
		Success:        true,
		Query:          req.Query,
		Answer:         answer.Raw,
		StructuredData: answer.Structured,
		Citations:      answer.Citations,
	})
}

// parseAskOptions converts the wire date filters into an inclusive creation
// range. The upper bound is extended to the end of its day.
func parseAskOptions(fromDate, toDate string) (nuclia.AskOptions, error) {
	var opts nuclia.AskOptions

	if fromDate != "" {
		from, err := time.Parse(dateLayout, fromDate)
		if err != nil {
			return opts, &dateError{"fromDate", fromDate}
		}
		opts.From = &from
	}
	if toDate != "" {
		to, err := time.Parse(dateLayout, toDate)
		if err != nil {
			return opts, &dateError{"toDate", toDate}
		}
		end := to.Add(24*time.Hour - time.Nanosecond)
		opts.To = &end
	}
	return opts, nil
}

type dateError struct {
	field string
	value string
}

func (e *dateError) Error() string {
	return "invalid " + e.field + " (expected YYYY-MM-DD): " + e.value
}

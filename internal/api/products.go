package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nadinev6/RAGgle/internal/log"
	"github.com/nadinev6/RAGgle/internal/product"
)

// Listing limits.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
	MaxListOffset    = 100000
)

// ProductHandler serves product listings, price history, and comparisons.
type ProductHandler struct {
	indexer Indexer
	store   ProductStore
	logger  log.Logger
}

// NewProductHandler creates a new product handler.
// store may be nil; bookkeeping endpoints then return 503.
func NewProductHandler(indexer Indexer, store ProductStore, logger log.Logger) *ProductHandler {
	return &ProductHandler{indexer: indexer, store: store, logger: logger}
}

// RegisterRoutes registers product routes on the given mux.
func (h *ProductHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /list-products", h.listResources)
	mux.HandleFunc("GET /products", h.listProducts)
	mux.HandleFunc("GET /products/{id}/price-history", h.priceHistory)
	mux.HandleFunc("POST /compare-products", h.compare)
}

// listResources relays the provider's resource listing verbatim.
func (h *ProductHandler) listResources(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", DefaultListLimit, 1, MaxListLimit)

	resources, err := h.indexer.ListResources(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list resources", "error", err)
		writeError(w, http.StatusBadGateway, "failed to list resources: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"resources": resources,
		"total":     len(resources),
	})
}

// listProducts returns local bookkeeping rows, newest first.
func (h *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "product store not configured")
		return
	}

	limit := parseIntParam(r, "limit", DefaultListLimit, 1, MaxListLimit)
	offset := parseIntParam(r, "offset", 0, 0, MaxListOffset)

	products, err := h.store.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"products": products,
		"total":    len(products),
		"limit":    limit,
		"offset":   offset,
	})
}

// priceHistory returns the observed prices for one product, oldest first.
func (h *ProductHandler) priceHistory(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "product store not configured")
		return
	}

	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || productID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	points, err := h.store.PriceHistory(r.Context(), productID)
	if err != nil {
		h.logger.Error("failed to fetch price history", "product_id", productID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch price history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"product_id": productID,
		"prices":     points,
		"total":      len(points),
	})
}

// CompareRequest selects products for comparison by row id or document id.
type CompareRequest struct {
	ProductIDs        []int64  `json:"product_ids"`
	NucliaDocumentIDs []string `json:"nuclia_document_ids"`
}

// compare aligns the selected products attribute by attribute.
func (h *ProductHandler) compare(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "product store not configured")
		return
	}

	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.ProductIDs) == 0 && len(req.NucliaDocumentIDs) == 0 {
		writeError(w, http.StatusBadRequest, "product_ids or nuclia_document_ids is required")
		return
	}

	cmp, err := h.store.Compare(r.Context(), req.ProductIDs, req.NucliaDocumentIDs)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no matching products found")
			return
		}
		h.logger.Error("comparison failed", "error", err)
		writeError(w, http.StatusInternalServerError, "comparison failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":               true,
		"products":              cmp.Products,
		"comparison_attributes": cmp.Attributes,
		"total":                 cmp.Total,
	})
}

// parseIntParam parses an integer query parameter with bounds checking.
func parseIntParam(r *http.Request, name string, defaultVal, min, max int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/nadinev6/RAGgle/internal/extract"
	"github.com/nadinev6/RAGgle/internal/log"
	"github.com/nadinev6/RAGgle/internal/product"
)

// IndexHandler handles the URL indexing pipeline.
type IndexHandler struct {
	indexer  Indexer
	fetcher  PageFetcher
	products ProductStore
	logger   log.Logger
}

// NewIndexHandler creates a new index handler.
// products may be nil; bookkeeping is then skipped.
func NewIndexHandler(indexer Indexer, fetcher PageFetcher, products ProductStore, logger log.Logger) *IndexHandler {
	return &IndexHandler{indexer: indexer, fetcher: fetcher, products: products, logger: logger}
}

// RegisterRoutes registers indexing routes on the given mux.
func (h *IndexHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /index-url", h.indexURL)
	mux.HandleFunc("POST /index-text", h.indexText)
}

// IndexURLRequest is the request body for indexing a URL.
type IndexURLRequest struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	IsProductPage bool   `json:"is_product_page"`
}

// IndexURLResponse reports the indexing pipeline's outcome.
type IndexURLResponse struct {
	Success              bool   `json:"success"`
	DocumentID           string `json:"document_id"`
	URL                  string `json:"url"`
	MetadataPatchSuccess bool   `json:"metadata_patch_success"`
	ProductID            int64  `json:"product_id,omitempty"`
}

// indexURL runs the full pipeline: the provider ingests the URL first, which
// is fast and yields a document id; the page is then fetched locally so
// product metadata can be extracted, patched onto the resource, and recorded
// in the bookkeeping store.
func (h *IndexHandler) indexURL(w http.ResponseWriter, r *http.Request) {
	var req IndexURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	ctx := r.Context()

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("Product from %s", req.URL)
	}

	documentID, err := h.indexer.CreateLink(ctx, req.URL, title, nil)
	if err != nil {
		h.logger.Error("indexing failed", "url", req.URL, "error", err)
		writeError(w, http.StatusBadGateway, fmt.Sprintf("indexing failed: %v", err))
		return
	}
	if documentID == "" {
		writeError(w, http.StatusBadGateway, "failed to get document_id from Nuclia")
		return
	}

	resp := IndexURLResponse{Success: true, DocumentID: documentID, URL: req.URL}

	content, err := h.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		// The resource exists on the provider side; report success for the
		// index itself and leave metadata unpatched.
		h.logger.Warn("page fetch failed, skipping metadata extraction",
			"url", req.URL, "document_id", documentID, "error", err)
		writeJSON(w, http.StatusOK, resp)
		return
	}

	details := extract.ForURL(req.URL)(content, req.URL)

	if err := h.indexer.PatchMetadata(ctx, documentID, details.Metadata()); err != nil {
		h.logger.Warn("metadata patch failed", "document_id", documentID, "error", err)
	} else {
		resp.MetadataPatchSuccess = true
	}

	if h.products != nil {
		productID, err := h.storeProduct(r, documentID, req, details)
		if err != nil {
			h.logger.Error("product bookkeeping failed", "document_id", documentID, "error", err)
		} else {
			resp.ProductID = productID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// storeProduct upserts the bookkeeping row and, when the price text parses,
// appends a price-history point.
func (h *IndexHandler) storeProduct(r *http.Request, documentID string, req IndexURLRequest, details extract.Details) (int64, error) {
	productType := "generic"
	if req.IsProductPage {
		productType = "product"
	}

	p := product.Product{
		NucliaDocumentID: documentID,
		Name:             details.Name,
		Author:           details.Author,
		PriceText:        details.Price,
		ImageURL:         details.ImageURL,
		Description:      details.Description,
		Supplier:         details.Supplier,
		Availability:     details.Availability,
		ProductURL:       details.ProductURL,
		ProductType:      productType,
		HasMetadata:      req.IsProductPage && details.ImageURL != "",
	}

	productID, err := h.products.Upsert(r.Context(), p)
	if err != nil {
		return 0, err
	}

	if value, currency, ok := extract.ParsePrice(details.Price); ok {
		if err := h.products.RecordPrice(r.Context(), productID, value, currency, "indexing"); err != nil {
			h.logger.Warn("recording price failed", "product_id", productID, "error", err)
		}
	}
	return productID, nil
}

// IndexTextRequest is the request body for indexing a raw document.
type IndexTextRequest struct {
	Title     string `json:"title"`
	Text      string `json:"text"`
	Format    string `json:"format"`
	SourceURL string `json:"source_url"`
}

// indexText uploads a text or HTML document directly to the knowledge box.
func (h *IndexHandler) indexText(w http.ResponseWriter, r *http.Request) {
	var req IndexTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	format := strings.ToUpper(req.Format)
	switch format {
	case "":
		format = "PLAIN"
	case "PLAIN", "HTML":
	default:
		writeError(w, http.StatusBadRequest, "format must be PLAIN or HTML")
		return
	}

	documentID, err := h.indexer.CreateText(r.Context(), req.Title, req.Text, format, req.SourceURL, nil)
	if err != nil {
		h.logger.Error("document upload failed", "title", req.Title, "error", err)
		writeError(w, http.StatusBadGateway, fmt.Sprintf("document upload failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"document_id": documentID,
		"title":       req.Title,
	})
}

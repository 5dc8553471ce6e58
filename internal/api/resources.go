package api

import (
	"net/http"
	"strings"

	"github.com/nadinev6/RAGgle/internal/log"
)

// ResourceHandler relays single-resource reads from the provider.
type ResourceHandler struct {
	indexer Indexer
	logger  log.Logger
}

// NewResourceHandler creates a new resource handler.
func NewResourceHandler(indexer Indexer, logger log.Logger) *ResourceHandler {
	return &ResourceHandler{indexer: indexer, logger: logger}
}

// RegisterRoutes registers resource routes on the given mux.
func (h *ResourceHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /resources/{id}", h.resource)
	mux.HandleFunc("GET /resources/{id}/entities", h.entities)
}

// resource returns a resource verbatim as provider JSON.
func (h *ResourceHandler) resource(w http.ResponseWriter, r *http.Request) {
	documentID := strings.TrimSpace(r.PathValue("id"))
	if documentID == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	raw, err := h.indexer.Resource(r.Context(), documentID)
	if err != nil {
		h.logger.Error("failed to fetch resource", "document_id", documentID, "error", err)
		writeError(w, http.StatusBadGateway, "failed to fetch resource: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// entities returns the named entities and relations the provider extracted.
func (h *ResourceHandler) entities(w http.ResponseWriter, r *http.Request) {
	documentID := strings.TrimSpace(r.PathValue("id"))
	if documentID == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	entities, err := h.indexer.Entities(r.Context(), documentID)
	if err != nil {
		h.logger.Error("failed to fetch entities", "document_id", documentID, "error", err)
		writeError(w, http.StatusBadGateway, "failed to fetch entities: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"document_id": documentID,
		"entities":    entities.Entities,
		"relations":   entities.Relations,
	})
}

package api

import (
	"net/http"

	"github.com/nadinev6/RAGgle/internal/config"
)

// ConfigHandler serves the knowledge-box configuration browser widgets need.
type ConfigHandler struct {
	cfg *config.Config
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// RegisterRoutes registers config routes on the given mux.
func (h *ConfigHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /nuclia-config", h.nucliaConfig)
}

// nucliaConfig hands the hosted search widget its knowledge-box settings.
// Only the reader key is exposed; the writer key never leaves the server.
func (h *ConfigHandler) nucliaConfig(w http.ResponseWriter, _ *http.Request) {
	if h.cfg.NucliaReaderKey == "" || h.cfg.KnowledgeBox == "" {
		writeError(w, http.StatusInternalServerError, "Nuclia configuration is incomplete")
		return
	}

	resp := map[string]any{
		"success":      true,
		"authtoken":    h.cfg.NucliaReaderKey,
		"knowledgebox": h.cfg.KnowledgeBox,
		"zone":         h.cfg.Zone,
	}
	if h.cfg.WidgetFeatures != "" {
		resp["features"] = h.cfg.WidgetFeatures
	}
	if h.cfg.WidgetRAGStrategies != "" {
		resp["rag_strategies"] = h.cfg.WidgetRAGStrategies
	}
	if h.cfg.WidgetGenerativeModel != "" {
		resp["generative_model"] = h.cfg.WidgetGenerativeModel
	}
	if h.cfg.WidgetFilters != "" {
		resp["filters"] = h.cfg.WidgetFilters
	}
	if h.cfg.WidgetFeedback != "" {
		resp["feedback"] = h.cfg.WidgetFeedback
	}

	writeJSON(w, http.StatusOK, resp)
}

package api

import (
	"net/http"

	"github.com/ayusman/overlay3d/internal/config"
	"github.com/ayusman/overlay3d/internal/dataset"
)

// ConfigHandler serves the trainer configuration and the class table.
type ConfigHandler struct {
	config  *config.Config
	classes []dataset.ClassRange
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(cfg *config.Config, classes []dataset.ClassRange) *ConfigHandler {
	return &ConfigHandler{config: cfg, classes: classes}
}

type configResponse struct {
	*config.Config
	BatchSize int `json:"batch_size"`
}

type classResponse struct {
	dataset.ClassRange
	Source string `json:"source"`
}

type listClassesResponse struct {
	Classes []classResponse `json:"classes"`
}

// Config handles GET /api/config
func (h *ConfigHandler) Config(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, configResponse{Config: h.config, BatchSize: h.config.BatchSize()})
}

// Classes handles GET /api/classes
// Background is listed first with id 0, as the trainer counts it.
func (h *ConfigHandler) Classes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := listClassesResponse{Classes: make([]classResponse, 0, len(h.classes)+1)}
	resp.Classes = append(resp.Classes, classResponse{
		ClassRange: dataset.ClassRange{ID: 0, Name: dataset.ClassName(h.classes, 0)},
		Source:     dataset.Source,
	})
	for _, c := range h.classes {
		resp.Classes = append(resp.Classes, classResponse{ClassRange: c, Source: dataset.Source})
	}
	writeJSON(w, http.StatusOK, resp)
}

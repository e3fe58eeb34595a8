package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/overlay3d/internal/store"
)

// DatasetsHandler serves the catalog of indexed datasets.
type DatasetsHandler struct {
	store *store.Store
}

// NewDatasetsHandler creates a new DatasetsHandler with the given store.
func NewDatasetsHandler(s *store.Store) *DatasetsHandler {
	return &DatasetsHandler{store: s}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/datasets, /api/datasets/{id}, /api/datasets/{id}/samples
func (h *DatasetsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/datasets")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.get(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.delete(w, r, id)
	case len(parts) == 2 && parts[1] == "samples" && r.Method == http.MethodGet:
		h.samples(w, r, id)
	case len(parts) <= 2:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		writeError(w, http.StatusNotFound, CodeNotFound, "Not found")
	}
}

// Response types

type listDatasetsResponse struct {
	Datasets []*store.Dataset `json:"datasets"`
}

type datasetResponse struct {
	*store.Dataset
	Classes []store.ClassCount `json:"classes"`
}

type listCatalogSamplesResponse struct {
	Samples []*store.Sample `json:"samples"`
}

// list handles GET /api/datasets
func (h *DatasetsHandler) list(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.store.Datasets().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to list datasets")
		return
	}
	writeJSON(w, http.StatusOK, listDatasetsResponse{Datasets: datasets})
}

// get handles GET /api/datasets/{id}
func (h *DatasetsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	d, err := h.store.Datasets().GetByID(id)
	if err != nil {
		h.writeStoreError(w, err, "Failed to get dataset")
		return
	}

	counts, err := h.store.Instances().ClassCounts(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to count instances")
		return
	}

	writeJSON(w, http.StatusOK, datasetResponse{Dataset: d, Classes: counts})
}

// delete handles DELETE /api/datasets/{id}
func (h *DatasetsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Datasets().Delete(id); err != nil {
		h.writeStoreError(w, err, "Failed to delete dataset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// samples handles GET /api/datasets/{id}/samples
// An optional ?status= filter keeps samples with that indexing status.
func (h *DatasetsHandler) samples(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Datasets().GetByID(id); err != nil {
		h.writeStoreError(w, err, "Failed to get dataset")
		return
	}

	samples, err := h.store.Samples().ListByDataset(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to list samples")
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filtered := samples[:0]
		for _, s := range samples {
			if string(s.Status) == status {
				filtered = append(filtered, s)
			}
		}
		samples = filtered
	}

	writeJSON(w, http.StatusOK, listCatalogSamplesResponse{Samples: samples})
}

func (h *DatasetsHandler) writeStoreError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, CodeNotFound, "Dataset not found")
		return
	}
	writeError(w, http.StatusInternalServerError, CodeInternal, message)
}

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/overlay3d/internal/dataset"
	"github.com/ayusman/overlay3d/internal/imageio"
	"github.com/ayusman/overlay3d/internal/render"
)

// SamplesHandler serves images and decoded masks of a loaded dataset.
type SamplesHandler struct {
	dataset Dataset
}

// NewSamplesHandler creates a new SamplesHandler over d.
func NewSamplesHandler(d Dataset) *SamplesHandler {
	return &SamplesHandler{dataset: d}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths:
//
//	/api/samples
//	/api/samples/{index}
//	/api/samples/{index}/image
//	/api/samples/{index}/masks
//	/api/samples/{index}/masks/{k}
//	/api/samples/{index}/preview
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/samples")
	path = strings.Trim(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}

	parts := strings.Split(path, "/")
	index, err := strconv.Atoi(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid sample index")
		return
	}

	switch {
	case len(parts) == 1:
		h.get(w, r, index)
	case len(parts) == 2 && parts[1] == "image":
		h.image(w, r, index)
	case len(parts) == 2 && parts[1] == "masks":
		h.masks(w, r, index)
	case len(parts) == 3 && parts[1] == "masks":
		k, err := strconv.Atoi(parts[2])
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid instance index")
			return
		}
		h.mask(w, r, index, k)
	case len(parts) == 2 && parts[1] == "preview":
		h.preview(w, r, index)
	default:
		writeError(w, http.StatusNotFound, CodeNotFound, "Not found")
	}
}

// Response types

type listSamplesResponse struct {
	Samples []dataset.Sample `json:"samples"`
}

type masksResponse struct {
	Index     int                `json:"index"`
	ID        string             `json:"id"`
	Shape     [3]int             `json:"shape"`
	ClassIDs  []int              `json:"class_ids"`
	Instances []instanceResponse `json:"instances"`
}

type instanceResponse struct {
	dataset.Instance
	Class string `json:"class"`
	BBox  [4]int `json:"bbox"` // x0, y0, x1, y1
}

// newMasksResponse describes a decoded mask set without its pixels.
func newMasksResponse(s dataset.Sample, set *dataset.MaskSet, classes []dataset.ClassRange) masksResponse {
	resp := masksResponse{
		Index:     s.Index,
		ID:        s.ID,
		Shape:     set.Shape(),
		ClassIDs:  set.ClassIDs,
		Instances: make([]instanceResponse, 0, set.Count()),
	}
	for k, inst := range set.Instances {
		b := set.Bounds(k)
		resp.Instances = append(resp.Instances, instanceResponse{
			Instance: inst,
			Class:    dataset.ClassName(classes, inst.ClassID),
			BBox:     [4]int{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y},
		})
	}
	return resp
}

// list handles GET /api/samples
func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listSamplesResponse{Samples: h.dataset.Samples()})
}

// get handles GET /api/samples/{index}
func (h *SamplesHandler) get(w http.ResponseWriter, r *http.Request, index int) {
	s, err := h.dataset.Sample(index)
	if err != nil {
		writeDatasetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// image handles GET /api/samples/{index}/image
func (h *SamplesHandler) image(w http.ResponseWriter, r *http.Request, index int) {
	im, err := h.dataset.Image(index)
	if err != nil {
		writeDatasetError(w, err)
		return
	}

	data, err := imageio.EncodePNG(im)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to encode image")
		return
	}
	writePNG(w, data)
}

// masks handles GET /api/samples/{index}/masks
func (h *SamplesHandler) masks(w http.ResponseWriter, r *http.Request, index int) {
	s, err := h.dataset.Sample(index)
	if err != nil {
		writeDatasetError(w, err)
		return
	}

	set, err := h.dataset.Masks(index)
	if err != nil {
		writeDatasetError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newMasksResponse(s, set, h.dataset.Classes()))
}

// mask handles GET /api/samples/{index}/masks/{k}
func (h *SamplesHandler) mask(w http.ResponseWriter, r *http.Request, index, k int) {
	set, err := h.dataset.Masks(index)
	if err != nil {
		writeDatasetError(w, err)
		return
	}

	if k < 0 || k >= set.Count() {
		writeError(w, http.StatusNotFound, CodeNotFound, "Instance not found")
		return
	}

	data, err := imageio.EncodeMaskPNG(set.Width, set.Height, set.Mask(k))
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to encode mask")
		return
	}
	writePNG(w, data)
}

// preview handles GET /api/samples/{index}/preview
// A sample without instances still renders, with an empty class map.
func (h *SamplesHandler) preview(w http.ResponseWriter, r *http.Request, index int) {
	data, err := Preview(h.dataset, index)
	if err != nil {
		writeDatasetError(w, err)
		return
	}
	writePNG(w, data)
}

// Preview renders the PNG preview of the sample at index.
func Preview(d Dataset, index int) ([]byte, error) {
	mat, err := render.Sample(d, d.Classes(), index)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	return imageio.EncodeMat(mat)
}

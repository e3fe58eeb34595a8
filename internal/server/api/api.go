// Package api provides HTTP API handlers for the overlay3d dataset adapter.
package api

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/ayusman/overlay3d/internal/dataset"
)

// Dataset is what the sample endpoints need from a loaded dataset.
type Dataset interface {
	dataset.Provider

	// Sample returns the sample table entry at index.
	Sample(index int) (dataset.Sample, error)

	// Classes returns the class table used for decoding.
	Classes() []dataset.ClassRange
}

// Error codes returned in errorResponse.Code.
const (
	CodeNotFound    = "not_found"
	CodeNoInstances = "no_instances"
	CodeBadRequest  = "bad_request"
	CodeInternal    = "internal"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writePNG writes an encoded PNG image.
func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// writeDatasetError maps dataset and I/O errors onto HTTP responses.
func writeDatasetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dataset.ErrIndexOutOfRange):
		writeError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, dataset.ErrNoInstances):
		writeError(w, http.StatusUnprocessableEntity, CodeNoInstances, err.Error())
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, CodeNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
	}
}

// ErrorCode returns the error code writeDatasetError would report for err.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, dataset.ErrIndexOutOfRange), errors.Is(err, fs.ErrNotExist):
		return CodeNotFound
	case errors.Is(err, dataset.ErrNoInstances):
		return CodeNoInstances
	default:
		return CodeInternal
	}
}

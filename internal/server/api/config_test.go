package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/overlay3d/internal/config"
	"github.com/ayusman/overlay3d/internal/dataset"
)

func TestConfigHandler_Config(t *testing.T) {
	cfg := config.Default()
	cfg.GPUCount = 2
	handler := NewConfigHandler(&cfg, dataset.DefaultClasses)

	rec := httptest.NewRecorder()
	handler.Config(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["name"] != "overlay3d" {
		t.Errorf("name = %v, want overlay3d", resp["name"])
	}
	if resp["num_classes"] != float64(3) {
		t.Errorf("num_classes = %v, want 3", resp["num_classes"])
	}
	if resp["batch_size"] != float64(4) {
		t.Errorf("batch_size = %v, want 4", resp["batch_size"])
	}

	rec = httptest.NewRecorder()
	handler.Config(rec, httptest.NewRequest(http.MethodPut, "/api/config", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT: expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestConfigHandler_Classes(t *testing.T) {
	cfg := config.Default()
	handler := NewConfigHandler(&cfg, dataset.DefaultClasses)

	rec := httptest.NewRecorder()
	handler.Classes(rec, httptest.NewRequest(http.MethodGet, "/api/classes", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp listClassesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := []struct {
		id     int
		name   string
		lo, hi int
	}{
		{0, "BG", 0, 0},
		{1, "cup", 40, 80},
		{2, "carton", 80, 120},
	}
	if len(resp.Classes) != len(want) {
		t.Fatalf("got %d classes, want %d", len(resp.Classes), len(want))
	}
	for i, w := range want {
		c := resp.Classes[i]
		if c.ID != w.id || c.Name != w.name || c.Lo != w.lo || c.Hi != w.hi || c.Source != "overlay3d" {
			t.Errorf("classes[%d] = %+v", i, c)
		}
	}
}

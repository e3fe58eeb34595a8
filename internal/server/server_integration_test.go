package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/overlay3d/internal/config"
	"github.com/ayusman/overlay3d/internal/store"
)

func TestAPI_SampleWorkflow(t *testing.T) {
	// Setup
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	ds := newTestDataset(t)
	record := &store.Dataset{Root: ds.Root(), Source: "overlay3d"}
	if err := s.Datasets().Create(record); err != nil {
		t.Fatalf("failed to create dataset: %v", err)
	}

	cfg := config.Default()
	srv := New(Config{Store: s, Dataset: ds, Trainer: &cfg})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Trainer config and class table
	resp, err := client.Get(ts.URL + "/api/config")
	if err != nil {
		t.Fatalf("GET /api/config error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/config status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	resp, _ = client.Get(ts.URL + "/api/classes")
	var classes struct {
		Classes []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"classes"`
	}
	json.NewDecoder(resp.Body).Decode(&classes)
	resp.Body.Close()

	if len(classes.Classes) != cfg.NumClasses {
		t.Errorf("len(classes) = %d, want num_classes %d", len(classes.Classes), cfg.NumClasses)
	}

	// 2. List samples
	resp, _ = client.Get(ts.URL + "/api/samples")
	var listed struct {
		Samples []struct {
			Index int    `json:"index"`
			ID    string `json:"id"`
		} `json:"samples"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Samples) != 3 {
		t.Fatalf("len(samples) = %d, want 3", len(listed.Samples))
	}

	// 3. Decode masks of the first sample
	resp, _ = client.Get(ts.URL + "/api/samples/0/masks")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET masks status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var masks struct {
		Shape    [3]int `json:"shape"`
		ClassIDs []int  `json:"class_ids"`
	}
	json.NewDecoder(resp.Body).Decode(&masks)
	resp.Body.Close()

	if masks.Shape != [3]int{30, 40, 1} || len(masks.ClassIDs) != 1 {
		t.Errorf("masks = %+v", masks)
	}

	// 4. The empty sample is reported, not silently returned as zero masks
	resp, _ = client.Get(ts.URL + "/api/samples/1/masks")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("GET empty masks status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
	resp.Body.Close()

	// 5. Catalog
	resp, _ = client.Get(ts.URL + "/api/datasets/" + record.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/datasets/%s status = %d, want %d", record.ID, resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/datasets/"+record.ID, nil)
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()

	resp, _ = client.Get(ts.URL + "/api/datasets/" + record.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}

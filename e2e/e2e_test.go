package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/ayusman/overlay3d/internal/app"
	"github.com/ayusman/overlay3d/internal/fixture"
	"github.com/ayusman/overlay3d/internal/server"
	"github.com/ayusman/overlay3d/internal/store"
)

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "renders")

	// Two scenes, one nested deeper, plus a render with nothing usable.
	for _, s := range []fixture.Sample{
		{Scene: "scene_b", ID: "000010", Width: 80, Height: 60, Regions: []fixture.Region{
			fixture.Rect(95, 0, 0, 40, 30),
			fixture.Rect(41, 40, 30, 40, 30),
		}},
		{Scene: "scene_a/cam0", ID: "000003", Width: 80, Height: 60, Paletted: true, Regions: []fixture.Region{
			fixture.Rect(79, 10, 10, 30, 30),
			fixture.Rect(118, 50, 0, 5, 5),
		}},
		{Scene: "scene_a/cam0", ID: "000004", Width: 80, Height: 60, Regions: []fixture.Region{
			fixture.Square(60, 0, 0, 20),
		}},
	} {
		fixture.WriteT(t, root, s)
	}

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	application, err := app.New(app.Config{DatasetRoot: root, Store: s})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	indexed, err := application.Index(context.Background())
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	ts := httptest.NewServer(application.Server(""))
	defer ts.Close()

	client := ts.Client()

	getJSON := func(t *testing.T, path string, wantStatus int, v any) {
		t.Helper()

		resp, err := client.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != wantStatus {
			t.Fatalf("GET %s status = %d, want %d", path, resp.StatusCode, wantStatus)
		}
		if v != nil {
			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				t.Fatalf("GET %s: failed to decode: %v", path, err)
			}
		}
	}

	t.Run("SamplesAreSortedByPath", func(t *testing.T) {
		var listed struct {
			Samples []struct {
				ID       string `json:"id"`
				MaskPath string `json:"mask_path"`
			} `json:"samples"`
		}
		getJSON(t, "/api/samples", http.StatusOK, &listed)

		var ids []string
		for _, s := range listed.Samples {
			ids = append(ids, s.ID)
		}
		if got := strings.Join(ids, ","); got != "000003,000004,000010" {
			t.Errorf("ids = %s, want 000003,000004,000010", got)
		}
		want := filepath.Join(root, "scene_a", "cam0", "mask", "000003.png")
		if listed.Samples[0].MaskPath != want {
			t.Errorf("mask path = %s, want %s", listed.Samples[0].MaskPath, want)
		}
	})

	t.Run("MasksFollowClassTableOrder", func(t *testing.T) {
		var masks struct {
			Shape     [3]int `json:"shape"`
			ClassIDs  []int  `json:"class_ids"`
			Instances []struct {
				LabelIndex int `json:"label_index"`
			} `json:"instances"`
		}
		getJSON(t, "/api/samples/2/masks", http.StatusOK, &masks)

		if masks.Shape != [3]int{60, 80, 2} {
			t.Errorf("shape = %v, want [60 80 2]", masks.Shape)
		}
		if len(masks.ClassIDs) != 2 || masks.ClassIDs[0] != 1 || masks.ClassIDs[1] != 2 {
			t.Errorf("class_ids = %v, want [1 2]", masks.ClassIDs)
		}
		if masks.Instances[0].LabelIndex != 41 || masks.Instances[1].LabelIndex != 95 {
			t.Errorf("instances = %+v", masks.Instances)
		}

		// Paletted label images decode by palette index; the small carton is dropped.
		getJSON(t, "/api/samples/0/masks", http.StatusOK, &masks)
		if masks.Shape[2] != 1 || masks.ClassIDs[0] != 1 {
			t.Errorf("paletted sample masks = %+v", masks)
		}
	})

	t.Run("EmptySampleIsReported", func(t *testing.T) {
		var e struct {
			Code string `json:"code"`
		}
		getJSON(t, "/api/samples/1/masks", http.StatusUnprocessableEntity, &e)
		if e.Code != "no_instances" {
			t.Errorf("code = %q, want no_instances", e.Code)
		}
	})

	t.Run("CatalogMatchesDecoding", func(t *testing.T) {
		var catalog struct {
			Samples []struct {
				Status        string `json:"status"`
				InstanceCount int    `json:"instance_count"`
			} `json:"samples"`
		}
		getJSON(t, "/api/datasets/"+indexed.ID+"/samples", http.StatusOK, &catalog)

		want := []struct {
			status string
			count  int
		}{{"ok", 1}, {"empty", 0}, {"ok", 2}}
		if len(catalog.Samples) != len(want) {
			t.Fatalf("catalog has %d samples, want %d", len(catalog.Samples), len(want))
		}
		for i, w := range want {
			if catalog.Samples[i].Status != w.status || catalog.Samples[i].InstanceCount != w.count {
				t.Errorf("catalog[%d] = %+v, want %s/%d", i, catalog.Samples[i], w.status, w.count)
			}
		}
	})

	t.Run("FeedStreamsEverySample", func(t *testing.T) {
		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/feed"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial error = %v", err)
		}
		defer conn.Close()

		var got []server.FeedMessage
		for {
			var msg server.FeedMessage
			if err := conn.ReadJSON(&msg); err != nil {
				var closeErr *websocket.CloseError
				if !errors.As(err, &closeErr) || closeErr.Code != websocket.CloseNormalClosure {
					t.Fatalf("feed ended with %v", err)
				}
				break
			}
			got = append(got, msg)
		}

		if len(got) != 3 {
			t.Fatalf("got %d messages, want 3", len(got))
		}
		if got[1].Code != "no_instances" || got[2].Shape == nil {
			t.Errorf("messages = %+v", got)
		}
	})
}

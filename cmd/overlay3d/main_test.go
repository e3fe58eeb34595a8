package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/overlay3d/internal/config"
	"github.com/ayusman/overlay3d/internal/fixture"
)

func writeDataset(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	fixture.WriteT(t, root, fixture.Sample{Scene: "s", ID: "0001", Width: 40, Height: 30, Regions: []fixture.Region{
		fixture.Rect(70, 0, 0, 30, 20),
	}})
	fixture.WriteT(t, root, fixture.Sample{Scene: "s", ID: "0002", Width: 40, Height: 30})
	return root
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStatsCommand(t *testing.T) {
	out, err := run(t, "stats", "--root", writeDataset(t), "--json")
	if err != nil {
		t.Fatalf("stats error = %v: %s", err, out)
	}

	var sum struct {
		Samples int      `json:"samples"`
		Decoded int      `json:"decoded"`
		Empty   []string `json:"empty"`
	}
	if err := json.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if sum.Samples != 2 || sum.Decoded != 1 || len(sum.Empty) != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestIndexCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "catalog.db")

	out, err := run(t, "index", "--root", writeDataset(t), "--db", dbPath)
	if err != nil {
		t.Fatalf("index error = %v: %s", err, out)
	}
	if !strings.Contains(out, "2 samples") {
		t.Errorf("output = %q, want a sample count", out)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("catalog should be created: %v", err)
	}
}

func TestShowCommand(t *testing.T) {
	root := writeDataset(t)
	outDir := t.TempDir()

	for _, arg := range []string{"0", "0002"} {
		outPath := filepath.Join(outDir, arg+".png")
		out, err := run(t, "show", arg, "--root", root, "--out", outPath)
		if err != nil {
			t.Fatalf("show %s error = %v: %s", arg, err, out)
		}
		if _, err := os.Stat(outPath); err != nil {
			t.Errorf("show %s should write %s: %v", arg, outPath, err)
		}
	}

	for _, arg := range []string{"nope", "7"} {
		if _, err := run(t, "show", arg, "--root", root); err == nil {
			t.Errorf("show %s should fail", arg)
		}
	}
}

func TestShowCommand_IDBeforeIndex(t *testing.T) {
	// Ids and indices disagree: "0002" is index 0 and "0003" is index 1.
	// Widths differ so the preview tells which sample was drawn.
	root := t.TempDir()
	fixture.WriteT(t, root, fixture.Sample{Scene: "s", ID: "0002", Width: 40, Height: 30})
	fixture.WriteT(t, root, fixture.Sample{Scene: "s", ID: "0003", Width: 60, Height: 30})

	tests := []struct {
		arg       string
		wantWidth int
	}{
		{"0002", 80},
		{"0003", 120},
		{"0", 80},
		{"1", 120},
	}

	outDir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			outPath := filepath.Join(outDir, tt.arg+".png")
			if out, err := run(t, "show", tt.arg, "--root", root, "--out", outPath); err != nil {
				t.Fatalf("show %s error = %v: %s", tt.arg, err, out)
			}

			f, err := os.Open(outPath)
			if err != nil {
				t.Fatalf("failed to open preview: %v", err)
			}
			defer f.Close()
			cfg, err := png.DecodeConfig(f)
			if err != nil {
				t.Fatalf("preview is not a PNG: %v", err)
			}
			if cfg.Width != tt.wantWidth {
				t.Errorf("preview width = %d, want %d", cfg.Width, tt.wantWidth)
			}
		})
	}
}

func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trainer.json")

	if out, err := run(t, "config", "--write", path); err != nil {
		t.Fatalf("config --write error = %v: %s", err, out)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.NumClasses != config.DefaultNumClasses {
		t.Errorf("NumClasses = %d, want default", cfg.NumClasses)
	}

	out, err := run(t, "config", "--config", path)
	if err != nil {
		t.Fatalf("config error = %v: %s", err, out)
	}
	if !strings.Contains(out, `"rpn_anchor_scales"`) {
		t.Errorf("output = %q, want the trainer config", out)
	}
}

func TestRootCommand_MissingRoot(t *testing.T) {
	if _, err := run(t, "stats", "--root", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("stats should fail for a missing root")
	}
}

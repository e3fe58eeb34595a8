package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ayusman/overlay3d/internal/app"
	"github.com/ayusman/overlay3d/internal/config"
	"github.com/ayusman/overlay3d/internal/dataset"
	"github.com/ayusman/overlay3d/internal/imageio"
	"github.com/ayusman/overlay3d/internal/render"
	"github.com/ayusman/overlay3d/internal/store"
)

// openStore opens the catalog database, creating its directory.
func openStore(path string) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return store.New(path)
}

func newApp(opts *options, st *store.Store) (*app.App, error) {
	return app.New(app.Config{
		DatasetRoot: opts.root,
		ConfigPath:  opts.configPath,
		Store:       st,
		Workers:     opts.workers,
	})
}

func newServeCommand(opts *options) *cobra.Command {
	var addr, staticDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve samples, masks and the catalog over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts.dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			a, err := newApp(opts, st)
			if err != nil {
				return err
			}

			if staticDir == "" {
				staticDir = findWebDir()
			}
			if staticDir != "" {
				log.Printf("Serving static files from: %s", staticDir)
			}

			log.Printf("Starting server on %s", addr)
			return a.Server(staticDir).ListenAndServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&staticDir, "static", "", "directory of static files served at /")
	return cmd
}

func newIndexCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Decode every sample and record instance statistics in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts.dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			a, err := newApp(opts, st)
			if err != nil {
				return err
			}

			d, err := a.Index(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d samples\n", d.ID, d.Root, d.SampleCount)
			return nil
		},
	}
}

func newStatsCommand(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print per-class instance counts and areas",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, nil)
			if err != nil {
				return err
			}

			sum := a.Stats()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}

			fmt.Fprintf(out, "samples: %d, decoded: %d, empty: %d, failed: %d\n",
				sum.Samples, sum.Decoded, len(sum.Empty), len(sum.Failed))
			for _, c := range sum.Classes {
				fmt.Fprintf(out, "%d\t%s\t%d instances\tarea min %d mean %.1f max %d\n",
					c.ClassID, c.Name, c.Instances, c.MinArea, c.MeanArea(), c.MaxArea)
			}
			for path, msg := range sum.Failed {
				fmt.Fprintf(out, "failed %s: %s\n", path, msg)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func newShowCommand(opts *options) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "show <index|id>",
		Short: "Write a preview of a sample and its class map to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, nil)
			if err != nil {
				return err
			}
			ds := a.Dataset()

			index, err := resolveSample(ds, args[0])
			if err != nil {
				return err
			}

			mat, err := render.Sample(ds, ds.Classes(), index)
			if err != nil {
				return err
			}
			defer mat.Close()

			if outPath == "" {
				s, err := ds.Sample(index)
				if err != nil {
					return err
				}
				outPath = s.ID + "_preview.png"
			}
			if err := imageio.WritePNG(outPath, mat); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output PNG path (default <id>_preview.png)")
	return cmd
}

func newConfigCommand(opts *options) *cobra.Command {
	var writePath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective trainer config, or write the defaults to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if writePath != "" {
				return config.Default().Save(writePath)
			}

			cfg := config.Default()
			if opts.configPath != "" {
				var err error
				if cfg, err = config.Load(opts.configPath); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}

	cmd.Flags().StringVar(&writePath, "write", "", "write the default config to this path")
	return cmd
}

// resolveSample maps a show argument to a sample index. Sample ids take
// precedence over indices, since ids are usually numeric stems.
func resolveSample(ds *dataset.Dataset, arg string) (int, error) {
	if index, ok := ds.Lookup(arg); ok {
		return index, nil
	}
	index, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("no sample with id %q", arg)
	}
	if _, err := ds.Sample(index); err != nil {
		return 0, err
	}
	return index, nil
}

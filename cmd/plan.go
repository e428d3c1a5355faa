package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/rfplan/internal/fresnel"
	"github.com/sells-group/rfplan/internal/scenario"
	"github.com/sells-group/rfplan/internal/store"
)

var (
	planOut  string
	planJSON bool
)

var planCmd = &cobra.Command{
	Use:   "plan <scenario.yaml>",
	Short: "Place towers and links from a scenario file and report each link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("plan"); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}

		s, err := scenario.Load(args[0])
		if err != nil {
			return fmt.Errorf("load scenario: %w", err)
		}

		env, err := initApp(cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		res := scenario.Apply(ctx, s, env.Graph, env.Gate, env.Orchestrator)

		if planOut != "" {
			if err := writeGraphGeoJSON(env.Graph, planOut); err != nil {
				return err
			}
			zap.L().Info("wrote geojson", zap.String("path", planOut))
		}

		if planJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printPlan(cmd.OutOrStdout(), s.Name, res)
		return nil
	},
}

func printPlan(w io.Writer, name string, res *scenario.Result) {
	fmt.Fprintf(w, "Scenario %s: %d tower(s), %d link(s)\n", name, len(res.Towers), len(res.Links))
	for _, l := range res.Labels {
		fmt.Fprintf(w, "  %s\n", l)
	}
	if len(res.Failures) > 0 {
		fmt.Fprintf(w, "Failures:\n")
		for _, f := range res.Failures {
			fmt.Fprintf(w, "  %s: %s\n", f.Item, f.Error)
		}
	}
	fmt.Fprintf(w, "Place names: %d committed, %d cached, %d failed\n",
		res.Places.Committed, res.Places.Cached, res.Places.Failed)
}

// writeGraphGeoJSON writes every link's centreline and cached Fresnel
// envelope to path.
func writeGraphGeoJSON(g *store.Graph, path string) error {
	var features []*geojson.Feature
	for _, l := range g.Links() {
		a, b, ok := g.Endpoints(l.Key())
		if !ok {
			continue
		}
		poly, _ := g.FresnelPolygon(l.Key())
		fs, err := fresnel.LinkFeatures(l.Key(), a.Point(), b.Point(), (a.FreqGHz+b.FreqGHz)/2, poly)
		if err != nil {
			return fmt.Errorf("encode link %s: %w", l.Key(), err)
		}
		features = append(features, fs...)
	}

	data, err := fresnel.MarshalCollection(features)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func init() {
	planCmd.Flags().StringVar(&planOut, "out", "", "write link GeoJSON to this file")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(planCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/rfplan/internal/fresnel"
	"github.com/sells-group/rfplan/internal/geo"
	"github.com/sells-group/rfplan/internal/model"
)

var (
	fresnelFrom    []float64
	fresnelTo      []float64
	fresnelFreq    float64
	fresnelSamples int
)

var fresnelCmd = &cobra.Command{
	Use:   "fresnel",
	Short: "Print the first Fresnel zone of a link as GeoJSON",
	Example: `  rfplan fresnel --from 12.9716,77.5946 --to 12.8452,77.6602 --freq 5
  rfplan fresnel --from 12.9716,77.5946 --to 12.8452,77.6602 --freq 2.4 --samples 48`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("fresnel"); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}

		a, err := pointFlag("from", fresnelFrom)
		if err != nil {
			return err
		}
		b, err := pointFlag("to", fresnelTo)
		if err != nil {
			return err
		}
		if !model.ValidFrequency(fresnelFreq) {
			return fmt.Errorf("--freq must be > 0, got %v", fresnelFreq)
		}

		samples := cfg.Fresnel.Samples
		if cmd.Flags().Changed("samples") {
			samples = fresnelSamples
		}

		data, err := fresnelGeoJSON(a, b, fresnelFreq, samples)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

// fresnelGeoJSON renders the centreline and Fresnel envelope for a single
// ad-hoc link between a and b.
func fresnelGeoJSON(a, b geo.Point, freqGHz float64, samples int) ([]byte, error) {
	poly := fresnel.BuildPolygon(a, b, freqGHz, fresnel.WithSamples(samples))
	key := model.NewLinkKey("a", "b")
	features, err := fresnel.LinkFeatures(key, a, b, freqGHz, poly)
	if err != nil {
		return nil, fmt.Errorf("encode fresnel zone: %w", err)
	}
	return fresnel.MarshalCollection(features)
}

func pointFlag(name string, v []float64) (geo.Point, error) {
	if len(v) != 2 {
		return geo.Point{}, fmt.Errorf("--%s must be lat,lng", name)
	}
	p := geo.Point{Lat: v[0], Lng: v[1]}
	if !p.Valid() {
		return geo.Point{}, fmt.Errorf("--%s %v,%v is out of range", name, v[0], v[1])
	}
	return p, nil
}

func init() {
	fresnelCmd.Flags().Float64SliceVar(&fresnelFrom, "from", nil, "first endpoint as lat,lng")
	fresnelCmd.Flags().Float64SliceVar(&fresnelTo, "to", nil, "second endpoint as lat,lng")
	fresnelCmd.Flags().Float64Var(&fresnelFreq, "freq", model.DefaultFreqGHz, "link frequency in GHz")
	fresnelCmd.Flags().IntVar(&fresnelSamples, "samples", 0, "samples per polygon side (0 derives it from distance)")
	_ = fresnelCmd.MarkFlagRequired("from")
	_ = fresnelCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(fresnelCmd)
}

package distance

import (
	"fmt"

	"spot-analyser/internal/features"
	"spot-analyser/internal/stats"
)

// PFAStat compares one feature property between the reference features that
// have a neighbour closer than the threshold and those that do not.
type PFAStat struct {
	CloseMean float64 `json:"close_mean"`
	CloseSD   float64 `json:"close_sd"`
	FarMean   float64 `json:"far_mean"`
	FarSD     float64 `json:"far_sd"`
	NClose    int     `json:"n_close"`
	NFar      int     `json:"n_far"`
}

// ProximalFeatureAnalysis splits ref by nnd: close when nnd < threshold, far
// otherwise. For every property it reports the mean and sd within each
// subset; an empty subset gives NaN. Every reference feature must carry
// every property.
func ProximalFeatureAnalysis(ref []*features.Feature, nnd []float64, threshold float64, props []string) (map[string]PFAStat, error) {
	if len(ref) != len(nnd) {
		return nil, fmt.Errorf("pfa: %d features but %d distances", len(ref), len(nnd))
	}
	out := make(map[string]PFAStat, len(props))
	for _, prop := range props {
		vals, err := features.Values(ref, prop)
		if err != nil {
			return nil, fmt.Errorf("failed to read pfa property: %w", err)
		}
		var near, far []float64
		for i, v := range vals {
			if nnd[i] < threshold {
				near = append(near, v)
			} else {
				far = append(far, v)
			}
		}
		out[prop] = PFAStat{
			CloseMean: stats.Mean(near),
			CloseSD:   stats.SD(near),
			FarMean:   stats.Mean(far),
			FarSD:     stats.SD(far),
			NClose:    len(near),
			NFar:      len(far),
		}
	}
	return out, nil
}

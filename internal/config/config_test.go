package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot-analyser/internal/chromatic"
	"spot-analyser/internal/features"
	"spot-analyser/internal/segment"
	"spot-analyser/internal/spot"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "log", cfg.Detector)
	assert.Equal(t, 5.0, cfg.SpotDiameter)
	assert.Equal(t, 4.0, cfg.Threshold)
	assert.Equal(t, "watershed", cfg.Segmentation)
	assert.Equal(t, 8, cfg.Connectivity)
	assert.Equal(t, 1.5, cfg.MeasureSigma)
	assert.True(t, cfg.Distance.Enabled)
	assert.Equal(t, 0.1, cfg.Distance.ThresholdDistance)
	assert.Equal(t, 2.0, cfg.Distance.HistogramMax)
	assert.Equal(t, 3, cfg.Distance.Randomizations)
	assert.Equal(t, []string{features.KeyMeanValue, features.KeyArea, features.KeySumIntensity}, cfg.Distance.PFAProperties)
	assert.True(t, cfg.Coloc.Enabled)
	assert.Equal(t, 10, cfg.Coloc.Randomizations)
	assert.True(t, cfg.Measure.Enabled)
	assert.False(t, cfg.Chromatic.Enabled)
	assert.Equal(t, int64(1), cfg.Seed)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "cfg.json", `{
		"detector": "threshold",
		"segmentation": "connected",
		"connectivity": 4,
		"distance": {"enabled": true, "randomizations": 0},
		"chromatic": {"enabled": true, "offsets": [{"dx": 0.1, "dy": -0.2}]},
		"seed": 42
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Distance.Randomizations)
	assert.Equal(t, 2.0, cfg.Distance.HistogramMax)
	assert.True(t, cfg.Coloc.Enabled)
	assert.Equal(t, []chromatic.Offset{{DX: 0.1, DY: -0.2}}, cfg.Chromatic.Offsets)
	assert.Equal(t, int64(42), cfg.Seed)

	sp, err := cfg.SpotParams()
	require.NoError(t, err)
	assert.Equal(t, spot.DetectorThreshold, sp.Detector)
	assert.Equal(t, segment.MethodConnected, sp.Segmentation)
	assert.Equal(t, 4, sp.Connectivity)
	assert.Equal(t, 4.0, sp.Threshold)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		want string
	}{
		{"extension", "cfg.yaml", `{}`, ".json extension"},
		{"unknown field", "cfg.json", `{"spot_diameterr": 3}`, "unknown field"},
		{"bad json", "cfg.json", `{"threshold": }`, "parse"},
		{"bad detector", "cfg.json", `{"detector": "dog"}`, "unknown detector"},
		{"bad connectivity", "cfg.json", `{"connectivity": 6}`, "connectivity"},
		{"bad bin width", "cfg.json", `{"distance": {"enabled": true, "bin_width": 0}}`, "bin width"},
		{"negative coloc trials", "cfg.json", `{"coloc": {"enabled": true, "randomizations": -1}}`, "randomizations"},
		{"negative workers", "cfg.json", `{"workers": -2}`, "workers"},
		{"circularity", "cfg.json", `{"min_circularity": 1.5}`, "min_circularity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_DisabledStageSkipsValidation(t *testing.T) {
	cfg, err := Parse([]byte(`{"distance": {"enabled": false, "bin_width": 0}}`))
	require.NoError(t, err)
	assert.False(t, cfg.Distance.Enabled)
}

func TestLoad_TooLarge(t *testing.T) {
	body := `{"seed": 1, "detector": "` + strings.Repeat("x", maxFileSize) + `"}`
	_, err := Load(writeConfig(t, "big.json", body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestValidateChannels(t *testing.T) {
	cfg := Defaults()
	cfg.Coloc.ReferenceChannel = 2
	assert.Error(t, cfg.ValidateChannels(2))
	assert.NoError(t, cfg.ValidateChannels(3))

	cfg = Defaults()
	cfg.Chromatic.Enabled = true
	cfg.Chromatic.Offsets = []chromatic.Offset{{DX: 1}}
	assert.NoError(t, cfg.ValidateChannels(2))
	assert.Error(t, cfg.ValidateChannels(3))
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Seed = 99
	cfg.Distance.EdgeDistance = false
	path := filepath.Join(t.TempDir(), "saved.json")
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestParams(t *testing.T) {
	cfg := Defaults()
	cfg.Coloc.ReferenceChannel = 1
	cfg.Coloc.BlurSigma = 2

	dp := cfg.DistanceParams()
	assert.Equal(t, cfg.Distance.BinWidth, dp.BinWidth)
	assert.True(t, dp.EdgeDistance)
	dp.PFAProperties[0] = "changed"
	assert.Equal(t, features.KeyMeanValue, cfg.Distance.PFAProperties[0])

	cp := cfg.ColocParams()
	assert.Equal(t, 1, cp.ReferenceChannel)
	assert.Equal(t, 2.0, cp.BlurSigma)
	assert.Equal(t, 10, cp.Randomizations)
}

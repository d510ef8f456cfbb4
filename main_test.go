package main

import (
	"context"
	goimage "image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot-analyser/internal/logger"
	"spot-analyser/internal/project"
	"spot-analyser/internal/report"
	"spot-analyser/internal/store"
	"spot-analyser/pkg/geometry"
)

// writeSpots writes a 24x24 gray PNG with 2x2 spots of value 200 at the
// given top-left corners.
func writeSpots(t *testing.T, path string, corners ...geometry.PointInt) {
	t.Helper()
	img := goimage.NewGray(goimage.Rect(0, 0, 24, 24))
	for _, c := range corners {
		for y := c.Y; y < c.Y+2; y++ {
			for x := c.X; x < c.X+2; x++ {
				img.SetGray(x, y, color.Gray{Y: 200})
			}
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	projPath := filepath.Join(dir, "cells"+project.Extension)
	writeSpots(t, filepath.Join(dir, "c1.png"), geometry.PointInt{X: 4, Y: 4}, geometry.PointInt{X: 14, Y: 14})
	writeSpots(t, filepath.Join(dir, "c2.png"), geometry.PointInt{X: 5, Y: 5}, geometry.PointInt{X: 16, Y: 12})

	cfgPath := filepath.Join(dir, "analysis.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{
		"detector": "threshold",
		"absolute_threshold": true,
		"threshold": 100,
		"segmentation": "connected",
		"distance": {"enabled": true, "threshold_distance": 2, "histogram_max": 4, "bin_width": 0.5, "randomizations": 2},
		"coloc": {"enabled": true, "randomizations": 2}
	}`), 0644))

	p := project.New("cells")
	p.PixelSize = 0.25
	p.ConfigPath = "analysis.json"
	p.AddChannel(projPath, "a", filepath.Join(dir, "c1.png"), 0)
	p.AddChannel(projPath, "b", filepath.Join(dir, "c2.png"), 0)
	p.AddRegion("left", geometry.Rectangle(geometry.RectInt{X: 0, Y: 0, Width: 12, Height: 24}))
	p.AddRegion("right", geometry.Rectangle(geometry.RectInt{X: 12, Y: 0, Width: 12, Height: 24}))
	require.NoError(t, p.Save(projPath))

	err := run(context.Background(), runOptions{projectPath: projPath, workers: 2}, logger.Nop())
	require.NoError(t, err)

	db, err := store.Open(p.GetDatabasePath(projPath), nil)
	require.NoError(t, err)
	defer db.Close()

	runs, err := db.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)

	ids, err := db.RegionIDs(context.Background(), runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"left", "right"}, ids)

	props, err := db.RegionProperties(context.Background(), runs[0].ID, "left")
	require.NoError(t, err)
	// Spots at (5,5) and (6,6) centroids, one pixel apart diagonally.
	assert.InDelta(t, 0.25*1.4142135623730951, props["NN_D_C_c_1-2_MEAN"], 1e-9)
	assert.Equal(t, 200.0, props["CH_2_CELL_MAX"])

	for _, name := range []string{report.RegionsFile, report.FeaturesFile, report.HistogramsPage} {
		_, err := os.Stat(filepath.Join(p.GetReportDir(projPath), name))
		assert.NoError(t, err, name)
	}
}

func TestRun_MissingProject(t *testing.T) {
	err := run(context.Background(), runOptions{projectPath: filepath.Join(t.TempDir(), "none.spotproj")}, logger.Nop())
	assert.Error(t, err)
}

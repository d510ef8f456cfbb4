// Package project provides the project file: the channel images of one
// acquisition, its pixel size and the saved region polygons.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"spot-analyser/internal/features"
	"spot-analyser/internal/image"
	"spot-analyser/pkg/geometry"
)

// Extension is the project file extension.
const Extension = ".spotproj"

// File represents a spot analysis project file (.spotproj).
type File struct {
	Version     int       `json:"version"`
	Name        string    `json:"name"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Description string    `json:"description,omitempty"`

	// One entry per analysed channel, in channel order
	Channels []Channel `json:"channels"`

	// Physical size of one pixel. Zero takes it from the first image.
	PixelSize float64 `json:"pixel_size,omitempty"`
	Frame     int     `json:"frame"`

	Regions []SavedRegion `json:"regions"`

	// Data file paths (relative to project file)
	ConfigPath   string `json:"config,omitempty"`
	DatabasePath string `json:"database,omitempty"`
	ReportDir    string `json:"report_dir,omitempty"`
}

// Channel names the image holding one channel. Index selects the plane of a
// multi-channel (RGB) image and is 0 for gray images.
type Channel struct {
	Name  string `json:"name,omitempty"`
	Path  string `json:"path"` // Relative to project file
	Index int    `json:"index,omitempty"`
}

// SavedRegion is a region polygon in image coordinates.
type SavedRegion struct {
	ID      string              `json:"id"`
	Polygon []geometry.PointInt `json:"polygon"`
}

// New creates an empty project.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  1,
		Name:     name,
		Created:  now,
		Modified: now,
	}
}

// Load loads a project from a .spotproj file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("failed to parse project: %w", err)
	}
	return &proj, nil
}

// Save saves the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}
	return nil
}

// AddChannel appends a channel image, stored relative to the project.
func (p *File) AddChannel(projectPath, name, imagePath string, index int) {
	rel, err := filepath.Rel(filepath.Dir(projectPath), imagePath)
	if err != nil {
		rel = imagePath
	}
	p.Channels = append(p.Channels, Channel{Name: name, Path: rel, Index: index})
	p.Modified = time.Now()
}

// AddRegion saves a region polygon. An empty id is replaced by the next
// free "roi-<n>" name.
func (p *File) AddRegion(id string, polygon []geometry.PointInt) string {
	if id == "" {
		id = fmt.Sprintf("roi-%d", len(p.Regions)+1)
	}
	p.Regions = append(p.Regions, SavedRegion{ID: id, Polygon: append([]geometry.PointInt(nil), polygon...)})
	p.Modified = time.Now()
	return id
}

// Validate checks that the project can be analysed.
func (p *File) Validate() error {
	if len(p.Channels) == 0 {
		return fmt.Errorf("project %q has no channels", p.Name)
	}
	if len(p.Regions) == 0 {
		return fmt.Errorf("project %q has no regions", p.Name)
	}
	if p.PixelSize < 0 {
		return fmt.Errorf("project %q: pixel size must not be negative, got %g", p.Name, p.PixelSize)
	}
	seen := make(map[string]bool, len(p.Regions))
	for _, r := range p.Regions {
		if seen[r.ID] {
			return fmt.Errorf("project %q: duplicate region id %q", p.Name, r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

// resolve returns path relative to the project directory unless absolute.
func resolve(projectPath, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(projectPath), path)
}

// defaultPath derives a sibling of the project file, e.g. cells_results.db.
func defaultPath(projectPath, suffix string) string {
	base := projectPath[:len(projectPath)-len(filepath.Ext(projectPath))]
	return base + suffix
}

// ChannelPath returns the absolute path of a channel image.
func (p *File) ChannelPath(projectPath string, channel int) string {
	return resolve(projectPath, p.Channels[channel].Path)
}

// GetConfigPath returns the analysis configuration path, or "" when the
// project does not name one.
func (p *File) GetConfigPath(projectPath string) string {
	if p.ConfigPath == "" {
		return ""
	}
	return resolve(projectPath, p.ConfigPath)
}

// GetDatabasePath returns the results database path.
func (p *File) GetDatabasePath(projectPath string) string {
	if p.DatabasePath == "" {
		// Default: project_name_results.db
		return defaultPath(projectPath, "_results.db")
	}
	return resolve(projectPath, p.DatabasePath)
}

// GetReportDir returns the directory for CSV tables and charts.
func (p *File) GetReportDir(projectPath string) string {
	if p.ReportDir == "" {
		// Default: project_name_report/
		return defaultPath(projectPath, "_report")
	}
	return resolve(projectPath, p.ReportDir)
}

// LoadFields decodes every channel image. Images shared by several channels
// are decoded once. All fields get the project pixel size, or the first
// image's when the project leaves it unset.
func (p *File) LoadFields(projectPath string) ([]*image.Field, error) {
	decoded := make(map[string][]*image.Field)
	fields := make([]*image.Field, len(p.Channels))
	for c, ch := range p.Channels {
		path := p.ChannelPath(projectPath, c)
		planes, ok := decoded[path]
		if !ok {
			var err error
			planes, err = image.LoadChannels(path)
			if err != nil {
				return nil, fmt.Errorf("channel %d: %w", c+1, err)
			}
			decoded[path] = planes
		}
		if ch.Index < 0 || ch.Index >= len(planes) {
			return nil, fmt.Errorf("channel %d: %s has %d planes, index %d requested", c+1, path, len(planes), ch.Index)
		}
		fields[c] = planes[ch.Index].Clone()
	}

	ps := p.PixelSize
	if ps <= 0 {
		ps = fields[0].PixelSize
	}
	w, h := fields[0].Width, fields[0].Height
	for c, f := range fields {
		if f.Width != w || f.Height != h {
			return nil, fmt.Errorf("channel %d is %dx%d, channel 1 is %dx%d", c+1, f.Width, f.Height, w, h)
		}
		f.PixelSize = ps
	}
	return fields, nil
}

// BuildRegions turns the saved polygons into regions with the given channel
// count and pixel size.
func (p *File) BuildRegions(channels int, pixelSize float64) ([]*features.Region, error) {
	regions := make([]*features.Region, 0, len(p.Regions))
	for _, sr := range p.Regions {
		r, err := features.NewRegion(sr.ID, p.Frame, channels, pixelSize, sr.Polygon)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}

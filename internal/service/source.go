package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// ErrSourceNotFound is returned when a named source file does not exist.
var ErrSourceNotFound = errors.New("source not found")

// Supported source file extensions and their types.
var sourceTypes = map[string]string{
	".geojson": "GeoJSON",
	".json":    "GeoJSON",
}

// SourceService reads GeoJSON files from the sources directory.
type SourceService struct {
	sourcesDir string
}

// NewSourceService creates a new source service.
func NewSourceService(dataDir string) *SourceService {
	return &SourceService{
		sourcesDir: filepath.Join(dataDir, "sources"),
	}
}

// List returns all available source files sorted by name.
func (s *SourceService) List() ([]SourceFile, error) {
	entries, err := os.ReadDir(s.sourcesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SourceFile{}, nil
		}
		return nil, err
	}

	files := []SourceFile{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileType, ok := sourceTypes[strings.ToLower(filepath.Ext(entry.Name()))]
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, SourceFile{
			Name:     entry.Name(),
			Size:     formatSize(info.Size()),
			FileType: fileType,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Validate checks that filename is a plain name with a supported extension
// and that the file exists.
func (s *SourceService) Validate(filename string) error {
	if filename == "" || strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		return fmt.Errorf("invalid filename %q", filename)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := sourceTypes[ext]; !ok {
		return fmt.Errorf("unsupported file type %q", ext)
	}
	if _, err := os.Stat(filepath.Join(s.sourcesDir, filename)); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, filename)
	}
	return nil
}

// Read parses a source file. A single Feature or bare geometry is wrapped in
// a one-feature collection.
func (s *SourceService) Read(filename string) (*geojson.FeatureCollection, error) {
	if err := s.Validate(filename); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.sourcesDir, filename))
	if err != nil {
		return nil, err
	}
	return ParseGeoJSON(data)
}

// ParseGeoJSON decodes a FeatureCollection, a Feature or a bare geometry.
func ParseGeoJSON(data []byte) (*geojson.FeatureCollection, error) {
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && fc.Type == "FeatureCollection" {
		return fc, nil
	}
	if f, err := geojson.UnmarshalFeature(data); err == nil && f.Type == "Feature" {
		fc := geojson.NewFeatureCollection()
		fc.Append(f)
		return fc, nil
	}
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(g.Geometry()))
	return fc, nil
}

// SourcesDir returns the path to the sources directory.
func (s *SourceService) SourcesDir() string {
	return s.sourcesDir
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

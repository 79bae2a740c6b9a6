// Package service contains the coordinate conversion and export logic shared by
// the geovisor API, the Datastar readout and the CLI.
package service

import "github.com/joeblew999/geovisor/internal/crs"

// Coordinate is a WGS 84 position.
// Huma reads the tags for OpenAPI and validation.
type Coordinate struct {
	Lat float64 `json:"lat" minimum:"-90" maximum:"90" doc:"Latitude in decimal degrees (WGS 84)" example:"-0.1807"`
	Lng float64 `json:"lng" minimum:"-180" maximum:"180" doc:"Longitude in decimal degrees (WGS 84)" example:"-78.4678"`
}

func (c Coordinate) geographic() crs.GeographicCoordinate {
	return crs.LatLng(c.Lat, c.Lng)
}

func coordinateOf(g crs.GeographicCoordinate) Coordinate {
	return Coordinate{Lat: g.Latitude, Lng: g.Longitude}
}

// Projected is a planar position in a reference system.
type Projected struct {
	Easting  float64 `json:"easting" doc:"Easting in metres" example:"781861.46"`
	Northing float64 `json:"northing" doc:"Northing in metres" example:"9980007.57"`
	System   string  `json:"system" required:"true" minLength:"1" doc:"Reference system id" example:"EPSG:32717"`
}

func (p Projected) projected() crs.ProjectedCoordinate {
	return crs.ProjectedCoordinate{Easting: p.Easting, Northing: p.Northing, SystemID: p.System}
}

func projectedOf(p crs.ProjectedCoordinate) Projected {
	return Projected{Easting: p.Easting, Northing: p.Northing, System: p.SystemID}
}

// SystemInfo describes a reference system.
type SystemInfo struct {
	ID          string    `json:"id" doc:"EPSG-style id" example:"EPSG:32717"`
	Name        string    `json:"name" doc:"Display name" example:"WGS 84 / UTM zone 17S"`
	Description string    `json:"description,omitempty" doc:"Usage notes"`
	Projection  string    `json:"projection" enum:"utm,tmerc" doc:"Projection method"`
	Zone        string    `json:"zone,omitempty" doc:"UTM zone label" example:"17S"`
	Datum       string    `json:"datum" doc:"Datum name" example:"WGS84"`
	Ellipsoid   string    `json:"ellipsoid" doc:"Ellipsoid name" example:"WGS84"`
	ToWGS84     []float64 `json:"towgs84,omitempty" doc:"Helmert parameters to WGS 84"`
	Region      string    `json:"region" doc:"Validity region name" example:"Ecuador"`
	RegionKind  string    `json:"regionKind" enum:"any,box,zone_band" doc:"Validity predicate kind"`
	Bounds      []float64 `json:"bounds,omitempty" doc:"Region bounds as [minLng, minLat, maxLng, maxLat]"`
	Proj4       string    `json:"proj4" doc:"PROJ definition"`
	Legacy      bool      `json:"legacy" doc:"Historical system, chosen only when nothing newer applies"`
	Explicit    bool      `json:"explicit" doc:"Never resolved automatically, only used when requested by id"`
	Synthesized bool      `json:"synthesized" doc:"Generic UTM zone derived by formula"`
}

// NewSystemInfo converts a descriptor for presentation.
func NewSystemInfo(d crs.Descriptor) SystemInfo {
	info := SystemInfo{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Projection:  string(d.Projection.Kind),
		Zone:        d.ZoneString(),
		Datum:       d.Datum.Name,
		Ellipsoid:   d.Datum.Ellipsoid.Name,
		Region:      d.Region.Name,
		RegionKind:  d.Region.Kind.String(),
		Proj4:       d.Proj4(),
		Legacy:      d.Legacy,
		Explicit:    d.Explicit,
		Synthesized: d.Synthesized(),
	}
	if !d.Datum.ToWGS84.IsZero() {
		info.ToWGS84 = d.Datum.ToWGS84.Params()
	}
	if d.Region.Kind != crs.RegionAny {
		b := d.Region.Bound
		info.Bounds = []float64{b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y()}
	}
	return info
}

// Resolution is the system chosen for a coordinate plus every alternative.
type Resolution struct {
	Coordinate Coordinate   `json:"coordinate" doc:"Input coordinate"`
	System     SystemInfo   `json:"system" doc:"Selected reference system"`
	Candidates []SystemInfo `json:"candidates" doc:"All applicable systems in priority order, generic zone last"`
}

// ProjectionResult is a projected coordinate with presentation details.
type ProjectionResult struct {
	Projected  Projected  `json:"projected" doc:"Projected coordinate"`
	Coordinate Coordinate `json:"coordinate" doc:"Input coordinate"`
	Zone       string     `json:"zone,omitempty" doc:"UTM zone label" example:"17S"`
	SystemName string     `json:"systemName" doc:"Reference system name"`
	DMS        string     `json:"dms" doc:"Input in degrees, minutes and seconds"`
}

// UnprojectionResult is a geographic coordinate recovered from a projection.
type UnprojectionResult struct {
	Coordinate Coordinate `json:"coordinate" doc:"WGS 84 coordinate"`
	DMS        string     `json:"dms" doc:"Coordinate in degrees, minutes and seconds"`
	System     string     `json:"system" doc:"Source reference system id"`
}

// Readout is the cursor readout shown next to the map.
type Readout struct {
	DMS      string `json:"dms"`
	Zone     string `json:"zone"`
	EPSG     string `json:"epsg"`
	System   string `json:"system"`
	Easting  string `json:"easting"`
	Northing string `json:"northing"`
	Legacy   bool   `json:"legacy"`
}

// SourceFile represents a source data file.
type SourceFile struct {
	Name     string `json:"name" doc:"File name" example:"parcels.geojson"`
	Size     string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	FileType string `json:"fileType" doc:"File type" example:"GeoJSON"`
}

// VertexRow is one projected vertex of a source feature.
type VertexRow struct {
	FeatureID string  `json:"featureId"`
	Vertex    int     `json:"vertex"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	DMS       string  `json:"dms"`
	Easting   float64 `json:"easting"`
	Northing  float64 `json:"northing"`
	Zone      string  `json:"zone"`
	EPSG      string  `json:"epsg"`
	Distance  float64 `json:"distance" doc:"Great-circle metres from the previous vertex of the feature"`
}

// ExportRequest asks for the projected vertices of a source file.
type ExportRequest struct {
	Source string `json:"source" required:"true" minLength:"1" doc:"GeoJSON file in the sources directory" example:"parcels.geojson"`
	Name   string `json:"name,omitempty" maxLength:"64" doc:"Output name, defaults to the source name" example:"parcels_utm"`
	Format string `json:"format,omitempty" enum:"csv,parquet" default:"csv" doc:"Output format"`
	System string `json:"system,omitempty" doc:"Force one reference system for every vertex" example:"EPSG:32717"`
}

// ExportResult summarises a finished export.
type ExportResult struct {
	Table    string `json:"table" doc:"DuckDB table holding the rows" example:"parcels_utm"`
	Path     string `json:"path" doc:"Written file"`
	Format   string `json:"format" doc:"Output format"`
	Features int    `json:"features" doc:"Features read"`
	Rows     int    `json:"rows" doc:"Vertex rows written"`
}

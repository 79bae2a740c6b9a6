package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/geovisor/internal/crs"
)

// ProjectFeatures projects every vertex of fc. With a non-empty system every
// vertex uses it; otherwise each vertex is resolved on its own, so a feature
// crossing a zone boundary reports the zone of each vertex.
func (s *ConversionService) ProjectFeatures(fc *geojson.FeatureCollection, system string) ([]VertexRow, error) {
	var forced *crs.Descriptor
	if strings.TrimSpace(system) != "" {
		d, err := s.resolver.Lookup(system)
		if err != nil {
			return nil, err
		}
		forced = &d
	}

	var rows []VertexRow
	for i, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		id := featureID(f, i)
		var prev orb.Point
		for j, pt := range vertices(f.Geometry) {
			g := crs.LatLng(pt.Lat(), pt.Lon())
			d := crs.Descriptor{}
			if forced != nil {
				d = *forced
			} else {
				var err error
				if d, err = s.resolver.Resolve(g); err != nil {
					return nil, fmt.Errorf("feature %s vertex %d: %w", id, j, err)
				}
			}
			p, err := crs.ProjectTo(g, d)
			if err != nil {
				return nil, fmt.Errorf("feature %s vertex %d: %w", id, j, err)
			}

			row := VertexRow{
				FeatureID: id,
				Vertex:    j,
				Lat:       g.Latitude,
				Lng:       g.Longitude,
				DMS:       crs.FormatDMS(g),
				Easting:   p.Easting,
				Northing:  p.Northing,
				Zone:      d.ZoneString(),
				EPSG:      p.SystemID,
			}
			if j > 0 {
				row.Distance = roundTo(geo.DistanceHaversine(prev, pt), 2)
			}
			rows = append(rows, row)
			prev = pt
		}
	}
	return rows, nil
}

// featureID prefers the GeoJSON id, then an "id" or "name" property, then the
// feature's position in the collection.
func featureID(f *geojson.Feature, index int) string {
	if f.ID != nil {
		return fmt.Sprint(f.ID)
	}
	for _, key := range []string{"id", "name"} {
		if v, ok := f.Properties[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return fmt.Sprintf("feature-%d", index)
}

// vertices flattens a geometry into its points in document order. Polygon
// rings keep their closing vertex.
func vertices(g orb.Geometry) []orb.Point {
	switch g := g.(type) {
	case orb.Point:
		return []orb.Point{g}
	case orb.MultiPoint:
		return []orb.Point(g)
	case orb.LineString:
		return []orb.Point(g)
	case orb.Ring:
		return []orb.Point(g)
	case orb.MultiLineString:
		var out []orb.Point
		for _, ls := range g {
			out = append(out, ls...)
		}
		return out
	case orb.Polygon:
		var out []orb.Point
		for _, r := range g {
			out = append(out, r...)
		}
		return out
	case orb.MultiPolygon:
		var out []orb.Point
		for _, p := range g {
			out = append(out, vertices(p)...)
		}
		return out
	case orb.Collection:
		var out []orb.Point
		for _, c := range g {
			out = append(out, vertices(c)...)
		}
		return out
	case orb.Bound:
		return vertices(g.ToPolygon())
	}
	return nil
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}

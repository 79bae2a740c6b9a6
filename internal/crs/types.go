// Package crs resolves and applies projected coordinate reference systems for
// WGS 84 coordinates.
//
// A [Resolver] picks the most appropriate system for a point from an ordered,
// immutable [Catalog] of regional systems (Ecuador, Galápagos, ...) and falls
// back to the generic UTM zone when no region matches. Projection results are
// rounded to centimetres and geographic results to 6 decimal degrees; that
// precision is part of the contract of [Resolver.Project] and
// [Resolver.Unproject], not a display concern.
//
// All operations are pure and safe for concurrent use.
package crs

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Decimal places applied to results.
const (
	ProjectedDecimals  = 2
	GeographicDecimals = 6
	DMSSecondDecimals  = 2
)

// GeographicCoordinate is a WGS 84 latitude/longitude pair in degrees.
type GeographicCoordinate struct {
	Latitude  float64
	Longitude float64
}

// LatLng is shorthand for GeographicCoordinate{lat, lng}.
func LatLng(lat, lng float64) GeographicCoordinate {
	return GeographicCoordinate{Latitude: lat, Longitude: lng}
}

// Validate returns a *RangeError when the coordinate is outside the
// geographic range or not a number.
func (c GeographicCoordinate) Validate() error {
	if !(c.Latitude >= -90 && c.Latitude <= 90) || !(c.Longitude >= -180 && c.Longitude <= 180) {
		return &RangeError{Latitude: c.Latitude, Longitude: c.Longitude}
	}
	return nil
}

// Point returns the coordinate as an orb.Point (x = longitude, y = latitude).
func (c GeographicCoordinate) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

func (c GeographicCoordinate) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Latitude, c.Longitude)
}

// ProjectedCoordinate is a planar position in metres within SystemID.
type ProjectedCoordinate struct {
	Easting  float64
	Northing float64
	SystemID string
}

// Hemisphere of a UTM zone.
type Hemisphere byte

const (
	North Hemisphere = 'N'
	South Hemisphere = 'S'
)

func (h Hemisphere) String() string {
	switch h {
	case North:
		return "N"
	case South:
		return "S"
	}
	return ""
}

// ParseHemisphere accepts "N"/"S" in either case.
func ParseHemisphere(s string) (Hemisphere, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N", "NORTH":
		return North, nil
	case "S", "SOUTH":
		return South, nil
	}
	return 0, fmt.Errorf("invalid hemisphere %q", s)
}

// Ellipsoid is a reference ellipsoid given by its semi-major axis and inverse
// flattening.
type Ellipsoid struct {
	Name string
	A    float64 // semi-major axis, metres
	InvF float64 // inverse flattening
}

// Well-known ellipsoids.
var (
	WGS84Ellipsoid = Ellipsoid{Name: "WGS84", A: 6378137.0, InvF: 298.257223563}
	GRS80Ellipsoid = Ellipsoid{Name: "GRS80", A: 6378137.0, InvF: 298.257222101}
	Intl1924       = Ellipsoid{Name: "intl", A: 6378388.0, InvF: 297.0}
)

// F returns the flattening.
func (e Ellipsoid) F() float64 { return 1 / e.InvF }

// E2 returns the first eccentricity squared.
func (e Ellipsoid) E2() float64 {
	f := e.F()
	return f * (2 - f)
}

// DatumShift is a towgs84 Helmert transform from the local datum to WGS 84
// using the position vector convention: translations in metres, rotations in
// arc-seconds, scale in parts per million. A 3-parameter shift leaves the
// rotations and scale at zero.
type DatumShift struct {
	DX, DY, DZ float64
	RX, RY, RZ float64
	Scale      float64
}

// IsZero reports whether the shift is the identity.
func (s DatumShift) IsZero() bool { return s == DatumShift{} }

// Params returns the towgs84 parameter list: 3 values for a pure
// translation, 7 otherwise.
func (s DatumShift) Params() []float64 {
	if s.RX == 0 && s.RY == 0 && s.RZ == 0 && s.Scale == 0 {
		return []float64{s.DX, s.DY, s.DZ}
	}
	return []float64{s.DX, s.DY, s.DZ, s.RX, s.RY, s.RZ, s.Scale}
}

// Datum ties an ellipsoid to WGS 84.
type Datum struct {
	Name      string
	Ellipsoid Ellipsoid
	ToWGS84   DatumShift
}

// WGS84 is the datum every input coordinate is expressed in.
var WGS84 = Datum{Name: "WGS84", Ellipsoid: WGS84Ellipsoid}

// IsWGS84 reports whether no datum shift or ellipsoid change is required.
func (d Datum) IsWGS84() bool {
	return d.ToWGS84.IsZero() && d.Ellipsoid.A == WGS84Ellipsoid.A && d.Ellipsoid.InvF == WGS84Ellipsoid.InvF
}

// ProjectionKind tags the projection method of a Descriptor.
type ProjectionKind string

const (
	KindUTM   ProjectionKind = "utm"
	KindTMerc ProjectionKind = "tmerc"
)

// Projection holds the parameters of a transverse Mercator system. UTM
// systems only set Zone and Hemisphere; the remaining fields are derived.
type Projection struct {
	Kind       ProjectionKind
	Zone       int
	Hemisphere Hemisphere

	LatOrigin       float64 // degrees
	CentralMeridian float64 // degrees
	ScaleFactor     float64
	FalseEasting    float64
	FalseNorthing   float64
}

// UTMProjection returns the projection for a UTM zone.
func UTMProjection(zone int, h Hemisphere) Projection {
	return Projection{Kind: KindUTM, Zone: zone, Hemisphere: h}
}

// Params returns the full transverse Mercator parameters, deriving them for
// UTM zones.
func (p Projection) Params() Projection {
	if p.Kind != KindUTM {
		return p
	}
	out := p
	out.LatOrigin = 0
	out.CentralMeridian = float64(p.Zone)*6 - 183
	out.ScaleFactor = 0.9996
	out.FalseEasting = 500000
	out.FalseNorthing = 0
	if p.Hemisphere == South {
		out.FalseNorthing = 10000000
	}
	return out
}

func (p Projection) validate() error {
	switch p.Kind {
	case KindUTM:
		if p.Zone < 1 || p.Zone > 60 {
			return fmt.Errorf("utm zone %d outside 1-60", p.Zone)
		}
		if p.Hemisphere != North && p.Hemisphere != South {
			return fmt.Errorf("utm zone %d: missing hemisphere", p.Zone)
		}
	case KindTMerc:
		if p.ScaleFactor <= 0 {
			return fmt.Errorf("tmerc: scale factor must be positive, got %v", p.ScaleFactor)
		}
		if math.Abs(p.LatOrigin) >= 90 || math.Abs(p.CentralMeridian) > 180 {
			return fmt.Errorf("tmerc: origin (%v, %v) out of range", p.LatOrigin, p.CentralMeridian)
		}
	default:
		return fmt.Errorf("unsupported projection kind %q", p.Kind)
	}
	return nil
}

// RegionKind tags the variant held by a Region.
type RegionKind uint8

const (
	// RegionAny matches every coordinate. Used by synthesized UTM descriptors.
	RegionAny RegionKind = iota
	// RegionBox matches a closed latitude/longitude box.
	RegionBox
	// RegionZoneBand matches a box restricted to one UTM zone's longitude
	// band, with the same east-edge rule as UTMZone.
	RegionZoneBand
)

func (k RegionKind) String() string {
	switch k {
	case RegionAny:
		return "any"
	case RegionBox:
		return "box"
	case RegionZoneBand:
		return "zone_band"
	}
	return fmt.Sprintf("RegionKind(%d)", uint8(k))
}

// Region is the validity predicate of a Descriptor.
type Region struct {
	Kind  RegionKind
	Name  string
	Bound orb.Bound // x = longitude, y = latitude
	Zone  int       // RegionZoneBand only
}

// AnyRegion returns a predicate that matches everything.
func AnyRegion(name string) Region {
	return Region{Kind: RegionAny, Name: name}
}

// BoxRegion returns a closed box predicate.
func BoxRegion(name string, minLat, maxLat, minLng, maxLng float64) Region {
	return Region{
		Kind:  RegionBox,
		Name:  name,
		Bound: orb.Bound{Min: orb.Point{minLng, minLat}, Max: orb.Point{maxLng, maxLat}},
	}
}

// ZoneBandRegion returns a box predicate limited to one UTM zone.
func ZoneBandRegion(name string, zone int, minLat, maxLat, minLng, maxLng float64) Region {
	r := BoxRegion(name, minLat, maxLat, minLng, maxLng)
	r.Kind = RegionZoneBand
	r.Zone = zone
	return r
}

// Contains evaluates the predicate.
func (r Region) Contains(c GeographicCoordinate) bool {
	switch r.Kind {
	case RegionAny:
		return true
	case RegionBox:
		return r.Bound.Contains(c.Point())
	case RegionZoneBand:
		return r.Bound.Contains(c.Point()) && zoneForLongitude(c.Longitude) == r.Zone
	}
	return false
}

// Descriptor is a catalog entry describing one projected reference system.
type Descriptor struct {
	ID          string // EPSG-style code, e.g. "EPSG:32717"
	Name        string
	Description string
	Projection  Projection
	Datum       Datum
	Region      Region
	Legacy      bool
	// Explicit systems are never picked by Resolve. They stay reachable
	// through Candidates, Lookup and explicit targets.
	Explicit bool
}

// IsZero reports whether d is the zero Descriptor.
func (d Descriptor) IsZero() bool { return d.ID == "" }

// Synthesized reports whether d is a generic UTM descriptor produced by the
// zone formula rather than a catalog entry.
func (d Descriptor) Synthesized() bool { return d.Region.Kind == RegionAny }

// ZoneString returns "17S" style labels for UTM systems and "" otherwise.
func (d Descriptor) ZoneString() string {
	if d.Projection.Kind != KindUTM {
		return ""
	}
	return fmt.Sprintf("%d%s", d.Projection.Zone, d.Projection.Hemisphere)
}

// Proj4 renders the system as a PROJ definition string.
func (d Descriptor) Proj4() string {
	var b strings.Builder
	p := d.Projection
	switch p.Kind {
	case KindUTM:
		fmt.Fprintf(&b, "+proj=utm +zone=%d", p.Zone)
		if p.Hemisphere == South {
			b.WriteString(" +south")
		}
	case KindTMerc:
		fmt.Fprintf(&b, "+proj=tmerc +lat_0=%s +lon_0=%s +k=%s +x_0=%s +y_0=%s",
			fmtFloat(p.LatOrigin), fmtFloat(p.CentralMeridian), fmtFloat(p.ScaleFactor),
			fmtFloat(p.FalseEasting), fmtFloat(p.FalseNorthing))
	}
	if d.Datum.IsWGS84() {
		b.WriteString(" +datum=WGS84")
	} else {
		fmt.Fprintf(&b, " +ellps=%s", d.Datum.Ellipsoid.Name)
		params := d.Datum.ToWGS84.Params()
		if len(params) == 3 && d.Datum.ToWGS84.IsZero() {
			params = []float64{0, 0, 0, 0, 0, 0, 0}
		}
		parts := make([]string, len(params))
		for i, v := range params {
			parts[i] = fmtFloat(v)
		}
		fmt.Fprintf(&b, " +towgs84=%s", strings.Join(parts, ","))
	}
	b.WriteString(" +units=m +no_defs")
	return b.String()
}

func (d Descriptor) validate() error {
	if d.ID == "" {
		return fmt.Errorf("descriptor %q: empty id", d.Name)
	}
	if err := d.Projection.validate(); err != nil {
		return fmt.Errorf("descriptor %s: %w", d.ID, err)
	}
	if d.Datum.Ellipsoid.A <= 0 || d.Datum.Ellipsoid.InvF <= 1 {
		return fmt.Errorf("descriptor %s: invalid ellipsoid %+v", d.ID, d.Datum.Ellipsoid)
	}
	if d.Region.Kind == RegionZoneBand && (d.Region.Zone < 1 || d.Region.Zone > 60) {
		return fmt.Errorf("descriptor %s: region zone %d outside 1-60", d.ID, d.Region.Zone)
	}
	return nil
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// round rounds v to the given number of decimals and folds negative zero.
func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0
	}
	return r
}

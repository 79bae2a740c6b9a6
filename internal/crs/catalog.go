package crs

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
)

// Ecuador mainland extent used by the national systems.
const (
	ecuadorMinLat, ecuadorMaxLat = -5.0, 1.5
	ecuadorMinLng, ecuadorMaxLng = -81.5, -75.0
)

// PSAD56 is the Provisional South American Datum 1956 as used by the IGM of
// Ecuador before the WGS 84 adoption.
var PSAD56 = Datum{
	Name:      "PSAD56",
	Ellipsoid: Intl1924,
	ToWGS84:   DatumShift{DX: -307, DY: 53, DZ: -318},
}

// MAGNASIRGAS is the Colombian realisation of SIRGAS on GRS80.
var MAGNASIRGAS = Datum{
	Name:      "MAGNA-SIRGAS",
	Ellipsoid: GRS80Ellipsoid,
}

// builtinDescriptors lists the regional systems in priority order: the most
// specific region comes first.
func builtinDescriptors() []Descriptor {
	return []Descriptor{
		{
			ID:          "EPSG:32715",
			Name:        "WGS 84 / UTM zone 15S",
			Description: "UTM zone 15 south, Galápagos Islands",
			Projection:  UTMProjection(15, South),
			Datum:       WGS84,
			Region:      BoxRegion("Galápagos", -1.5, 0.7, -92.0, -89.0),
		},
		{
			ID:          "EPSG:32717",
			Name:        "WGS 84 / UTM zone 17S",
			Description: "UTM zone 17 south, western mainland Ecuador",
			Projection:  UTMProjection(17, South),
			Datum:       WGS84,
			Region:      ZoneBandRegion("Ecuador", 17, ecuadorMinLat, ecuadorMaxLat, ecuadorMinLng, ecuadorMaxLng),
		},
		{
			ID:          "EPSG:32718",
			Name:        "WGS 84 / UTM zone 18S",
			Description: "UTM zone 18 south, eastern mainland Ecuador",
			Projection:  UTMProjection(18, South),
			Datum:       WGS84,
			Region:      ZoneBandRegion("Ecuador", 18, ecuadorMinLat, ecuadorMaxLat, ecuadorMinLng, ecuadorMaxLng),
		},
		{
			ID:          "EPSG:24817",
			Name:        "PSAD56 / UTM zone 17S",
			Description: "PSAD56 UTM zone 17 south, historical Ecuador system",
			Projection:  UTMProjection(17, South),
			Datum:       PSAD56,
			Region:      ZoneBandRegion("Ecuador (historical)", 17, ecuadorMinLat, ecuadorMaxLat, ecuadorMinLng, ecuadorMaxLng),
			Legacy:      true,
		},
		{
			ID:          "EPSG:24818",
			Name:        "PSAD56 / UTM zone 18S",
			Description: "PSAD56 UTM zone 18 south, historical Ecuador system",
			Projection:  UTMProjection(18, South),
			Datum:       PSAD56,
			Region:      ZoneBandRegion("Ecuador (historical)", 18, ecuadorMinLat, ecuadorMaxLat, ecuadorMinLng, ecuadorMaxLng),
			Legacy:      true,
		},
		{
			ID:          "EPSG:3116",
			Name:        "MAGNA-SIRGAS / Colombia Bogota zone",
			Description: "Colombian national system, Bogotá zone",
			Projection: Projection{
				Kind:            KindTMerc,
				LatOrigin:       4.596200416666666,
				CentralMeridian: -74.07750791666666,
				ScaleFactor:     1,
				FalseEasting:    1000000,
				FalseNorthing:   1000000,
			},
			Datum:    MAGNASIRGAS,
			Region:   BoxRegion("Colombia", -4.3, 13.5, -75.6, -72.6),
			Explicit: true,
		},
	}
}

// Catalog is an immutable, ordered set of descriptors. Order is resolution
// priority.
type Catalog struct {
	entries []Descriptor
	byID    map[string]int
}

// NewCatalog validates entries and builds a catalog. IDs must be unique and
// must not use the generic UTM region kind.
func NewCatalog(entries ...Descriptor) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Descriptor, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	copy(c.entries, entries)
	for i, d := range c.entries {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if d.Region.Kind == RegionAny {
			return nil, fmt.Errorf("descriptor %s: catalog entries need a bounded region", d.ID)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate reference system id %q", d.ID)
		}
		c.byID[d.ID] = i
	}
	return c, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := NewCatalog(builtinDescriptors()...)
	if err != nil {
		panic(fmt.Sprintf("crs: invalid built-in catalog: %v", err))
	}
	return c
})

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog { return defaultCatalog() }

// Extend returns a new catalog with extra evaluated ahead of c's entries.
func (c *Catalog) Extend(extra ...Descriptor) (*Catalog, error) {
	all := make([]Descriptor, 0, len(extra)+len(c.entries))
	all = append(all, extra...)
	all = append(all, c.entries...)
	return NewCatalog(all...)
}

// Len returns the number of catalogued systems.
func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns a copy of the descriptors in priority order.
func (c *Catalog) Entries() []Descriptor {
	out := make([]Descriptor, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup finds a system by id. Catalogued entries win; any generic WGS 84
// UTM code (EPSG:326zz / EPSG:327zz) is synthesized on demand.
func (c *Catalog) Lookup(id string) (Descriptor, bool) {
	id = normalizeID(id)
	if i, ok := c.byID[id]; ok {
		return c.entries[i], true
	}
	zone, h, ok := utmZoneFromID(id)
	if !ok {
		return Descriptor{}, false
	}
	return GenericUTM(zone, h), true
}

// Region returns the entries whose region name contains name
// (case-insensitive).
func (c *Catalog) Region(name string) []Descriptor {
	needle := strings.ToLower(name)
	var out []Descriptor
	for _, d := range c.entries {
		if strings.Contains(strings.ToLower(d.Region.Name), needle) {
			out = append(out, d)
		}
	}
	return out
}

// match returns every entry whose predicate holds, in priority order.
func (c *Catalog) match(coord GeographicCoordinate) []Descriptor {
	var out []Descriptor
	for _, d := range c.entries {
		if d.Region.Contains(coord) {
			out = append(out, d)
		}
	}
	return out
}

// UTMZone returns the UTM zone and hemisphere of coord by formula. The west
// edge of each zone is inclusive, so -180 is zone 1 and a longitude on a
// zone boundary belongs to the eastern zone.
func UTMZone(coord GeographicCoordinate) (int, Hemisphere) {
	h := North
	if coord.Latitude < 0 {
		h = South
	}
	return zoneForLongitude(coord.Longitude), h
}

func zoneForLongitude(lng float64) int {
	zone := int(math.Floor((lng+180)/6)) + 1
	if zone < 1 {
		return 1
	}
	if zone > 60 {
		return 60
	}
	return zone
}

// GenericUTM synthesizes the WGS 84 UTM descriptor for a zone.
func GenericUTM(zone int, h Hemisphere) Descriptor {
	half := "north"
	if h == South {
		half = "south"
	}
	return Descriptor{
		ID:          utmID(zone, h),
		Name:        fmt.Sprintf("WGS 84 / UTM zone %d%s", zone, h),
		Description: fmt.Sprintf("UTM zone %d %s", zone, half),
		Projection:  UTMProjection(zone, h),
		Datum:       WGS84,
		Region:      AnyRegion("UTM"),
	}
}

func utmID(zone int, h Hemisphere) string {
	base := 32600
	if h == South {
		base = 32700
	}
	return "EPSG:" + strconv.Itoa(base+zone)
}

func utmZoneFromID(id string) (int, Hemisphere, bool) {
	code, err := strconv.Atoi(strings.TrimPrefix(id, "EPSG:"))
	if err != nil {
		return 0, 0, false
	}
	switch {
	case code >= 32601 && code <= 32660:
		return code - 32600, North, true
	case code >= 32701 && code <= 32760:
		return code - 32700, South, true
	}
	return 0, 0, false
}

// normalizeID accepts "epsg:32717", "EPSG:32717" and a bare "32717".
func normalizeID(id string) string {
	id = strings.TrimSpace(id)
	upper := strings.ToUpper(id)
	if strings.HasPrefix(upper, "EPSG:") {
		return "EPSG:" + id[5:]
	}
	if _, err := strconv.Atoi(id); err == nil {
		return "EPSG:" + id
	}
	return id
}

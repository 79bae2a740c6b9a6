package crs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML document accepted by LoadCatalog:
//
//	systems:
//	  - id: EPSG:31992
//	    name: PSAD56 / UTM zone 17S (custom)
//	    projection: {kind: utm, zone: 17, hemisphere: S}
//	    datum: {name: PSAD56, ellipsoid: intl, towgs84: [-307, 53, -318]}
//	    region: {name: Ecuador, kind: zone_band, zone: 17, min_lat: -5, max_lat: 1.5, min_lng: -81.5, max_lng: -75}
//	    legacy: true
type catalogFile struct {
	Systems []systemDTO `yaml:"systems"`
}

type systemDTO struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Projection  projectionDTO `yaml:"projection"`
	Datum       datumDTO      `yaml:"datum"`
	Region      regionDTO     `yaml:"region"`
	Legacy      bool          `yaml:"legacy"`
	Explicit    bool          `yaml:"explicit"`
}

type projectionDTO struct {
	Kind            string  `yaml:"kind"`
	Zone            int     `yaml:"zone"`
	Hemisphere      string  `yaml:"hemisphere"`
	LatOrigin       float64 `yaml:"lat_0"`
	CentralMeridian float64 `yaml:"lon_0"`
	ScaleFactor     float64 `yaml:"k"`
	FalseEasting    float64 `yaml:"x_0"`
	FalseNorthing   float64 `yaml:"y_0"`
}

type datumDTO struct {
	Name      string    `yaml:"name"`
	Ellipsoid string    `yaml:"ellipsoid"`
	A         float64   `yaml:"a"`
	InvF      float64   `yaml:"inv_f"`
	ToWGS84   []float64 `yaml:"towgs84"`
}

type regionDTO struct {
	Name   string  `yaml:"name"`
	Kind   string  `yaml:"kind"`
	Zone   int     `yaml:"zone"`
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLng float64 `yaml:"min_lng"`
	MaxLng float64 `yaml:"max_lng"`
}

var namedEllipsoids = map[string]Ellipsoid{
	"wgs84": WGS84Ellipsoid,
	"grs80": GRS80Ellipsoid,
	"intl":  Intl1924,
}

// LoadCatalog decodes descriptors from a YAML catalog document.
func LoadCatalog(r io.Reader) ([]Descriptor, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc catalogFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	out := make([]Descriptor, 0, len(doc.Systems))
	for i, s := range doc.Systems {
		d, err := s.toDescriptor()
		if err != nil {
			return nil, fmt.Errorf("systems[%d]: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// LoadCatalogFile reads a YAML catalog and returns the built-in catalog
// extended with its systems, which take priority over the built-ins.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	extra, err := LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cat, err := DefaultCatalog().Extend(extra...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

func (s systemDTO) toDescriptor() (Descriptor, error) {
	proj, err := s.Projection.toProjection()
	if err != nil {
		return Descriptor{}, err
	}
	datum, err := s.Datum.toDatum()
	if err != nil {
		return Descriptor{}, err
	}
	region, err := s.Region.toRegion()
	if err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{
		ID:          normalizeID(s.ID),
		Name:        s.Name,
		Description: s.Description,
		Projection:  proj,
		Datum:       datum,
		Region:      region,
		Legacy:      s.Legacy,
		Explicit:    s.Explicit,
	}
	return d, d.validate()
}

func (p projectionDTO) toProjection() (Projection, error) {
	switch strings.ToLower(p.Kind) {
	case "utm", "":
		h, err := ParseHemisphere(p.Hemisphere)
		if err != nil {
			return Projection{}, err
		}
		return UTMProjection(p.Zone, h), nil
	case "tmerc":
		k := p.ScaleFactor
		if k == 0 {
			k = 1
		}
		return Projection{
			Kind:            KindTMerc,
			LatOrigin:       p.LatOrigin,
			CentralMeridian: p.CentralMeridian,
			ScaleFactor:     k,
			FalseEasting:    p.FalseEasting,
			FalseNorthing:   p.FalseNorthing,
		}, nil
	}
	return Projection{}, fmt.Errorf("unsupported projection kind %q", p.Kind)
}

func (d datumDTO) toDatum() (Datum, error) {
	ell := WGS84Ellipsoid
	if d.Ellipsoid != "" {
		named, ok := namedEllipsoids[strings.ToLower(d.Ellipsoid)]
		if !ok && d.A == 0 {
			return Datum{}, fmt.Errorf("unknown ellipsoid %q", d.Ellipsoid)
		}
		if ok {
			ell = named
		}
	}
	if d.A != 0 || d.InvF != 0 {
		ell = Ellipsoid{Name: d.Ellipsoid, A: d.A, InvF: d.InvF}
	}

	var shift DatumShift
	switch len(d.ToWGS84) {
	case 0:
	case 3:
		shift = DatumShift{DX: d.ToWGS84[0], DY: d.ToWGS84[1], DZ: d.ToWGS84[2]}
	case 7:
		t := d.ToWGS84
		shift = DatumShift{DX: t[0], DY: t[1], DZ: t[2], RX: t[3], RY: t[4], RZ: t[5], Scale: t[6]}
	default:
		return Datum{}, fmt.Errorf("towgs84 needs 3 or 7 values, got %d", len(d.ToWGS84))
	}

	name := d.Name
	if name == "" {
		name = ell.Name
	}
	return Datum{Name: name, Ellipsoid: ell, ToWGS84: shift}, nil
}

func (r regionDTO) toRegion() (Region, error) {
	if r.MinLat > r.MaxLat || r.MinLng > r.MaxLng {
		return Region{}, fmt.Errorf("region %q: min exceeds max", r.Name)
	}
	switch strings.ToLower(r.Kind) {
	case "box", "":
		return BoxRegion(r.Name, r.MinLat, r.MaxLat, r.MinLng, r.MaxLng), nil
	case "zone_band":
		return ZoneBandRegion(r.Name, r.Zone, r.MinLat, r.MaxLat, r.MinLng, r.MaxLng), nil
	}
	return Region{}, fmt.Errorf("region %q: unsupported kind %q", r.Name, r.Kind)
}

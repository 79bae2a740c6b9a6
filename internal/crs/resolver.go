package crs

import (
	"math"
	"sync/atomic"
)

// Resolver selects reference systems and transforms coordinates against a
// catalog snapshot. The snapshot can be replaced with SetCatalog; concurrent
// callers observe either the previous or the new catalog, never a mix.
type Resolver struct {
	catalog atomic.Pointer[Catalog]
}

// NewResolver returns a resolver over cat, or the built-in catalog when cat
// is nil.
func NewResolver(cat *Catalog) *Resolver {
	if cat == nil {
		cat = DefaultCatalog()
	}
	r := &Resolver{}
	r.catalog.Store(cat)
	return r
}

// Catalog returns the current snapshot.
func (r *Resolver) Catalog() *Catalog { return r.catalog.Load() }

// SetCatalog atomically publishes a new snapshot.
func (r *Resolver) SetCatalog(cat *Catalog) {
	if cat == nil {
		cat = DefaultCatalog()
	}
	r.catalog.Store(cat)
}

// Resolve returns the most appropriate system for coord: the first matching
// non-legacy catalog entry, else the first matching legacy entry, else the
// generic UTM zone. Explicit entries are never chosen here.
func (r *Resolver) Resolve(coord GeographicCoordinate) (Descriptor, error) {
	if err := coord.Validate(); err != nil {
		return Descriptor{}, err
	}
	return resolve(r.Catalog(), coord), nil
}

func resolve(cat *Catalog, coord GeographicCoordinate) Descriptor {
	var legacy *Descriptor
	for i := range cat.entries {
		d := &cat.entries[i]
		if d.Explicit || !d.Region.Contains(coord) {
			continue
		}
		if !d.Legacy {
			return *d
		}
		if legacy == nil {
			legacy = d
		}
	}
	if legacy != nil {
		return *legacy
	}
	return GenericUTM(UTMZone(coord))
}

// Candidates lists every system applicable at coord in priority order,
// legacy entries included, ending with the generic UTM zone.
func (r *Resolver) Candidates(coord GeographicCoordinate) ([]Descriptor, error) {
	if err := coord.Validate(); err != nil {
		return nil, err
	}
	out := r.Catalog().match(coord)
	return append(out, GenericUTM(UTMZone(coord))), nil
}

// Lookup finds a system by id in the current catalog.
func (r *Resolver) Lookup(id string) (Descriptor, error) {
	d, ok := r.Catalog().Lookup(id)
	if !ok {
		return Descriptor{}, &UnknownSystemError{ID: id}
	}
	return d, nil
}

// Project resolves the system for coord and projects into it.
func (r *Resolver) Project(coord GeographicCoordinate) (ProjectedCoordinate, error) {
	d, err := r.Resolve(coord)
	if err != nil {
		return ProjectedCoordinate{}, err
	}
	return ProjectTo(coord, d)
}

// ProjectTo projects coord into target. Easting and northing are rounded to
// ProjectedDecimals.
func ProjectTo(coord GeographicCoordinate, target Descriptor) (ProjectedCoordinate, error) {
	if err := coord.Validate(); err != nil {
		return ProjectedCoordinate{}, err
	}
	fail := func(err error) (ProjectedCoordinate, error) {
		return ProjectedCoordinate{}, &TransformError{Op: "project", SystemID: target.ID, Reason: err.Error()}
	}
	if err := target.validate(); err != nil {
		return fail(err)
	}
	if math.Abs(coord.Latitude) == 90 {
		return fail(errAtPole)
	}

	x, y, err := forward(target, coord.Latitude, coord.Longitude)
	if err != nil {
		return fail(err)
	}
	return ProjectedCoordinate{
		Easting:  round(x, ProjectedDecimals),
		Northing: round(y, ProjectedDecimals),
		SystemID: target.ID,
	}, nil
}

// Unproject converts p back to WGS 84. Latitude and longitude are rounded to
// GeographicDecimals.
//
// Unproject(Project(c)) returns c within 1e-6 degrees for latitudes in
// [-80, 84], the band UTM is defined for. Nearer the poles the centimetre
// rounding of Project alone can move the longitude by more than that.
func (r *Resolver) Unproject(p ProjectedCoordinate) (GeographicCoordinate, error) {
	d, err := r.Lookup(p.SystemID)
	if err != nil {
		return GeographicCoordinate{}, err
	}
	return UnprojectFrom(p, d)
}

// UnprojectFrom converts p, interpreted in source, back to WGS 84.
func UnprojectFrom(p ProjectedCoordinate, source Descriptor) (GeographicCoordinate, error) {
	fail := func(err error) (GeographicCoordinate, error) {
		return GeographicCoordinate{}, &TransformError{Op: "unproject", SystemID: source.ID, Reason: err.Error()}
	}
	if err := source.validate(); err != nil {
		return fail(err)
	}
	lat, lon, err := inverse(source, p.Easting, p.Northing)
	if err != nil {
		return fail(err)
	}
	out := GeographicCoordinate{
		Latitude:  round(lat, GeographicDecimals),
		Longitude: round(normalizeDegrees(lon), GeographicDecimals),
	}
	if err := out.Validate(); err != nil {
		return fail(err)
	}
	return out, nil
}

// Convert re-projects p into the system identified by targetID.
func (r *Resolver) Convert(p ProjectedCoordinate, targetID string) (ProjectedCoordinate, error) {
	target, err := r.Lookup(targetID)
	if err != nil {
		return ProjectedCoordinate{}, err
	}
	geo, err := r.Unproject(p)
	if err != nil {
		return ProjectedCoordinate{}, err
	}
	return ProjectTo(geo, target)
}

func normalizeDegrees(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

var defaultResolver = NewResolver(nil)

// Default returns the process-wide resolver over the built-in catalog.
func Default() *Resolver { return defaultResolver }

// Resolve uses the default resolver.
func Resolve(coord GeographicCoordinate) (Descriptor, error) {
	return defaultResolver.Resolve(coord)
}

// Project uses the default resolver.
func Project(coord GeographicCoordinate) (ProjectedCoordinate, error) {
	return defaultResolver.Project(coord)
}

// Unproject uses the default resolver.
func Unproject(p ProjectedCoordinate) (GeographicCoordinate, error) {
	return defaultResolver.Unproject(p)
}

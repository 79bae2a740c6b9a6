package service

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joeblew999/geovisor/internal/crs"
	"github.com/joeblew999/geovisor/internal/metrics"
)

// ConversionService resolves reference systems and converts coordinates.
// Errors keep their crs kind so callers can map them with crs.KindOf.
type ConversionService struct {
	resolver    *crs.Resolver
	catalogPath string
	bus         *EventBus
	logger      *slog.Logger
}

// NewConversionService creates a conversion service. catalogPath may be empty,
// in which case only the built-in catalog is used.
func NewConversionService(resolver *crs.Resolver, catalogPath string, bus *EventBus, logger *slog.Logger) *ConversionService {
	if resolver == nil {
		resolver = crs.NewResolver(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	metrics.CatalogSize.Set(float64(resolver.Catalog().Len()))
	return &ConversionService{
		resolver:    resolver,
		catalogPath: catalogPath,
		bus:         bus,
		logger:      logger,
	}
}

// Resolver returns the underlying resolver.
func (s *ConversionService) Resolver() *crs.Resolver { return s.resolver }

// ReloadCatalog re-reads the catalog file and publishes it atomically.
// Without a catalog file the built-in catalog is restored.
func (s *ConversionService) ReloadCatalog() (int, error) {
	cat := crs.DefaultCatalog()
	if s.catalogPath != "" {
		loaded, err := crs.LoadCatalogFile(s.catalogPath)
		if err != nil {
			s.logger.Error("catalog reload failed", "path", s.catalogPath, "error", err)
			return 0, err
		}
		cat = loaded
	}
	s.resolver.SetCatalog(cat)
	metrics.CatalogSize.Set(float64(cat.Len()))
	s.logger.Info("catalog loaded", "path", s.catalogPath, "systems", cat.Len())
	if s.bus != nil {
		s.bus.Publish(Event{Resource: "catalog", Action: "reloaded", ID: s.catalogPath})
	}
	return cat.Len(), nil
}

// Systems lists the catalogued systems, optionally filtered by region name.
func (s *ConversionService) Systems(region string) []SystemInfo {
	cat := s.resolver.Catalog()
	entries := cat.Entries()
	if region != "" {
		entries = cat.Region(region)
	}
	out := make([]SystemInfo, 0, len(entries))
	for _, d := range entries {
		out = append(out, NewSystemInfo(d))
	}
	return out
}

// System looks up one system by id, including generic UTM codes.
func (s *ConversionService) System(id string) (SystemInfo, error) {
	d, err := s.resolver.Lookup(id)
	if err != nil {
		return SystemInfo{}, err
	}
	return NewSystemInfo(d), nil
}

// Resolve picks the reference system for c and lists the alternatives.
func (s *ConversionService) Resolve(c Coordinate) (res Resolution, err error) {
	defer s.observe("resolve", time.Now(), &err)

	d, err := s.resolver.Resolve(c.geographic())
	if err != nil {
		return Resolution{}, err
	}
	candidates, err := s.resolver.Candidates(c.geographic())
	if err != nil {
		return Resolution{}, err
	}
	metrics.ObserveResolved(d.ID, d.Synthesized())

	res = Resolution{
		Coordinate: c,
		System:     NewSystemInfo(d),
		Candidates: make([]SystemInfo, 0, len(candidates)),
	}
	for _, cd := range candidates {
		res.Candidates = append(res.Candidates, NewSystemInfo(cd))
	}
	return res, nil
}

// Project converts c into system, or into the resolved system when system is
// empty.
func (s *ConversionService) Project(c Coordinate, system string) (res ProjectionResult, err error) {
	defer s.observe("project", time.Now(), &err)

	geo := c.geographic()
	var d crs.Descriptor
	if strings.TrimSpace(system) == "" {
		d, err = s.resolver.Resolve(geo)
		if err == nil {
			metrics.ObserveResolved(d.ID, d.Synthesized())
		}
	} else {
		d, err = s.resolver.Lookup(system)
	}
	if err != nil {
		return ProjectionResult{}, err
	}

	p, err := crs.ProjectTo(geo, d)
	if err != nil {
		return ProjectionResult{}, err
	}
	s.logger.Debug("projected", "lat", c.Lat, "lng", c.Lng, "epsg", p.SystemID,
		"easting", p.Easting, "northing", p.Northing)

	return ProjectionResult{
		Projected:  projectedOf(p),
		Coordinate: c,
		Zone:       d.ZoneString(),
		SystemName: d.Name,
		DMS:        crs.FormatDMS(geo),
	}, nil
}

// Unproject converts p back to WGS 84.
func (s *ConversionService) Unproject(p Projected) (res UnprojectionResult, err error) {
	defer s.observe("unproject", time.Now(), &err)

	g, err := s.resolver.Unproject(p.projected())
	if err != nil {
		return UnprojectionResult{}, err
	}
	d, _ := s.resolver.Lookup(p.System)
	return UnprojectionResult{
		Coordinate: coordinateOf(g),
		DMS:        crs.FormatDMS(g),
		System:     d.ID,
	}, nil
}

// Convert re-projects p into the target system.
func (s *ConversionService) Convert(p Projected, target string) (out Projected, err error) {
	defer s.observe("convert", time.Now(), &err)

	q, err := s.resolver.Convert(p.projected(), target)
	if err != nil {
		return Projected{}, err
	}
	return projectedOf(q), nil
}

// FormatDMS renders c in degrees, minutes and seconds.
func (s *ConversionService) FormatDMS(c Coordinate) (text string, err error) {
	defer s.observe("format_dms", time.Now(), &err)

	g := c.geographic()
	if err := g.Validate(); err != nil {
		return "", err
	}
	return crs.FormatDMS(g), nil
}

// ParseDMS parses degrees, minutes and seconds text.
func (s *ConversionService) ParseDMS(text string) (c Coordinate, err error) {
	defer s.observe("parse_dms", time.Now(), &err)

	g, err := crs.ParseDMS(text)
	if err != nil {
		return Coordinate{}, err
	}
	return coordinateOf(g), nil
}

// Readout builds the cursor readout for c in system, or in the resolved
// system when system is empty.
func (s *ConversionService) Readout(c Coordinate, system string) (Readout, error) {
	res, err := s.Project(c, system)
	if err != nil {
		return Readout{}, err
	}
	d, _ := s.resolver.Lookup(res.Projected.System)
	return Readout{
		DMS:      res.DMS,
		Zone:     res.Zone,
		EPSG:     res.Projected.System,
		System:   res.SystemName,
		Easting:  fmt.Sprintf("%.2f", res.Projected.Easting),
		Northing: fmt.Sprintf("%.2f", res.Projected.Northing),
		Legacy:   d.Legacy,
	}, nil
}

func (s *ConversionService) observe(op string, start time.Time, errp *error) {
	kind := crs.KindOf(*errp)
	metrics.ObserveOperation(op, string(kind), start)
	if kind != crs.KindNone {
		s.logger.Debug("coordinate operation failed", "op", op, "kind", kind, "error", *errp)
	}
}

package crs

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestResolveRegional(t *testing.T) {
	tests := []struct {
		name   string
		coord  GeographicCoordinate
		wantID string
		region string
	}{
		{"quito is ecuador west", LatLng(-0.1807, -78.4678), "EPSG:32717", "Ecuador"},
		{"inside ecuador west", LatLng(-1, -79), "EPSG:32717", "Ecuador"},
		{"ecuador zone boundary goes east", LatLng(-1, -78), "EPSG:32718", "Ecuador"},
		{"amazon ecuador east", LatLng(-0.98, -77.81), "EPSG:32718", "Ecuador"},
		{"santa cruz galapagos", LatLng(-0.7436, -90.3126), "EPSG:32715", "Galápagos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Resolve(tt.coord)
			if err != nil {
				t.Fatal(err)
			}
			if d.ID != tt.wantID {
				t.Fatalf("id=%s, want %s", d.ID, tt.wantID)
			}
			if d.Synthesized() {
				t.Fatalf("got generic descriptor, want the %s catalog entry", tt.region)
			}
			if d.Region.Name != tt.region {
				t.Fatalf("region=%q, want %q", d.Region.Name, tt.region)
			}
			if d.Legacy {
				t.Fatal("resolved a legacy system while a modern one matches")
			}
			if !d.Region.Contains(tt.coord) {
				t.Fatal("resolved descriptor's region does not contain the coordinate")
			}
		})
	}
}

func TestResolveGenericUTM(t *testing.T) {
	tests := []struct {
		name   string
		coord  GeographicCoordinate
		wantID string
		zone   int
		hemi   Hemisphere
	}{
		{"antimeridian west edge", LatLng(0, -180), "EPSG:32601", 1, North},
		{"antimeridian east edge clamps", LatLng(0, 180), "EPSG:32660", 60, North},
		{"boundary belongs to east zone", LatLng(10, -78), "EPSG:32618", 18, North},
		{"just west of boundary", LatLng(10, -78.000001), "EPSG:32617", 17, North},
		{"equator is north", LatLng(0, 3), "EPSG:32631", 31, North},
		{"madrid", LatLng(40.4168, -3.7038), "EPSG:32630", 30, North},
		{"sydney", LatLng(-33.8688, 151.2093), "EPSG:32756", 56, South},
		{"lima uses formula", LatLng(-12.0464, -77.0428), "EPSG:32718", 18, South},
		{"south pole", LatLng(-90, 0), "EPSG:32731", 31, South},
		{"iquitos peru", LatLng(-3.7437, -73.2516), "EPSG:32718", 18, South},
		{"pucallpa peru", LatLng(-8.3791, -74.5539), "EPSG:32718", 18, South},
		{"bogota", LatLng(4.711, -74.0721), "EPSG:32618", 18, North},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Resolve(tt.coord)
			if err != nil {
				t.Fatal(err)
			}
			if !d.Synthesized() {
				t.Fatalf("got catalog entry %s (%s), want generic", d.ID, d.Region.Name)
			}
			if d.ID != tt.wantID {
				t.Fatalf("id=%s, want %s", d.ID, tt.wantID)
			}
			if d.Projection.Zone != tt.zone || d.Projection.Hemisphere != tt.hemi {
				t.Fatalf("zone=%s, want %d%s", d.ZoneString(), tt.zone, tt.hemi)
			}
		})
	}
}

func TestResolveOutOfRange(t *testing.T) {
	bad := []GeographicCoordinate{
		LatLng(90.0001, 0),
		LatLng(-91, 0),
		LatLng(0, 180.5),
		LatLng(0, -181),
		LatLng(math.NaN(), 0),
	}
	for _, c := range bad {
		_, err := Resolve(c)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Resolve(%v) err=%v, want ErrOutOfRange", c, err)
		}
		var re *RangeError
		if !errors.As(err, &re) {
			t.Errorf("Resolve(%v) err=%T, want *RangeError", c, err)
		}
	}
}

func TestResolveLegacyOnlyMatch(t *testing.T) {
	legacyOnly, err := NewCatalog(
		Descriptor{
			ID:         "EPSG:24817",
			Name:       "PSAD56 / UTM zone 17S",
			Projection: UTMProjection(17, South),
			Datum:      PSAD56,
			Region:     BoxRegion("Ecuador (historical)", -5, 1.5, -81.5, -75),
			Legacy:     true,
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver(legacyOnly)

	d, err := r.Resolve(LatLng(-1, -79))
	if err != nil {
		t.Fatal(err)
	}
	if d.ID != "EPSG:24817" || !d.Legacy {
		t.Fatalf("got %s legacy=%v, want the legacy entry", d.ID, d.Legacy)
	}

	d, err = r.Resolve(LatLng(40, -3))
	if err != nil {
		t.Fatal(err)
	}
	if !d.Synthesized() {
		t.Fatalf("got %s outside the legacy region, want generic UTM", d.ID)
	}
}

func TestCandidates(t *testing.T) {
	got, err := Default().Candidates(LatLng(-1, -79))
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, d := range got {
		ids = append(ids, d.ID)
	}
	want := []string{"EPSG:32717", "EPSG:24817", "EPSG:32717"}
	if len(ids) != len(want) {
		t.Fatalf("candidates=%v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("candidates=%v, want %v", ids, want)
		}
	}
	if !got[len(got)-1].Synthesized() {
		t.Fatal("last candidate should be the generic UTM zone")
	}
}

func TestProjectQuito(t *testing.T) {
	p, err := Project(LatLng(-0.1807, -78.4678))
	if err != nil {
		t.Fatal(err)
	}
	if p.SystemID != "EPSG:32717" {
		t.Fatalf("system=%s, want EPSG:32717", p.SystemID)
	}
	// Reference values from an independent (Snyder series) zone 17S transform.
	if math.Abs(p.Easting-781861.46) > 1 || math.Abs(p.Northing-9980007.57) > 1 {
		t.Fatalf("got E=%.2f N=%.2f, want ~781861.46 9980007.57", p.Easting, p.Northing)
	}
	if p.Easting != 781861.46 || p.Northing != 9980007.57 {
		t.Fatalf("got E=%.2f N=%.2f, want exactly 781861.46 9980007.57", p.Easting, p.Northing)
	}
}

func TestProjectKnownPoints(t *testing.T) {
	tests := []struct {
		name  string
		coord GeographicCoordinate
		id    string
		e, n  float64
	}{
		{"galapagos", LatLng(-0.7436, -90.3126), "EPSG:32715", 799125.72, 9917718.72},
		{"madrid", LatLng(40.4168, -3.7038), "EPSG:32630", 440290.46, 4474257.38},
		{"sydney", LatLng(-33.8688, 151.2093), "EPSG:32756", 334368.63, 6250948.35},
		{"antimeridian", LatLng(0, -180), "EPSG:32601", 166021.44, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Project(tt.coord)
			if err != nil {
				t.Fatal(err)
			}
			if p.SystemID != tt.id {
				t.Fatalf("system=%s, want %s", p.SystemID, tt.id)
			}
			if math.Abs(p.Easting-tt.e) > 0.011 || math.Abs(p.Northing-tt.n) > 0.011 {
				t.Fatalf("got %.2f %.2f, want %.2f %.2f", p.Easting, p.Northing, tt.e, tt.n)
			}
		})
	}
}

func TestExplicitSystems(t *testing.T) {
	d, ok := DefaultCatalog().Lookup("EPSG:3116")
	if !ok || !d.Explicit {
		t.Fatalf("EPSG:3116 should be catalogued as explicit, got %+v", d)
	}
	bogota := LatLng(4.711, -74.0721)
	if !d.Region.Contains(bogota) {
		t.Fatal("Colombia region should contain Bogotá")
	}

	cands, err := Default().Candidates(bogota)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 2 || cands[0].ID != "EPSG:3116" || cands[1].ID != "EPSG:32618" {
		t.Fatalf("candidates=%v, want EPSG:3116 then the generic zone", cands)
	}

	p, err := ProjectTo(bogota, d)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p.Easting-1000599.99) > 0.011 || math.Abs(p.Northing-1012694.72) > 0.011 {
		t.Fatalf("got %.2f %.2f, want 1000599.99 1012694.72", p.Easting, p.Northing)
	}

	// An explicit entry alone in a catalog still falls through to UTM.
	only, err := NewCatalog(d)
	if err != nil {
		t.Fatal(err)
	}
	got, err := NewResolver(only).Resolve(bogota)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Synthesized() {
		t.Fatalf("got %s, want generic UTM", got.ID)
	}
}

func TestProjectToColombiaOrigin(t *testing.T) {
	d, ok := DefaultCatalog().Lookup("EPSG:3116")
	if !ok {
		t.Fatal("EPSG:3116 missing from catalog")
	}
	p, err := ProjectTo(LatLng(4.596200416666666, -74.07750791666666), d)
	if err != nil {
		t.Fatal(err)
	}
	if p.Easting != 1000000 || p.Northing != 1000000 {
		t.Fatalf("origin projects to %.2f %.2f, want false origin 1000000 1000000", p.Easting, p.Northing)
	}
}

func TestProjectLegacyDatum(t *testing.T) {
	d, ok := DefaultCatalog().Lookup("EPSG:24817")
	if !ok {
		t.Fatal("EPSG:24817 missing from catalog")
	}
	quito := LatLng(-0.1807, -78.4678)
	p, err := ProjectTo(quito, d)
	if err != nil {
		t.Fatal(err)
	}
	// PSAD56 coordinates of Quito sit a few hundred metres from WGS 84 ones.
	if math.Abs(p.Easting-782162.98) > 0.05 || math.Abs(p.Northing-9980325.28) > 0.05 {
		t.Fatalf("got %.2f %.2f, want ~782162.98 9980325.28", p.Easting, p.Northing)
	}
	back, err := Unproject(p)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(back.Latitude-quito.Latitude) > 1e-6 || math.Abs(back.Longitude-quito.Longitude) > 1e-6 {
		t.Fatalf("round trip %v -> %v", quito, back)
	}
}

func TestProjectPrecisionAndIdempotence(t *testing.T) {
	c := LatLng(-2.170998, -79.922359)
	a, err := Project(c)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Project(c)
	if err != nil {
		t.Fatal(err)
	}
	if math.Float64bits(a.Easting) != math.Float64bits(b.Easting) ||
		math.Float64bits(a.Northing) != math.Float64bits(b.Northing) || a.SystemID != b.SystemID {
		t.Fatalf("non-identical results %+v vs %+v", a, b)
	}
	for _, v := range []float64{a.Easting, a.Northing} {
		if v != math.Round(v*100)/100 {
			t.Fatalf("%v is not rounded to centimetres", v)
		}
	}
}

func TestProjectPoles(t *testing.T) {
	for _, lat := range []float64{90, -90} {
		c := LatLng(lat, 10)
		d, err := Resolve(c)
		if err != nil {
			t.Fatalf("Resolve(%v) should accept the pole: %v", c, err)
		}
		_, err = ProjectTo(c, d)
		if !errors.Is(err, ErrTransform) {
			t.Fatalf("ProjectTo(%v) err=%v, want ErrTransform", c, err)
		}
		_, err = Project(c)
		var te *TransformError
		if !errors.As(err, &te) {
			t.Fatalf("Project(%v) err=%T, want *TransformError", c, err)
		}
	}
}

func TestProjectFarFromCentralMeridian(t *testing.T) {
	_, err := ProjectTo(LatLng(0, 100), GenericUTM(17, South))
	if !errors.Is(err, ErrTransform) {
		t.Fatalf("err=%v, want ErrTransform", err)
	}
}

func TestUnprojectUnknownSystem(t *testing.T) {
	for _, id := range []string{"EPSG:4326", "EPSG:32661", "EPSG:32700", "foo", ""} {
		_, err := Unproject(ProjectedCoordinate{Easting: 500000, Northing: 0, SystemID: id})
		if !errors.Is(err, ErrUnknownSystem) {
			t.Errorf("Unproject(%q) err=%v, want ErrUnknownSystem", id, err)
		}
	}
}

func TestUnprojectNonConvergent(t *testing.T) {
	tests := []ProjectedCoordinate{
		{Easting: math.NaN(), Northing: 0, SystemID: "EPSG:32617"},
		{Easting: 500000, Northing: math.Inf(1), SystemID: "EPSG:32617"},
		{Easting: 500000, Northing: 25000000, SystemID: "EPSG:32617"},
	}
	for _, p := range tests {
		_, err := Unproject(p)
		if !errors.Is(err, ErrTransform) {
			t.Errorf("Unproject(%+v) err=%v, want ErrTransform", p, err)
		}
	}
}

func TestUnprojectGenericCode(t *testing.T) {
	g, err := Unproject(ProjectedCoordinate{Easting: 440290.46, Northing: 4474257.38, SystemID: "epsg:32630"})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(g.Latitude-40.4168) > 1e-6 || math.Abs(g.Longitude+3.7038) > 1e-6 {
		t.Fatalf("got %v, want (40.4168, -3.7038)", g)
	}
}

func TestRoundTrip(t *testing.T) {
	// UTM is defined between 80°S and 84°N; see Unproject.
	for lat := -79.75; lat <= 84; lat += 1.25 {
		for lng := -179.9; lng <= 180; lng += 2.35 {
			c := LatLng(lat, lng)
			p, err := Project(c)
			if err != nil {
				t.Fatalf("Project(%v): %v", c, err)
			}
			d, _ := Default().Lookup(p.SystemID)
			if d.Legacy {
				continue
			}
			back, err := Unproject(p)
			if err != nil {
				t.Fatalf("Unproject(%+v): %v", p, err)
			}
			if math.Abs(back.Latitude-c.Latitude) > 1e-6+1e-9 || math.Abs(back.Longitude-c.Longitude) > 1e-6+1e-9 {
				t.Fatalf("round trip %v -> %+v -> %v", c, p, back)
			}
		}
	}
}

func TestRoundTripCatalogSystems(t *testing.T) {
	points := map[string]GeographicCoordinate{
		"EPSG:32715": LatLng(-0.7436, -90.3126),
		"EPSG:32717": LatLng(-2.170998, -79.922359),
		"EPSG:32718": LatLng(-0.98, -77.81),
		"EPSG:3116":  LatLng(6.2442, -75.5812),
	}
	for id, c := range points {
		d, ok := DefaultCatalog().Lookup(id)
		if !ok {
			t.Fatalf("%s missing", id)
		}
		p, err := ProjectTo(c, d)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		back, err := Unproject(p)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if math.Abs(back.Latitude-c.Latitude) > 1e-6 || math.Abs(back.Longitude-c.Longitude) > 1e-6 {
			t.Fatalf("%s: %v -> %v", id, c, back)
		}
	}
}

func TestConvert(t *testing.T) {
	quito := LatLng(-0.1807, -78.4678)
	p17, err := Project(quito)
	if err != nil {
		t.Fatal(err)
	}
	p18, err := Default().Convert(p17, "EPSG:32718")
	if err != nil {
		t.Fatal(err)
	}
	if p18.SystemID != "EPSG:32718" {
		t.Fatalf("system=%s", p18.SystemID)
	}
	if math.Abs(p18.Easting-113885.19) > 0.05 || math.Abs(p18.Northing-9979990.33) > 0.05 {
		t.Fatalf("got %.2f %.2f, want ~113885.19 9979990.33", p18.Easting, p18.Northing)
	}

	if _, err := Default().Convert(p17, "EPSG:9999"); !errors.Is(err, ErrUnknownSystem) {
		t.Fatalf("err=%v, want ErrUnknownSystem", err)
	}
}

func TestSetCatalogConcurrent(t *testing.T) {
	extended, err := DefaultCatalog().Extend(Descriptor{
		ID:         "EPSG:32619",
		Name:       "WGS 84 / UTM zone 19S (test)",
		Projection: UTMProjection(19, South),
		Datum:      WGS84,
		Region:     BoxRegion("Test", -1.1, -0.9, -79.1, -78.9),
	})
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver(nil)
	c := LatLng(-1, -79)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				d, err := r.Resolve(c)
				if err != nil {
					t.Error(err)
					return
				}
				if d.ID != "EPSG:32717" && d.ID != "EPSG:32619" {
					t.Errorf("unexpected system %s", d.ID)
					return
				}
			}
		}()
	}
	for i := 0; i < 100; i++ {
		if i%2 == 0 {
			r.SetCatalog(extended)
		} else {
			r.SetCatalog(nil)
		}
	}
	wg.Wait()

	r.SetCatalog(extended)
	d, err := r.Resolve(c)
	if err != nil {
		t.Fatal(err)
	}
	if d.ID != "EPSG:32619" {
		t.Fatalf("extension entries should take priority, got %s", d.ID)
	}
}

package crs

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/pebbe/proj/v5"
)

var (
	errAtPole        = errors.New("transverse mercator is undefined at the poles")
	errFarFromCM     = errors.New("point is 90 degrees or more from the central meridian")
	errNotFinite     = errors.New("non-finite value")
	errOutsideDomain = errors.New("position lies outside the projection domain")
)

// domainTolerance is how far, in metres, an inverse result may land from
// its input when projected forward again.
const domainTolerance = 0.01

// Pipeline returns the PROJ pipeline taking WGS 84 longitude/latitude in
// degrees to easting/northing in d. Datums with a towgs84 shift go through
// geocentric coordinates and an inverted Helmert step.
func (d Descriptor) Pipeline() string {
	var b strings.Builder
	b.WriteString("+proj=pipeline +step +proj=unitconvert +xy_in=deg +xy_out=rad")

	ell := d.Datum.Ellipsoid
	if !d.Datum.IsWGS84() {
		b.WriteString(" +step +proj=cart +ellps=WGS84")
		if s := d.Datum.ToWGS84; !s.IsZero() {
			fmt.Fprintf(&b, " +step +inv +proj=helmert +x=%s +y=%s +z=%s",
				fmtFloat(s.DX), fmtFloat(s.DY), fmtFloat(s.DZ))
			if len(s.Params()) == 7 {
				fmt.Fprintf(&b, " +rx=%s +ry=%s +rz=%s +s=%s +convention=position_vector",
					fmtFloat(s.RX), fmtFloat(s.RY), fmtFloat(s.RZ), fmtFloat(s.Scale))
			}
		}
		fmt.Fprintf(&b, " +step +inv +proj=cart +a=%s +rf=%s", fmtFloat(ell.A), fmtFloat(ell.InvF))
	}

	p := d.Projection
	switch p.Kind {
	case KindUTM:
		fmt.Fprintf(&b, " +step +proj=utm +zone=%d", p.Zone)
		if p.Hemisphere == South {
			b.WriteString(" +south")
		}
	case KindTMerc:
		fmt.Fprintf(&b, " +step +proj=tmerc +lat_0=%s +lon_0=%s +k=%s +x_0=%s +y_0=%s",
			fmtFloat(p.LatOrigin), fmtFloat(p.CentralMeridian), fmtFloat(p.ScaleFactor),
			fmtFloat(p.FalseEasting), fmtFloat(p.FalseNorthing))
	}
	fmt.Fprintf(&b, " +a=%s +rf=%s", fmtFloat(ell.A), fmtFloat(ell.InvF))
	return b.String()
}

// transformer is one PROJ context and the pipelines created in it. PROJ
// objects must not be shared between goroutines, so callers borrow a whole
// transformer from the pool.
type transformer struct {
	ctx   *proj.Context
	pipes map[string]*proj.PJ
}

var transformers = sync.Pool{
	New: func() any {
		return &transformer{ctx: proj.NewContext(), pipes: make(map[string]*proj.PJ)}
	},
}

func (t *transformer) pipeline(def string) (*proj.PJ, error) {
	if pj, ok := t.pipes[def]; ok {
		return pj, nil
	}
	pj, err := t.ctx.Create(def)
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}
	t.pipes[def] = pj
	return pj, nil
}

func (t *transformer) trans(d Descriptor, dir proj.Direction, u, v float64) (float64, float64, error) {
	def := d.Pipeline()
	pj, err := t.pipeline(def)
	if err != nil {
		return 0, 0, err
	}
	x, y, _, _, err := pj.Trans(dir, u, v, 0, 0)
	if err != nil {
		// The PJ keeps its error state; build a fresh one next time.
		pj.Close()
		delete(t.pipes, def)
		return 0, 0, err
	}
	if !finite(x) || !finite(y) {
		return 0, 0, errNotFinite
	}
	return x, y, nil
}

// forward projects a WGS 84 position in degrees into d.
func forward(d Descriptor, lat, lon float64) (float64, float64, error) {
	t := transformers.Get().(*transformer)
	defer transformers.Put(t)
	return t.forward(d, lat, lon)
}

func (t *transformer) forward(d Descriptor, lat, lon float64) (float64, float64, error) {
	if math.Abs(lat) >= 90 {
		return 0, 0, errAtPole
	}
	if math.Abs(normalizeDegrees(lon-d.Projection.Params().CentralMeridian)) >= 90 {
		return 0, 0, errFarFromCM
	}
	return t.trans(d, proj.Fwd, lon, lat)
}

// inverse maps easting/northing in d back to a WGS 84 position in degrees.
// Results that do not project back onto the input are rejected, which
// catches northings beyond the pole that PROJ folds back into range.
func inverse(d Descriptor, x, y float64) (float64, float64, error) {
	if !finite(x) || !finite(y) {
		return 0, 0, errNotFinite
	}
	t := transformers.Get().(*transformer)
	defer transformers.Put(t)

	lon, lat, err := t.trans(d, proj.Inv, x, y)
	if err != nil {
		return 0, 0, err
	}
	fx, fy, err := t.forward(d, lat, lon)
	if err != nil {
		return 0, 0, errOutsideDomain
	}
	if math.Abs(fx-x) > domainTolerance || math.Abs(fy-y) > domainTolerance {
		return 0, 0, errOutsideDomain
	}
	return lat, lon, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

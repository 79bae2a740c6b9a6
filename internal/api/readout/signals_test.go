package readout

import (
	"testing"
)

func TestParseSignals(t *testing.T) {
	s, err := ParseSignals([]byte(`{"lat": -0.1807, "lng": "-78.4678", "label": "Quito", "bad": "x"}`))
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := s.Float("lat"); !ok || v != -0.1807 {
		t.Fatalf("lat = %v %v", v, ok)
	}
	if v, ok := s.Float("lng"); !ok || v != -78.4678 {
		t.Fatalf("lng = %v %v", v, ok)
	}
	if _, ok := s.Float("bad"); ok {
		t.Fatal("non-numeric string parsed as float")
	}
	if _, ok := s.Float("missing"); ok {
		t.Fatal("missing signal parsed as float")
	}
	if s.String("label") != "Quito" || s.String("lat") != "" {
		t.Fatal("String returned unexpected values")
	}
	if !s.Has("label") || s.Has("missing") {
		t.Fatal("Has returned unexpected values")
	}

	if _, err := ParseSignals([]byte(`{`)); err == nil {
		t.Fatal("expected JSON error")
	}
	in := &SignalsInput{RawBody: []byte(`nope`)}
	if _, err := in.MustParse(); err == nil {
		t.Fatal("expected huma error")
	}
}

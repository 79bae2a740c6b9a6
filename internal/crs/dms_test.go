package crs

import (
	"errors"
	"math"
	"testing"
)

func TestFormatDMS(t *testing.T) {
	tests := []struct {
		coord GeographicCoordinate
		want  string
	}{
		{LatLng(-0.1807, -78.4678), `0°10'50.52"S 78°28'4.08"W`},
		{LatLng(0, 0), `0°0'0.00"N 0°0'0.00"E`},
		{LatLng(40.4168, -3.7038), `40°25'0.48"N 3°42'13.68"W`},
		{LatLng(-90, 180), `90°0'0.00"S 180°0'0.00"E`},
		{LatLng(0.99999999, -180), `1°0'0.00"N 180°0'0.00"W`},
	}
	for _, tt := range tests {
		if got := FormatDMS(tt.coord); got != tt.want {
			t.Errorf("FormatDMS(%v) = %s, want %s", tt.coord, got, tt.want)
		}
	}
}

func TestParseDMS(t *testing.T) {
	tests := []struct {
		name string
		text string
		want GeographicCoordinate
	}{
		{"quito", `0°10'50.52"S 78°28'4.08"W`, LatLng(-0.1807, -78.4678)},
		{"longitude first", `78°29'20.35"W 0°20'44.16"S`, LatLng(-0.3456, -78.488986)},
		{"comma separated", `0°10'50.52"S, 78°28'4.08"W`, LatLng(-0.1807, -78.4678)},
		{"lowercase hemisphere", `40°25'0.48"n 3°42'13.68"w`, LatLng(40.4168, -3.7038)},
		{"north east pair", `78°29'20"N 0°20'44"E`, LatLng(78.488889, 0.345556)},
		{"prime marks", `1°2′3″S 4°5′6″E`, LatLng(-1.034167, 4.085)},
		{"double apostrophe seconds", `1°2'3''S 4°5'6''E`, LatLng(-1.034167, 4.085)},
		{"extremes", `90°0'0"N 180°0'0"W`, LatLng(90, -180)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDMS(tt.text)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("ParseDMS(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseDMSErrors(t *testing.T) {
	tests := []struct {
		text   string
		reason ParseReason
	}{
		{``, ReasonTokenCount},
		{`1°2'3"N`, ReasonTokenCount},
		{`1°2'3"N 1°2'3"E 1°2'3"E`, ReasonTokenCount},
		{`abc 1°2'3"E`, ReasonMalformedToken},
		{`1.5°2'3"N 1°2'3"E`, ReasonMalformedToken},
		{`1°2'3" 1°2'3"E`, ReasonMissingHemisphere},
		{`1°2'3"X 1°2'3"E`, ReasonInvalidHemisphere},
		{`1°2'3"NE 1°2'3"E`, ReasonInvalidHemisphere},
		{`1°2'3"N 2°0'0"S`, ReasonAxisConflict},
		{`1°2'3"E 2°0'0"W`, ReasonAxisConflict},
		{`91°0'0"N 1°0'0"E`, ReasonOutOfRange},
		{`90°0'0.01"S 1°0'0"E`, ReasonOutOfRange},
		{`1°0'0"N 181°0'0"E`, ReasonOutOfRange},
		{`1°60'0"N 1°0'0"E`, ReasonOutOfRange},
		{`1°0'60"N 1°0'0"E`, ReasonOutOfRange},
	}
	for _, tt := range tests {
		_, err := ParseDMS(tt.text)
		if !errors.Is(err, ErrParse) {
			t.Errorf("ParseDMS(%q) err=%v, want ErrParse", tt.text, err)
			continue
		}
		if !IsParseReason(err, tt.reason) {
			t.Errorf("ParseDMS(%q) err=%v, want reason %s", tt.text, err, tt.reason)
		}
	}
}

func TestDMSRoundTrip(t *testing.T) {
	// Seconds carry two decimals, so a round trip is exact to 1/720000 degree
	// plus the six-decimal rounding of the parsed value.
	const tol = 1.0/720000 + 5e-7 + 1e-12
	for lat := -90.0; lat <= 90; lat += 7.123457 {
		for lng := -180.0; lng <= 180; lng += 13.987654 {
			c := LatLng(lat, lng)
			got, err := ParseDMS(FormatDMS(c))
			if err != nil {
				t.Fatalf("%v: %v", c, err)
			}
			if math.Abs(got.Latitude-lat) > tol || math.Abs(got.Longitude-lng) > tol {
				t.Fatalf("%v -> %q -> %v", c, FormatDMS(c), got)
			}
		}
	}
}

func TestParseDMSLatitudeWithEastLongitude(t *testing.T) {
	for _, text := range []string{`78°29'20"N 0°20'44"E`, `0°20'44"E, 78°29'20"N`} {
		c, err := ParseDMS(text)
		if err != nil {
			t.Fatalf("ParseDMS(%q): %v", text, err)
		}
		if c.Latitude != 78.488889 || c.Longitude != 0.345556 {
			t.Fatalf("ParseDMS(%q) = %v, want (78.488889, 0.345556)", text, c)
		}
	}
}

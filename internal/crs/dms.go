package crs

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Axis distinguishes latitude from longitude when formatting a single value.
type Axis int

const (
	AxisLatitude Axis = iota
	AxisLongitude
)

// FormatDMS renders coord as `D°M'S.ss"H D°M'S.ss"H`, latitude first.
func FormatDMS(coord GeographicCoordinate) string {
	return FormatDMSAxis(coord.Latitude, AxisLatitude) + " " + FormatDMSAxis(coord.Longitude, AxisLongitude)
}

// FormatDMSAxis renders one axis value with its hemisphere letter.
func FormatDMSAxis(value float64, axis Axis) string {
	letter := byte('N')
	switch {
	case axis == AxisLatitude && value < 0:
		letter = 'S'
	case axis == AxisLongitude && value < 0:
		letter = 'W'
	case axis == AxisLongitude:
		letter = 'E'
	}

	// Work in hundredths of a second so rounding carries into minutes and
	// degrees instead of printing 60.00".
	const scale = 3600 * 100
	total := int64(math.Round(math.Abs(value) * scale))
	deg := total / scale
	rem := total % scale
	mins := rem / 6000
	cs := rem % 6000

	return fmt.Sprintf("%d°%d'%d.%02d\"%c", deg, mins, cs/100, cs%100, letter)
}

var dmsToken = regexp.MustCompile(`^(\d{1,3})[°º](\d{1,2})['′](\d{1,2}(?:\.\d+)?)(?:"|″|'')(.*)$`)

// ParseDMS parses one latitude and one longitude token in either order,
// separated by whitespace or a comma. The hemisphere letter decides the axis.
// Any N/S token pairs with any E/W token, so "78°29'20\"N 0°20'44\"E" is
// valid; only two tokens on the same axis are an axis conflict.
func ParseDMS(text string) (GeographicCoordinate, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	if len(fields) != 2 {
		return GeographicCoordinate{}, &ParseError{Reason: ReasonTokenCount, Text: text}
	}

	var (
		lat, lng       float64
		haveLat, haveL bool
	)
	for _, tok := range fields {
		value, letter, err := parseDMSToken(text, tok)
		if err != nil {
			return GeographicCoordinate{}, err
		}
		switch letter {
		case 'N', 'S':
			if haveLat {
				return GeographicCoordinate{}, &ParseError{Reason: ReasonAxisConflict, Text: text, Token: tok}
			}
			if value > 90 {
				return GeographicCoordinate{}, &ParseError{Reason: ReasonOutOfRange, Text: text, Token: tok}
			}
			if letter == 'S' {
				value = -value
			}
			lat, haveLat = value, true
		case 'E', 'W':
			if haveL {
				return GeographicCoordinate{}, &ParseError{Reason: ReasonAxisConflict, Text: text, Token: tok}
			}
			if value > 180 {
				return GeographicCoordinate{}, &ParseError{Reason: ReasonOutOfRange, Text: text, Token: tok}
			}
			if letter == 'W' {
				value = -value
			}
			lng, haveL = value, true
		}
	}

	return GeographicCoordinate{
		Latitude:  round(lat, GeographicDecimals),
		Longitude: round(lng, GeographicDecimals),
	}, nil
}

// parseDMSToken returns the unsigned decimal degrees and upper-case
// hemisphere letter of one token.
func parseDMSToken(text, tok string) (float64, byte, error) {
	m := dmsToken.FindStringSubmatch(tok)
	if m == nil {
		return 0, 0, &ParseError{Reason: ReasonMalformedToken, Text: text, Token: tok}
	}

	suffix := strings.TrimSpace(m[4])
	if suffix == "" {
		return 0, 0, &ParseError{Reason: ReasonMissingHemisphere, Text: text, Token: tok}
	}
	if len(suffix) != 1 || !strings.ContainsAny(strings.ToUpper(suffix), "NSEW") {
		return 0, 0, &ParseError{Reason: ReasonInvalidHemisphere, Text: text, Token: tok}
	}
	letter := strings.ToUpper(suffix)[0]

	deg, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	sec, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, 0, &ParseError{Reason: ReasonMalformedToken, Text: text, Token: tok}
	}
	if mins >= 60 || sec >= 60 {
		return 0, 0, &ParseError{Reason: ReasonOutOfRange, Text: text, Token: tok}
	}
	return float64(deg) + float64(mins)/60 + sec/3600, letter, nil
}

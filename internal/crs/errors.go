package crs

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification. Every error returned by this
// package unwraps to exactly one of them.
var (
	ErrOutOfRange    = errors.New("coordinate out of range")
	ErrTransform     = errors.New("transform failed")
	ErrUnknownSystem = errors.New("unknown reference system")
	ErrParse         = errors.New("invalid DMS text")
)

// Kind is a stable, coarse-grained error category used for metrics labels and
// API responses.
type Kind string

const (
	KindNone          Kind = ""
	KindOutOfRange    Kind = "out_of_range"
	KindTransform     Kind = "transform"
	KindUnknownSystem Kind = "unknown_system"
	KindParse         Kind = "parse"
	KindOther         Kind = "other"
)

// KindOf classifies err. A nil error has KindNone.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrOutOfRange):
		return KindOutOfRange
	case errors.Is(err, ErrTransform):
		return KindTransform
	case errors.Is(err, ErrUnknownSystem):
		return KindUnknownSystem
	case errors.Is(err, ErrParse):
		return KindParse
	default:
		return KindOther
	}
}

// RangeError reports a geographic coordinate outside [-90,90] x [-180,180].
type RangeError struct {
	Latitude  float64
	Longitude float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%v: lat=%v lng=%v", ErrOutOfRange, e.Latitude, e.Longitude)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// TransformError reports projection math that could not produce a finite,
// converged result.
type TransformError struct {
	Op       string // "project" or "unproject"
	SystemID string
	Reason   string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s %s: %v: %s", e.Op, e.SystemID, ErrTransform, e.Reason)
}

func (e *TransformError) Unwrap() error { return ErrTransform }

// UnknownSystemError reports a reference system id that is neither catalogued
// nor a generic WGS 84 UTM code.
type UnknownSystemError struct {
	ID string
}

func (e *UnknownSystemError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnknownSystem, e.ID)
}

func (e *UnknownSystemError) Unwrap() error { return ErrUnknownSystem }

// ParseReason identifies why DMS text was rejected.
type ParseReason string

const (
	ReasonTokenCount        ParseReason = "token_count"
	ReasonMalformedToken    ParseReason = "malformed_token"
	ReasonMissingHemisphere ParseReason = "missing_hemisphere"
	ReasonInvalidHemisphere ParseReason = "invalid_hemisphere"
	ReasonAxisConflict      ParseReason = "axis_conflict"
	ReasonOutOfRange        ParseReason = "out_of_range"
)

// ParseError is returned by ParseDMS.
type ParseError struct {
	Reason ParseReason
	Text   string // full input
	Token  string // offending token, if any
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%v (%s): token %q in %q", ErrParse, e.Reason, e.Token, e.Text)
	}
	return fmt.Sprintf("%v (%s): %q", ErrParse, e.Reason, e.Text)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// IsParseReason reports whether err is a *ParseError with the given reason.
func IsParseReason(err error, reason ParseReason) bool {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Reason == reason
	}
	return false
}

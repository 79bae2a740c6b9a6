package crs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, KindNone},
		{&RangeError{Latitude: 91}, KindOutOfRange},
		{&TransformError{Op: "project", SystemID: "EPSG:32717", Reason: "pole"}, KindTransform},
		{&UnknownSystemError{ID: "EPSG:1"}, KindUnknownSystem},
		{&ParseError{Reason: ReasonTokenCount}, KindParse},
		{fmt.Errorf("export: %w", &UnknownSystemError{ID: "x"}), KindUnknownSystem},
		{errors.New("boom"), KindOther},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestErrorsUnwrapToOneSentinel(t *testing.T) {
	sentinels := []error{ErrOutOfRange, ErrTransform, ErrUnknownSystem, ErrParse}
	errs := []error{
		&RangeError{},
		&TransformError{},
		&UnknownSystemError{},
		&ParseError{},
	}
	for i, err := range errs {
		for j, s := range sentinels {
			if got := errors.Is(err, s); got != (i == j) {
				t.Errorf("errors.Is(%T, %v) = %v", err, s, got)
			}
		}
	}
}

func TestIsParseReason(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &ParseError{Reason: ReasonAxisConflict, Text: "a b", Token: "b"})
	if !IsParseReason(err, ReasonAxisConflict) {
		t.Fatal("expected axis_conflict")
	}
	if IsParseReason(err, ReasonTokenCount) {
		t.Fatal("unexpected token_count")
	}
	if IsParseReason(errors.New("x"), ReasonAxisConflict) {
		t.Fatal("plain error matched a parse reason")
	}
}

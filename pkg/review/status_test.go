package review

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestStatusRoundTrip(t *testing.T) {
	for _, st := range []Status{Unknown, Fuzzy, Known} {
		data, err := json.Marshal(st)
		if err != nil {
			t.Fatalf("marshal %v: %v", st, err)
		}
		var back Status
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != st {
			t.Fatalf("round trip changed %v to %v", st, back)
		}
	}
}

func TestParseStatusRejectsJunk(t *testing.T) {
	if _, err := ParseStatus("mastered"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestStatusStringInvalid(t *testing.T) {
	if got := Status(42).String(); got != "Status(42)" {
		t.Fatalf("unexpected string for invalid status: %q", got)
	}
	if _, err := Status(42).MarshalText(); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

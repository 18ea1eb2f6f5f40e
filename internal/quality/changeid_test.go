package quality_test

import (
	"testing"

	"relish/internal/quality"
)

func TestChangeIDString(t *testing.T) {
	id := quality.ChangeID{Kind: quality.KindPhoneFormat, EntityID: 42}
	if got := id.String(); got != "phone_format-42" {
		t.Fatalf("String() = %q, want %q", got, "phone_format-42")
	}
}

func TestParseChangeIDRoundTrip(t *testing.T) {
	cases := []quality.ChangeID{
		{Kind: quality.KindMissingArea, EntityID: 7},
		{Kind: quality.KindStaleSubmission, EntityID: 12},
		{Kind: quality.KindURLFormat, EntityID: 1},
	}
	for _, want := range cases {
		got, err := quality.ParseChangeID(want.String())
		if err != nil {
			t.Fatalf("ParseChangeID(%q) failed: %v", want.String(), err)
		}
		if got != want {
			t.Fatalf("ParseChangeID(%q) = %+v, want %+v", want.String(), got, want)
		}
	}
}

func TestParseChangeIDRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"phone_format",
		"-42",
		"phone_format-",
		"phone_format-0",
		"phone_format--3",
		"phone_format-abc",
		"surprise_kind-9",
	}
	for _, value := range cases {
		if _, err := quality.ParseChangeID(value); err == nil {
			t.Fatalf("ParseChangeID(%q) succeeded, want error", value)
		}
	}
}

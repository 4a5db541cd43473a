package catalog_test

import (
	"testing"

	"callboard/internal/catalog"
)

func TestParseStatusRoundTrip(t *testing.T) {
	cases := []struct {
		raw    string
		status catalog.Status
	}{
		{"", catalog.Idle},
		{"Generating", catalog.Generating},
		{"Done", catalog.Done},
		{"Error", catalog.Error},
		{"Saved", catalog.Saved(1)},
		{"Saved [2]", catalog.Saved(2)},
		{"Saved [17]", catalog.Saved(17)},
	}
	for _, tc := range cases {
		parsed, ok := catalog.ParseStatus(tc.raw)
		if !ok {
			t.Fatalf("ParseStatus(%q) failed", tc.raw)
		}
		if parsed != tc.status {
			t.Fatalf("ParseStatus(%q) = %#v, want %#v", tc.raw, parsed, tc.status)
		}
		if parsed.String() != tc.raw {
			t.Fatalf("Status(%q).String() = %q", tc.raw, parsed.String())
		}
	}
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"generating", "Saved [0]", "Saved [x]", "Saved []", "Pending"} {
		if _, ok := catalog.ParseStatus(raw); ok {
			t.Fatalf("ParseStatus(%q) should fail", raw)
		}
	}
}

func TestNextArchiveIncrements(t *testing.T) {
	cases := []struct {
		from catalog.Status
		want string
	}{
		{catalog.Idle, "Saved"},
		{catalog.Done, "Saved"},
		{catalog.Error, "Saved"},
		{catalog.Saved(1), "Saved [2]"},
		{catalog.Saved(2), "Saved [3]"},
		{catalog.Saved(99), "Saved [100]"},
	}
	for _, tc := range cases {
		got := catalog.NextArchive(tc.from).String()
		if got != tc.want {
			t.Fatalf("NextArchive(%q) = %q, want %q", tc.from, got, tc.want)
		}
	}
}

func TestDisplayRendersIdle(t *testing.T) {
	if catalog.Idle.Display() != "Idle" {
		t.Fatalf("Idle display = %q", catalog.Idle.Display())
	}
	if catalog.Saved(3).Display() != "Saved [3]" {
		t.Fatalf("Saved display = %q", catalog.Saved(3).Display())
	}
}

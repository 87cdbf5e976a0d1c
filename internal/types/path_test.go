package types

import "testing"

func TestParseSegment(t *testing.T) {
	tests := []struct {
		in   string
		want PathSegment
	}{
		{"ironclad", PathSegment{Key: "ironclad"}},
		{"0", PathSegment{Index: 0, IsIndex: true}},
		{"12", PathSegment{Index: 12, IsIndex: true}},
		{"*", PathSegment{Wildcard: true}},
		{"**", PathSegment{Globstar: true}},
		{"-1", PathSegment{Key: "-1"}},
		{"+1", PathSegment{Key: "+1"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseSegment(tt.in)
			if got != tt.want {
				t.Errorf("ParseSegment(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestJoinSegments(t *testing.T) {
	path := "classic/**/*/0/ask_the_oracle"
	if got := JoinSegments(ParseSegments(path)); got != path {
		t.Errorf("JoinSegments(ParseSegments(%q)) = %q", path, got)
	}
	if segs := ParseSegments(""); segs != nil {
		t.Errorf("ParseSegments(\"\") = %v, want nil", segs)
	}
}

func TestRunID(t *testing.T) {
	id := NewRunID()
	if _, err := ParseRunID(string(id)); err != nil {
		t.Fatalf("ParseRunID(%q) error = %v", id, err)
	}
	if RunIDTime(id).IsZero() {
		t.Error("RunIDTime returned zero time for a fresh UUIDv7")
	}
	if _, err := ParseRunID("not-a-uuid"); err == nil {
		t.Error("ParseRunID accepted a malformed UUID")
	}
	if !RunIDTime("bogus").IsZero() {
		t.Error("RunIDTime should return zero time for invalid IDs")
	}
}

func TestNewSecretID(t *testing.T) {
	id := NewSecretID()
	if len(id) != 32 {
		t.Fatalf("NewSecretID length = %d, want 32", len(id))
	}
	for _, c := range id {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Fatalf("NewSecretID contains non-hex char %q", c)
		}
	}
}

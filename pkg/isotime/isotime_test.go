package isotime

import (
	"sort"
	"testing"
	"time"
)

func TestFormat_FixedWidth(t *testing.T) {
	times := []time.Time{
		time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 5, 23, 59, 59, 999e6, time.UTC),
		time.Date(2025, 1, 5, 12, 30, 0, 7e6, time.UTC),
	}
	for _, tm := range times {
		s := Format(tm)
		if len(s) != len(Layout) {
			t.Errorf("Format(%v) = %q, want width %d", tm, s, len(Layout))
		}
	}
}

func TestFormat_UTCNormalized(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2025, 3, 10, 14, 30, 0, 0, loc)
	got := Format(local)
	want := "2025-03-10T09:00:00.000Z"
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	orig := time.Date(2025, 6, 1, 8, 15, 30, 250e6, time.UTC)
	parsed, err := Parse(Format(orig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(orig) {
		t.Errorf("round trip: got %v, want %v", parsed, orig)
	}
}

func TestParse_AcceptsRFC3339(t *testing.T) {
	parsed, err := Parse("2025-06-01T08:15:30Z")
	if err != nil {
		t.Fatalf("parse rfc3339: %v", err)
	}
	if parsed.Hour() != 8 || parsed.Minute() != 15 {
		t.Errorf("unexpected parse result: %v", parsed)
	}
}

func TestBefore_MatchesChronology(t *testing.T) {
	base := time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC)
	stamps := []string{
		Format(base.Add(72 * time.Hour)),
		Format(base),
		Format(base.Add(time.Millisecond)),
		Format(base.Add(-30 * 24 * time.Hour)),
	}
	sorted := append([]string(nil), stamps...)
	sort.Strings(sorted)

	for i := 1; i < len(sorted); i++ {
		prev, _ := Parse(sorted[i-1])
		cur, _ := Parse(sorted[i])
		if cur.Before(prev) {
			t.Fatalf("lexicographic order broke chronology at %q > %q", sorted[i-1], sorted[i])
		}
	}
	if !Before(sorted[0], sorted[len(sorted)-1]) {
		t.Error("Before should hold for smallest vs largest stamp")
	}
}

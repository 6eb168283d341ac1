package preference

import (
	"strings"
	"testing"
)

func TestSummarizeEmptyReturnsSentinel(t *testing.T) {
	t.Parallel()

	if got := Summarize(nil); got != EmptySummary {
		t.Fatalf("Summarize(nil) = %q, want %q", got, EmptySummary)
	}
	if got := Summarize([]Entry{}); got != EmptySummary {
		t.Fatalf("Summarize([]) = %q, want %q", got, EmptySummary)
	}
}

func TestSummarizeRendersAllEntries(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Key: KeyLastOrderID, Value: "29"},
		{Key: KeyRecentItems, Value: "Caesar Salad, Burger"},
	}
	got := Summarize(entries)

	if !strings.Contains(got, "last_order_id: 29") {
		t.Fatalf("summary missing order line: %q", got)
	}
	if !strings.Contains(got, "recent_items: Caesar Salad, Burger") {
		t.Fatalf("summary missing items line: %q", got)
	}
}

func TestAsMap(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Key: KeyLastReservationID, Value: "12"},
		{Key: KeyUsualPartySize, Value: "4"},
	}
	m := AsMap(entries)
	if len(m) != 2 {
		t.Fatalf("len = %d, want 2", len(m))
	}
	if m[KeyLastReservationID] != "12" || m[KeyUsualPartySize] != "4" {
		t.Fatalf("unexpected map: %#v", m)
	}
}

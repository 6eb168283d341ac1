package preference

import "testing"

func TestIsKnownKey(t *testing.T) {
	t.Parallel()

	for _, key := range []string{
		KeyLastOrderID, KeyRecentItems, KeyFavoriteItems,
		KeyLastReservationID, KeyUsualPartySize, KeyLastReservationTime,
		KeyRecentMenuSearches, KeyDietaryRestrictions, KeyAllergies,
	} {
		if !IsKnownKey(key) {
			t.Fatalf("IsKnownKey(%q) = false", key)
		}
	}
	if IsKnownKey("last_ordr_id") {
		t.Fatal("typo key must not be known")
	}
}

func TestParseIDRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := ParseID("29"); err != nil {
		t.Fatalf("ParseID(29) error = %v", err)
	}
	for _, bad := range []string{"", "abc", "-4", "0"} {
		if _, err := ParseID(bad); err == nil {
			t.Fatalf("ParseID(%q) expected error", bad)
		}
	}
}

func TestParseFormatListRoundTrip(t *testing.T) {
	t.Parallel()

	items := ParseList("Caesar Salad, Burger, ,")
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if got := FormatList(items); got != "Caesar Salad, Burger" {
		t.Fatalf("FormatList() = %q", got)
	}
}

func TestNormalizeClock(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"8pm", "20:00"},
		{"8:30 PM", "20:30"},
		{"12am", "00:00"},
		{"12:15pm", "12:15"},
		{"20:00", "20:00"},
		{"7 pm", "19:00"},
	}
	for _, tc := range cases {
		got, err := NormalizeClock(tc.in)
		if err != nil {
			t.Fatalf("NormalizeClock(%q) error = %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeClock(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "25:00", "8:75pm", "noon-ish"} {
		if _, err := NormalizeClock(bad); err == nil {
			t.Fatalf("NormalizeClock(%q) expected error", bad)
		}
	}
}

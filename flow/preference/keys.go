package preference

import (
	"fmt"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

// Centralized preference keys. The store itself accepts any non-empty key;
// handlers go through this enumeration so a typo fails fast instead of
// silently reading an absent key.
const (
	KeyLastOrderID         = "last_order_id"
	KeyRecentItems         = "recent_items"
	KeyFavoriteItems       = "favorite_items"
	KeyLastReservationID   = "last_reservation_id"
	KeyUsualPartySize      = "usual_party_size"
	KeyLastReservationTime = "last_reservation_time"
	KeyRecentMenuSearches  = "recent_menu_searches"
	KeyDietaryRestrictions = "dietary_restrictions"
	KeyAllergies           = "allergies"
)

var knownKeys = map[string]struct{}{
	KeyLastOrderID:         {},
	KeyRecentItems:         {},
	KeyFavoriteItems:       {},
	KeyLastReservationID:   {},
	KeyUsualPartySize:      {},
	KeyLastReservationTime: {},
	KeyRecentMenuSearches:  {},
	KeyDietaryRestrictions: {},
	KeyAllergies:           {},
}

func IsKnownKey(key string) bool {
	_, ok := knownKeys[key]
	return ok
}

/* Typed parse/format pairs. Each handler that reads a key owns its codec. */

func ParseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id value %q", contractx.ErrValidation, value)
	}
	return id, nil
}

func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func ParseCount(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: invalid count value %q", contractx.ErrValidation, value)
	}
	return n, nil
}

func FormatCount(n int) string {
	return strconv.Itoa(n)
}

// ParseList splits a comma-separated value, dropping empty elements.
func ParseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func FormatList(items []string) string {
	return strings.Join(items, ", ")
}

// NormalizeClock converts a spoken time ("8pm", "8:30 PM", "20:00") to
// 24-hour HH:MM, the canonical format for last_reservation_time.
func NormalizeClock(value string) (string, error) {
	raw := strings.ToLower(strings.TrimSpace(value))
	if raw == "" {
		return "", fmt.Errorf("%w: empty time value", contractx.ErrValidation)
	}

	meridiem := ""
	switch {
	case strings.HasSuffix(raw, "pm"):
		meridiem = "pm"
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "pm"))
	case strings.HasSuffix(raw, "am"):
		meridiem = "am"
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "am"))
	}

	hourPart := raw
	minutePart := "00"
	if idx := strings.IndexAny(raw, ":."); idx >= 0 {
		hourPart = raw[:idx]
		minutePart = raw[idx+1:]
	}

	hour, err := strconv.Atoi(strings.TrimSpace(hourPart))
	if err != nil {
		return "", fmt.Errorf("%w: invalid time value %q", contractx.ErrValidation, value)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(minutePart))
	if err != nil {
		return "", fmt.Errorf("%w: invalid time value %q", contractx.ErrValidation, value)
	}

	switch meridiem {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("%w: time out of range %q", contractx.ErrValidation, value)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

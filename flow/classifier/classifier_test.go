package classifier

import (
	"testing"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

func TestNormalizeCoercesUnknownIntentToUnclear(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want contractx.Intent
	}{
		{"menu", contractx.IntentMenu},
		{" Order ", contractx.IntentOrder},
		{"RESERVATION", contractx.IntentReservation},
		{"complaint", contractx.IntentComplaint},
		{"unclear", contractx.IntentUnclear},
		{"menu_inquiry", contractx.IntentMenu},
		{"order_request", contractx.IntentOrder},
		{"reservation_request", contractx.IntentReservation},
		{"general_question", contractx.IntentUnclear},
		{"other", contractx.IntentUnclear},
		{"banter", contractx.IntentUnclear},
		{"", contractx.IntentUnclear},
	}

	for _, tc := range cases {
		got := Normalize(tc.raw, false, "high", nil)
		if got.Intent != tc.want {
			t.Fatalf("Normalize(%q).Intent = %s, want %s", tc.raw, got.Intent, tc.want)
		}
	}
}

func TestNormalizeClampsConfidence(t *testing.T) {
	t.Parallel()

	for _, conf := range []string{"high", "medium", "low"} {
		if got := Normalize("menu", false, conf, nil).Confidence; got != conf {
			t.Fatalf("confidence %q should pass through, got %q", conf, got)
		}
	}
	for _, conf := range []string{"", "very high", "certain"} {
		if got := Normalize("menu", false, conf, nil).Confidence; got != "low" {
			t.Fatalf("confidence %q should clamp to low, got %q", conf, got)
		}
	}
}

func TestNormalizePreservesEscalationFlag(t *testing.T) {
	t.Parallel()

	if !Normalize("menu", true, "high", nil).RequiresEscalation {
		t.Fatal("escalation flag should survive normalization")
	}
	if Normalize("complaint", false, "high", nil).RequiresEscalation {
		t.Fatal("normalization should not invent escalation")
	}
}

func TestNormalizeCleansExtractedFields(t *testing.T) {
	t.Parallel()

	got := Normalize("order", false, "high", map[string]string{
		"order_id": " 29 ",
		"quantity": "2",
		"blank":    "   ",
		"":         "ghost",
	})

	if got.Field("order_id") != "29" {
		t.Fatalf("order_id = %q", got.Field("order_id"))
	}
	if got.Field("quantity") != "2" {
		t.Fatalf("quantity = %q", got.Field("quantity"))
	}
	if _, ok := got.ExtractedFields["blank"]; ok {
		t.Fatal("blank values should be dropped")
	}
	if len(got.ExtractedFields) != 2 {
		t.Fatalf("fields = %v", got.ExtractedFields)
	}
}

func TestNormalizeEmptyFieldsStayNil(t *testing.T) {
	t.Parallel()

	if got := Normalize("menu", false, "high", map[string]string{"x": " "}); got.ExtractedFields != nil {
		t.Fatalf("fields = %v, want nil", got.ExtractedFields)
	}
}

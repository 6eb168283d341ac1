package state

import (
	"testing"
	"time"
)

func TestSessionManagerReturnsSameSessionForID(t *testing.T) {
	t.Parallel()

	m := NewSessionManager()
	now := time.Now()

	a := m.GetOrCreate("alpha", now)
	b := m.GetOrCreate("alpha", now)
	if a != b {
		t.Fatal("same id should return the same session")
	}
}

func TestSessionManagerGeneratesIDWhenEmpty(t *testing.T) {
	t.Parallel()

	m := NewSessionManager()
	s := m.GetOrCreate("", time.Now())
	if s.ID == "" {
		t.Fatal("generated session id should not be empty")
	}
	if len(s.ID) != 8 {
		t.Fatalf("generated id length = %d, want 8", len(s.ID))
	}
}

func TestSessionCollectKeepsEarlierAnswers(t *testing.T) {
	t.Parallel()

	s := &Session{}
	s.Collect(map[string]string{"party_size": "4"})
	s.Collect(map[string]string{"date": "2026-09-05", "party_size": ""})

	if s.CollectedInfo["party_size"] != "4" {
		t.Fatalf("earlier answer lost: %v", s.CollectedInfo)
	}
	if s.CollectedInfo["date"] != "2026-09-05" {
		t.Fatalf("new answer missing: %v", s.CollectedInfo)
	}
}

func TestSessionCollectLetsRestatementsWin(t *testing.T) {
	t.Parallel()

	s := &Session{}
	s.Collect(map[string]string{"party_size": "4"})
	s.Collect(map[string]string{"party_size": "6"})

	if s.CollectedInfo["party_size"] != "6" {
		t.Fatalf("restated answer should win: %v", s.CollectedInfo)
	}
}

func TestSessionResetClarification(t *testing.T) {
	t.Parallel()

	id := int64(7)
	s := &Session{Rounds: 2, CurrentIntent: "reservation", CustomerID: &id}
	s.Collect(map[string]string{"party_size": "4"})
	s.ResetClarification()

	if s.Rounds != 0 || s.CollectedInfo != nil || s.CurrentIntent != "" {
		t.Fatalf("reset left state behind: rounds=%d info=%v intent=%q", s.Rounds, s.CollectedInfo, s.CurrentIntent)
	}
	if s.CustomerID == nil {
		t.Fatal("resolved identity should survive a clarification reset")
	}
}

func TestSessionManagerResetDropsSession(t *testing.T) {
	t.Parallel()

	m := NewSessionManager()
	now := time.Now()

	a := m.GetOrCreate("alpha", now)
	a.Append("user", "hello", now)
	m.Reset("alpha")

	b := m.GetOrCreate("alpha", now)
	if a == b {
		t.Fatal("reset should discard the old session")
	}
	if len(b.History) != 0 {
		t.Fatalf("fresh session carries history: %v", b.History)
	}
}

func TestSessionAppendRecordsHistory(t *testing.T) {
	t.Parallel()

	s := &Session{}
	now := time.Now()
	s.Append("user", "hello", now)
	s.Append("assistant", "hi there", now)

	if len(s.History) != 2 {
		t.Fatalf("history length = %d", len(s.History))
	}
	if s.History[0].Role != "user" || s.History[1].Role != "assistant" {
		t.Fatalf("roles = %s, %s", s.History[0].Role, s.History[1].Role)
	}
	if !s.UpdatedAt.Equal(now.UTC()) {
		t.Fatalf("updated at = %v", s.UpdatedAt)
	}
}

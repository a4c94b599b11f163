package hostbudget

import "testing"

func TestClassifyCorners(t *testing.T) {
	cases := []struct {
		name string
		in   FetchResult
		want Outcome
	}{
		{"econnreset", FetchResult{Status: 0, Message: "ECONNRESET"}, OutcomeNetworkTimeout},
		{"signin 403", FetchResult{Status: 403, Message: "Please sign-in to continue"}, OutcomeLoginWall},
		{"blank fetch error", FetchResult{Status: 0, Message: ""}, OutcomeFetchError},
		{"ok", FetchResult{Status: 200}, OutcomeOK},
		{"not found", FetchResult{Status: 404}, OutcomeNotFound},
		{"gone", FetchResult{Status: 410}, OutcomeNotFound},
		{"rate limited", FetchResult{Status: 429}, OutcomeRateLimited},
		{"server error", FetchResult{Status: 503}, OutcomeServerError},
		{"unauthorized", FetchResult{Status: 401}, OutcomeLoginWall},
		{"forbidden plain", FetchResult{Status: 403, Message: "Forbidden"}, OutcomeBlocked},
		{"challenge", FetchResult{Status: 0, Message: "cloudflare challenge detected"}, OutcomeBotChallenge},
		{"weird status", FetchResult{Status: 418}, OutcomeBlocked},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.in); got != tc.want {
				t.Errorf("Classify(%+v) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestScoreBoundedAndCapped(t *testing.T) {
	r := NewRow("example.com")
	for i := 0; i < 50; i++ {
		r.RecordOutcome(OutcomeOK)
	}
	for i := 0; i < 50; i++ {
		r.RecordEvidenceUsed()
	}
	if r.Score() != 100 {
		t.Fatalf("expected capped bonuses to not exceed 100, got %d", r.Score())
	}

	r2 := NewRow("bad.example.com")
	for i := 0; i < 50; i++ {
		r2.RecordOutcome(OutcomeBlocked)
	}
	if r2.Score() != 0 {
		t.Fatalf("expected score to clamp at 0, got %d", r2.Score())
	}
}

func TestHostStateDegradedThenBlocked(t *testing.T) {
	r := NewRow("flaky.example.com")
	for i := 0; i < 6; i++ {
		r.RecordOutcome(OutcomeBlocked)
	}
	if r.Score() >= 55 {
		t.Fatalf("expected 6 blocked outcomes to drop score below 55, got %d", r.Score())
	}
	if got := r.ResolveState(1000); got != StateDegraded {
		t.Fatalf("expected degraded with no cooldown scheduled, got %s", got)
	}

	r.NoteRetryTs(5000)
	if got := r.ResolveState(1000); got != StateBlocked {
		t.Fatalf("expected blocked once cooldown is active and blocked+rate_limited >= 2, got %s", got)
	}
}

func TestNextRetryTsMonotonic(t *testing.T) {
	r := NewRow("example.com")
	r.NoteRetryTs(1000)
	r.NoteRetryTs(500) // earlier, must not regress
	if r.NextRetryTsMs != 1000 {
		t.Fatalf("expected next_retry_ts to stay at 1000, got %d", r.NextRetryTsMs)
	}
	r.NoteRetryTs(2000)
	if r.NextRetryTsMs != 2000 {
		t.Fatalf("expected next_retry_ts to advance to 2000, got %d", r.NextRetryTsMs)
	}
}

func TestApplyBackoff(t *testing.T) {
	cfg := BackoffConfig{Base429Seconds: 60, Base403Seconds: 90}
	r := NewRow("example.com")
	r.ApplyBackoff(OutcomeRateLimited, 1000, cfg)
	if r.NextRetryTsMs != 1000+60000 {
		t.Fatalf("unexpected retry ts after 429: %d", r.NextRetryTsMs)
	}
	r.ApplyBackoff(OutcomeBlocked, 2000, cfg)
	if want := int64(2000 + 90000); r.NextRetryTsMs != want {
		t.Fatalf("unexpected retry ts after blocked: got %d want %d", r.NextRetryTsMs, want)
	}
	// An ok outcome must not touch the cooldown.
	before := r.NextRetryTsMs
	r.ApplyBackoff(OutcomeOK, 3000, cfg)
	if r.NextRetryTsMs != before {
		t.Fatalf("expected ok outcome to leave cooldown untouched")
	}
}

func TestOpenAndActiveStates(t *testing.T) {
	r := NewRow("fresh.example.com")
	if got := r.ResolveState(0); got != StateOpen {
		t.Fatalf("expected fresh host to be open, got %s", got)
	}
	r.RecordStarted()
	if got := r.ResolveState(0); got != StateActive {
		t.Fatalf("expected in-flight host to be active, got %s", got)
	}
}

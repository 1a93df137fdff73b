package config

import "testing"

func TestApplyOverrides(t *testing.T) {
	base := WorkerSettings{
		RateLimitHourly: 50,
		RateLimitDaily:  300,
		BatchSize:       10,
	}

	got := base.ApplyOverrides(map[string]string{
		KeyPaused:          "true",
		KeyDryRun:          "true",
		KeyRateLimitHourly: "25",
		KeyBatchSize:       "5",
	})

	if !got.Paused || !got.DryRun {
		t.Errorf("flags not applied: %+v", got)
	}
	if got.RateLimitHourly != 25 || got.BatchSize != 5 {
		t.Errorf("numbers not applied: %+v", got)
	}
	if got.RateLimitDaily != 300 {
		t.Errorf("untouched value changed: %+v", got)
	}

	// Value semantics: the original is untouched.
	if base.Paused || base.RateLimitHourly != 50 {
		t.Errorf("base mutated: %+v", base)
	}
}

func TestApplyOverridesIgnoresMalformed(t *testing.T) {
	base := WorkerSettings{RateLimitHourly: 50, BatchSize: 10}

	got := base.ApplyOverrides(map[string]string{
		KeyRateLimitHourly: "not-a-number",
		KeyBatchSize:       "-3",
		"worker.unknown":   "1",
	})

	if got.RateLimitHourly != 50 || got.BatchSize != 10 {
		t.Errorf("malformed values must keep defaults: %+v", got)
	}
}

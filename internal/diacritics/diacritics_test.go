package diacritics

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/eugenenazirov/diacritics-settings/internal/apiversion"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newAt(t *testing.T, initial string) *VersionConfig {
	t.Helper()

	cfg, err := NewWithVersion(initial)
	if err != nil {
		t.Fatalf("NewWithVersion(%q) returned error: %v", initial, err)
	}
	return cfg
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	cfg := New()
	if got := cfg.Version(); got != DefaultVersion {
		t.Fatalf("expected %s, got %s", DefaultVersion, got)
	}
	if got := cfg.DatabaseURL(); got != "http://api.diacritics.io/" {
		t.Fatalf("unexpected database URL %s", got)
	}
	if got := cfg.Endpoint(); got != "http://api.diacritics.io/v1" {
		t.Fatalf("unexpected endpoint %s", got)
	}
	if got := cfg.Number(); got != 1 {
		t.Fatalf("expected number 1, got %d", got)
	}
}

func TestNewWithVersionRejectsInvalidInitial(t *testing.T) {
	t.Parallel()

	if _, err := NewWithVersion("abc"); !errors.Is(err, apiversion.ErrNotANumber) {
		t.Fatalf("expected ErrNotANumber, got %v", err)
	}
	if _, err := NewWithVersion("v0"); !errors.Is(err, apiversion.ErrNonPositive) {
		t.Fatalf("expected ErrNonPositive, got %v", err)
	}
}

func TestTrySetVersionGuard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate any
		want      string
		outcome   Outcome
		wantErr   error
	}{
		{name: "Upgrade", candidate: "v5", want: "v3", outcome: OutcomeUpgrade, wantErr: ErrUpgrade},
		{name: "NumericUpgrade", candidate: 4, want: "v3", outcome: OutcomeUpgrade, wantErr: ErrUpgrade},
		{name: "Downgrade", candidate: "v2", want: "v2", outcome: OutcomeDowngraded},
		{name: "NumericDowngrade", candidate: 1, want: "1", outcome: OutcomeDowngraded},
		{name: "Equal", candidate: "v3", want: "v3", outcome: OutcomeReaffirmed},
		{name: "EqualDecimal", candidate: "v3.7", want: "v3.7", outcome: OutcomeReaffirmed},
		{name: "Zero", candidate: "v0", want: "v3", outcome: OutcomeNonPositive, wantErr: apiversion.ErrNonPositive},
		{name: "NumericZero", candidate: 0, want: "v3", outcome: OutcomeNonPositive, wantErr: apiversion.ErrNonPositive},
		{name: "Letters", candidate: "abc", want: "v3", outcome: OutcomeNotANumber, wantErr: apiversion.ErrNotANumber},
		{name: "Empty", candidate: "", want: "v3", outcome: OutcomeNotANumber, wantErr: apiversion.ErrNotANumber},
		{name: "Nil", candidate: nil, want: "v3", outcome: OutcomeNotANumber, wantErr: apiversion.ErrNotANumber},
		// The sign is not a digit, so it is stripped before parsing.
		{name: "MinusSign", candidate: "v-1", want: "v-1", outcome: OutcomeDowngraded},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := newAt(t, "v3")
			res, err := cfg.TrySetVersion(tc.candidate)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}

			want := UpdateResult{
				Version:  tc.want,
				Previous: "v3",
				Outcome:  tc.outcome,
				Applied:  tc.wantErr == nil,
			}
			if diff := cmp.Diff(want, res); diff != "" {
				t.Fatalf("unexpected result (-want +got):\n%s", diff)
			}
			if got := cfg.Version(); got != tc.want {
				t.Fatalf("expected stored version %s, got %s", tc.want, got)
			}
		})
	}
}

func TestSetVersionIsSilent(t *testing.T) {
	t.Parallel()

	cfg := newAt(t, "v3")
	if got := cfg.SetVersion("v5"); got != "v3" {
		t.Fatalf("expected upgrade to be ignored, got %s", got)
	}
	if got := cfg.SetVersion("v2"); got != "v2" {
		t.Fatalf("expected downgrade to apply, got %s", got)
	}
	if got := cfg.SetVersion("v0"); got != "v2" {
		t.Fatalf("expected v0 to be ignored, got %s", got)
	}
	if got := cfg.SetVersion("abc"); got != "v2" {
		t.Fatalf("expected abc to be ignored, got %s", got)
	}
}

func TestSetVersionIdempotent(t *testing.T) {
	t.Parallel()

	cfg := newAt(t, "v3")
	for i := 0; i < 2; i++ {
		res, err := cfg.TrySetVersion("v2")
		if err != nil {
			t.Fatalf("attempt %d: unexpected error: %v", i, err)
		}
		if !res.Applied || res.Version != "v2" {
			t.Fatalf("attempt %d: unexpected result %+v", i, res)
		}
	}
}

func TestSetVersionScenario(t *testing.T) {
	t.Parallel()

	cfg := New()
	if got := cfg.SetVersion("v1"); got != "v1" {
		t.Fatalf("expected v1, got %s", got)
	}
	if got := cfg.SetVersion(2); got != "v1" {
		t.Fatalf("expected numeric upgrade to be rejected, got %s", got)
	}
	if got := cfg.SetVersion("v1.0"); got != "v1.0" {
		t.Fatalf("expected literal v1.0 to be stored, got %s", got)
	}
	if got := cfg.Version(); got != "v1.0" {
		t.Fatalf("expected Version to report v1.0, got %s", got)
	}
	if got := cfg.Endpoint(); got != "http://api.diacritics.io/v1.0" {
		t.Fatalf("unexpected endpoint %s", got)
	}
}

func TestSetVersionKeepsStaticData(t *testing.T) {
	t.Parallel()

	cfg := newAt(t, "v9")
	for _, candidate := range []any{"v10", "v8", 0, "abc", nil, 3, "v3.3", "v1"} {
		cfg.SetVersion(candidate)
	}

	if cfg.DatabaseURL() != DatabaseURL {
		t.Fatalf("database URL changed to %s", cfg.DatabaseURL())
	}
	want := []string{"alphabet", "continent", "country", "language", "variant", "base", "decompose", "diacritic"}
	if diff := cmp.Diff(want, cfg.ValidFilters()); diff != "" {
		t.Fatalf("filters changed (-want +got):\n%s", diff)
	}
}

func TestObserverReceivesEveryAttempt(t *testing.T) {
	t.Parallel()

	var got []Outcome
	cfg := New(WithObserver(func(res UpdateResult) {
		got = append(got, res.Outcome)
	}), WithObserver(nil))

	cfg.SetVersion("v2")
	cfg.SetVersion("v1")
	cfg.SetVersion("x")

	want := []Outcome{OutcomeUpgrade, OutcomeReaffirmed, OutcomeNotANumber}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected outcomes (-want +got):\n%s", diff)
	}
}

func TestVersionConfigConcurrentAccess(t *testing.T) {
	cfg := newAt(t, "v64")
	var wg sync.WaitGroup

	for i := 0; i < 64; i++ {
		wg.Add(2)

		go func(n int) {
			defer wg.Done()
			cfg.SetVersion(fmt.Sprintf("v%d", n+1))
		}(i)

		go func() {
			defer wg.Done()
			if _, ok := apiversion.ParseInt(cfg.Version()); !ok {
				t.Errorf("observed unparsable version %q", cfg.Version())
			}
		}()
	}

	wg.Wait()

	if got := cfg.Number(); got != 1 {
		t.Fatalf("expected every downgrade to settle at 1, got %d", got)
	}
}

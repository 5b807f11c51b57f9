package diacritics

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/eugenenazirov/diacritics-settings/internal/apiversion"
)

const (
	// DatabaseURL is the base URL of the diacritics API.
	DatabaseURL = "http://api.diacritics.io/"
	// DefaultVersion is the API major version the client is written against.
	DefaultVersion = "v1"
)

// Outcome classifies a version update attempt.
type Outcome string

const (
	OutcomeDowngraded  Outcome = "downgraded"
	OutcomeReaffirmed  Outcome = "reaffirmed"
	OutcomeNotANumber  Outcome = "not_a_number"
	OutcomeNonPositive Outcome = "non_positive"
	OutcomeUpgrade     Outcome = "upgrade"
)

// Applied reports whether the outcome replaced the stored version.
func (o Outcome) Applied() bool {
	return o == OutcomeDowngraded || o == OutcomeReaffirmed
}

// UpdateResult describes a single version update attempt.
type UpdateResult struct {
	Version  string
	Previous string
	Outcome  Outcome
	Applied  bool
}

// Observer is notified after every version update attempt.
type Observer func(UpdateResult)

// Option configures a VersionConfig.
type Option func(*VersionConfig)

// WithObserver registers fn to be called after each update attempt, outside the lock.
func WithObserver(fn Observer) Option {
	return func(c *VersionConfig) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// VersionConfig is the shared, read-mostly settings object for API consumers.
// The stored version can only move to a positive version that does not exceed
// the current one.
type VersionConfig struct {
	mu      sync.RWMutex
	version string

	observers []Observer
}

// New returns settings pinned to DefaultVersion.
func New(opts ...Option) *VersionConfig {
	c := &VersionConfig{version: DefaultVersion}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWithVersion returns settings starting at initial, which must parse to a positive version.
func NewWithVersion(initial any, opts ...Option) (*VersionConfig, error) {
	if _, err := apiversion.Parse(initial); err != nil {
		return nil, fmt.Errorf("initial version: %w", err)
	}
	c := New(opts...)
	c.version = apiversion.Coerce(initial)
	return c, nil
}

// DatabaseURL returns the base URL of the diacritics API.
func (c *VersionConfig) DatabaseURL() string {
	return DatabaseURL
}

// ValidFilters returns a copy of the accepted filter names.
func (c *VersionConfig) ValidFilters() []string {
	return ValidFilters()
}

// Version returns the stored version exactly as it was last accepted.
func (c *VersionConfig) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.version
}

// Number returns the parsed number of the stored version.
func (c *VersionConfig) Number() int64 {
	n, _ := apiversion.ParseInt(c.Version())
	return n
}

// Endpoint returns the versioned base URL, e.g. http://api.diacritics.io/v1.
func (c *VersionConfig) Endpoint() string {
	return DatabaseURL + url.PathEscape(c.Version())
}

// SetVersion attempts to move to candidate and returns the current version.
// Rejected candidates are ignored silently.
func (c *VersionConfig) SetVersion(candidate any) string {
	res, _ := c.TrySetVersion(candidate)
	return res.Version
}

// TrySetVersion attempts to move to candidate. The candidate is stored in its
// original string form when its parsed number is positive and not greater than
// the current one. The returned error is non-nil only for rejected candidates.
func (c *VersionConfig) TrySetVersion(candidate any) (UpdateResult, error) {
	raw := apiversion.Coerce(candidate)
	newV, newOK := apiversion.ParseInt(raw)

	c.mu.Lock()
	prev := c.version
	oldV, oldOK := apiversion.ParseInt(prev)

	var (
		outcome Outcome
		err     error
	)
	switch {
	case !newOK:
		outcome = OutcomeNotANumber
		err = fmt.Errorf("set version %q: %w", raw, apiversion.ErrNotANumber)
	case newV <= 0:
		outcome = OutcomeNonPositive
		err = fmt.Errorf("set version %q: %w", raw, apiversion.ErrNonPositive)
	case !oldOK || newV > oldV:
		outcome = OutcomeUpgrade
		err = fmt.Errorf("set version %q over %q: %w", raw, prev, ErrUpgrade)
	case newV < oldV:
		outcome = OutcomeDowngraded
	default:
		outcome = OutcomeReaffirmed
	}
	if outcome.Applied() {
		c.version = raw
	}
	res := UpdateResult{
		Version:  c.version,
		Previous: prev,
		Outcome:  outcome,
		Applied:  outcome.Applied(),
	}
	c.mu.Unlock()

	for _, fn := range c.observers {
		fn(res)
	}
	return res, err
}

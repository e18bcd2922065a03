package healthid

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	hid "github.com/healthid/healthid/pkg/healthid"
)

const (
	DefaultMaxAttempts = 12
	DefaultTimeout     = 1200 * time.Millisecond

	// MaxAttemptsLimit and MaxTimeout bound caller-supplied Options.
	MaxAttemptsLimit = 100
	MaxTimeout       = 10 * time.Second

	districtDigits = 4
	sequenceDigits = 8
)

// ErrExhausted is returned when every attempt produced an ID the directory
// already knows.
var ErrExhausted = errors.New("failed to generate unique health id")

// ErrInvalidOptions is returned for options above MaxAttemptsLimit or
// MaxTimeout.
var ErrInvalidOptions = errors.New("generation options out of range")

// Options tunes a single Generate call. Zero values select the defaults.
type Options struct {
	SkipRemoteCheck bool
	MaxAttempts     int
	Timeout         time.Duration
}

// withDefaults fills zero fields and clamps the rest to the hard limits.
func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	o.MaxAttempts = min(o.MaxAttempts, MaxAttemptsLimit)
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	o.Timeout = min(o.Timeout, MaxTimeout)
	return o
}

// Validate reports options that exceed the hard limits. Zero and negative
// values are left to the defaults.
func (o Options) Validate() error {
	if o.MaxAttempts > MaxAttemptsLimit {
		return fmt.Errorf("%w: max attempts %d exceeds %d", ErrInvalidOptions, o.MaxAttempts, MaxAttemptsLimit)
	}
	if o.Timeout > MaxTimeout {
		return fmt.Errorf("%w: timeout %s exceeds %s", ErrInvalidOptions, o.Timeout, MaxTimeout)
	}
	return nil
}

// Generator produces Health IDs. It holds no per-call state, so one
// Generator can serve concurrent callers.
type Generator struct {
	dir          Directory
	sources      SourceSelector
	logger       zerolog.Logger
	metrics      *Metrics
	defaultState string
}

// NewGenerator creates a Generator. dir may be nil, in which case every
// existence check answers not_found.
func NewGenerator(dir Directory, logger zerolog.Logger) *Generator {
	return &Generator{
		dir:          dir,
		sources:      DefaultSourceSelector(),
		logger:       logger,
		defaultState: hid.DefaultStateCode,
	}
}

func (g *Generator) SetMetrics(m *Metrics)                { g.metrics = m }
func (g *Generator) SetSourceSelector(sel SourceSelector) { g.sources = sel }

// SetDefaultStateCode changes the code used for missing or malformed state
// codes. A malformed code is ignored.
func (g *Generator) SetDefaultStateCode(code string) {
	if hid.IsWellFormedStateCode(code) {
		g.defaultState = code
	}
}

// ResolveStateCode returns stateCode when it is two digits, known or not,
// and the default code otherwise.
func (g *Generator) ResolveStateCode(stateCode string) string {
	if hid.IsWellFormedStateCode(stateCode) {
		return stateCode
	}
	return g.defaultState
}

// Generate returns one canonical Health ID for stateCode.
//
// The district code is drawn once per call; every attempt draws a fresh
// 8-digit sequence. A candidate already produced by this call is skipped.
// Unless SkipRemoteCheck is set the candidate is checked against the
// directory: exists retries, while not_found, timeout and error all accept
// the candidate so that a slow or broken directory never blocks issuance.
func (g *Generator) Generate(ctx context.Context, stateCode string, opts Options) (string, error) {
	return g.generate(ctx, stateCode, opts, modeSingle)
}

func (g *Generator) generate(ctx context.Context, stateCode string, opts Options, mode string) (string, error) {
	opts = opts.withDefaults()
	state := g.ResolveStateCode(stateCode)
	src := g.sources()
	district := g.draw(&src, districtDigits)

	seen := make(map[string]struct{}, min(opts.MaxAttempts, 16))
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		candidate := hid.New(state, district, g.draw(&src, sequenceDigits)).String()
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}

		if opts.SkipRemoteCheck {
			g.metrics.generated(mode)
			return candidate, nil
		}

		ex := CheckExists(ctx, g.dir, candidate, opts.Timeout)
		g.metrics.observeCheck(ex)
		switch ex.Result {
		case ResultExists:
			g.logger.Debug().Str("health_id", candidate).Int("attempt", attempt).Msg("health id already registered, retrying")
			continue
		case ResultTimeout:
			g.logger.Warn().Str("health_id", candidate).Dur("timeout", opts.Timeout).
				Msg("health id existence check timed out, continuing with local generation")
		case ResultError:
			g.logger.Warn().Err(ex.Cause).Str("health_id", candidate).
				Msg("health id existence check failed, continuing with local generation")
		}
		g.metrics.generated(mode)
		return candidate, nil
	}

	g.metrics.exhausted()
	g.logger.Error().Str("state_code", state).Int("attempts", opts.MaxAttempts).Msg("health id generation exhausted")
	return "", fmt.Errorf("%w after %d attempts", ErrExhausted, opts.MaxAttempts)
}

// draw reads n digits, switching the call over to FallbackSource if the
// current source fails.
func (g *Generator) draw(src *DigitSource, n int) string {
	digits, err := (*src).Digits(n)
	if err == nil && len(digits) == n {
		return digits
	}
	g.logger.Warn().Err(err).Msg("random source failed, using fallback source")
	*src = FallbackSource()
	digits, _ = (*src).Digits(n)
	return digits
}

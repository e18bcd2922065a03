package healthid

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/healthid/healthid/pkg/demographics"
	hid "github.com/healthid/healthid/pkg/healthid"
)

var (
	ErrRegistryUnavailable = errors.New("health id registry is not configured")
	ErrBatchTooLarge       = errors.New("batch size exceeds the configured maximum")
	ErrMissingName         = errors.New("full_name is required")
)

const provisionChunk = 500

// Settings carries the generation knobs loaded from configuration.
type Settings struct {
	MaxAttempts int
	Timeout     time.Duration
	BatchMax    int
	BatchPause  time.Duration
}

// rememberer is implemented by directories that cache issued numbers.
type rememberer interface {
	Remember(ctx context.Context, healthID string)
}

type Service struct {
	repo     Registry
	gen      *Generator
	settings Settings
	logger   zerolog.Logger
	cache    rememberer
}

// NewService wires the generator to the registry. repo may be nil, in which
// case generation still works but nothing is persisted or verified.
func NewService(repo Registry, gen *Generator, settings Settings, logger zerolog.Logger) *Service {
	return &Service{repo: repo, gen: gen, settings: settings, logger: logger}
}

// SetCache registers a cache to be told about freshly issued numbers.
func (s *Service) SetCache(c *CachedDirectory) { s.cache = c }

func (s *Service) Generator() *Generator { return s.gen }

func (s *Service) options(skipRemote bool) Options {
	return Options{
		SkipRemoteCheck: skipRemote,
		MaxAttempts:     s.settings.MaxAttempts,
		Timeout:         s.settings.Timeout,
	}
}

// Generate returns a Health ID without persisting it. Zero fields in opts
// fall back to the configured settings; values above the generator limits
// fail with ErrInvalidOptions.
func (s *Service) Generate(ctx context.Context, stateCode string, opts Options) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = s.settings.MaxAttempts
	}
	if opts.Timeout <= 0 {
		opts.Timeout = s.settings.Timeout
	}
	return s.gen.Generate(ctx, stateCode, opts)
}

// GenerateBatch returns count Health IDs without persisting them.
func (s *Service) GenerateBatch(ctx context.Context, count int, stateCode string, remoteCheck bool) ([]string, error) {
	if s.settings.BatchMax > 0 && count > s.settings.BatchMax {
		return nil, fmt.Errorf("%w (%d > %d)", ErrBatchTooLarge, count, s.settings.BatchMax)
	}
	return s.gen.GenerateBatch(ctx, count, stateCode, BatchOptions{
		RemoteCheck: remoteCheck,
		Timeout:     s.settings.Timeout,
		Pause:       s.settings.BatchPause,
	})
}

func (s *Service) resolveState(req IssueRequest) string {
	if req.StateCode != "" {
		return req.StateCode
	}
	if req.StateName != "" {
		return hid.StateCode(req.StateName)
	}
	return ""
}

// Issue generates a Health ID for a person and stores it. A unique-key
// collision on insert, which the directory check cannot rule out, gets one
// fresh attempt before the error is returned.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	if s.repo == nil {
		return nil, ErrRegistryUnavailable
	}
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return nil, ErrMissingName
	}
	dob, err := demographics.ParseBirthDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}
	if dob.After(time.Now()) {
		return nil, fmt.Errorf("%w: date is in the future", demographics.ErrInvalidBirthDate)
	}

	state := s.gen.ResolveStateCode(s.resolveState(req))
	var rec *Record
	for try := 0; try < 2; try++ {
		number, err := s.gen.Generate(ctx, state, s.options(false))
		if err != nil {
			return nil, err
		}
		rec = &Record{
			HealthIDNumber: number,
			FullName:       &name,
			DateOfBirth:    &dob,
			StateCode:      state,
			IsActive:       true,
		}
		err = s.repo.Create(ctx, rec)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrDuplicate) || try == 1 {
			return nil, err
		}
		s.logger.Warn().Str("health_id", number).Msg("health id claimed concurrently, regenerating")
	}

	if s.cache != nil {
		s.cache.Remember(ctx, rec.HealthIDNumber)
	}
	s.logger.Info().Str("health_id", rec.HealthIDNumber).Str("state_code", state).Msg("health id issued")
	return &IssueResult{
		Record: rec,
		QRData: hid.GenerateQRData(rec.HealthIDNumber, name, rec.DOBString()),
	}, nil
}

// Verify checks the format of healthID and, when valid, looks it up in the
// registry. An invalid format never reaches the registry.
func (s *Service) Verify(ctx context.Context, healthID string) *VerifyResult {
	if !hid.IsValid(healthID) {
		return &VerifyResult{Error: "invalid health id format"}
	}
	if s.repo == nil {
		return &VerifyResult{Valid: true, Error: ErrRegistryUnavailable.Error()}
	}
	// Canonical input formats to itself; this keys the lookup on the stored form.
	key, _ := hid.Format(hid.Normalize(healthID))
	rec, err := s.repo.GetByNumber(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error().Err(err).Str("health_id", key).Msg("health id lookup failed")
		}
		return &VerifyResult{Valid: true, Error: ErrNotFound.Error()}
	}
	return &VerifyResult{Valid: true, Exists: true, Active: rec.IsActive, Data: rec}
}

// Provision generates count unassigned Health IDs and stores them inactive,
// inserting chunks concurrently. It returns the number of rows stored.
func (s *Service) Provision(ctx context.Context, count int, stateCode string) (int, error) {
	if s.repo == nil {
		return 0, ErrRegistryUnavailable
	}
	if s.settings.BatchMax > 0 && count > s.settings.BatchMax {
		return 0, fmt.Errorf("%w (%d > %d)", ErrBatchTooLarge, count, s.settings.BatchMax)
	}
	state := s.gen.ResolveStateCode(stateCode)
	ids, err := s.gen.GenerateBatch(ctx, count, state, BatchOptions{
		Timeout: s.settings.Timeout,
		Pause:   s.settings.BatchPause,
	})
	if err != nil {
		return 0, err
	}

	var inserted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(ids); start += provisionChunk {
		end := min(start+provisionChunk, len(ids))
		records := make([]*Record, 0, end-start)
		for _, id := range ids[start:end] {
			records = append(records, &Record{HealthIDNumber: id, StateCode: state})
		}
		g.Go(func() error {
			n, err := s.repo.CreateBatch(gctx, records)
			inserted.Add(int64(n))
			return err
		})
	}
	err = g.Wait()
	n := int(inserted.Load())
	s.logger.Info().Int("requested", count).Int("inserted", n).Str("state_code", state).Msg("health ids provisioned")
	return n, err
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	if s.repo == nil {
		return nil, 0, ErrRegistryUnavailable
	}
	return s.repo.List(ctx, limit, offset)
}

// SetActive activates or deactivates a registered Health ID.
func (s *Service) SetActive(ctx context.Context, healthID string, active bool) error {
	if s.repo == nil {
		return ErrRegistryUnavailable
	}
	key, err := hid.Format(healthID)
	if err != nil || !hid.IsValid(key) {
		return &hid.FormatError{Input: healthID, Reason: "not a valid health id"}
	}
	return s.repo.SetActive(ctx, key, active)
}

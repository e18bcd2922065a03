package healthid

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	hid "github.com/healthid/healthid/pkg/healthid"
)

// scriptedSource replays fixed digit strings in order, then fails.
type scriptedSource struct {
	mu   sync.Mutex
	vals []string
	next int
}

func script(vals ...string) *scriptedSource { return &scriptedSource{vals: vals} }

func (s *scriptedSource) Digits(n int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.vals) {
		return "", errors.New("script exhausted")
	}
	v := s.vals[s.next]
	s.next++
	return v, nil
}

func newTestGenerator(dir Directory, src DigitSource) *Generator {
	g := NewGenerator(dir, zerolog.Nop())
	if src != nil {
		g.SetSourceSelector(func() DigitSource { return src })
	}
	return g
}

func TestGenerate_SkipRemoteCheck(t *testing.T) {
	dir := &countingDir{found: true}
	g := newTestGenerator(dir, nil)

	id, err := g.Generate(context.Background(), "", Options{SkipRemoteCheck: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hid.IsValid(id) {
		t.Errorf("expected canonical id, got %q", id)
	}
	if !strings.HasPrefix(id, "01-") {
		t.Errorf("expected default state prefix, got %q", id)
	}
	if dir.calls.Load() != 0 {
		t.Errorf("expected no directory calls, got %d", dir.calls.Load())
	}
}

func TestGenerate_StateCodeResolution(t *testing.T) {
	tests := []struct {
		state string
		want  string
	}{
		{"27", "27-"},
		{"99", "99-"},
		{"", "01-"},
		{"1", "01-"},
		{"AB", "01-"},
		{"123", "01-"},
	}
	g := newTestGenerator(nil, nil)
	for _, tt := range tests {
		id, err := g.Generate(context.Background(), tt.state, Options{})
		if err != nil {
			t.Fatalf("Generate(%q) error: %v", tt.state, err)
		}
		if !strings.HasPrefix(id, tt.want) {
			t.Errorf("Generate(%q) = %q, want prefix %q", tt.state, id, tt.want)
		}
	}
}

func TestGenerate_ConfiguredDefaultState(t *testing.T) {
	g := newTestGenerator(nil, nil)
	g.SetDefaultStateCode("07")
	g.SetDefaultStateCode("x")

	id, err := g.Generate(context.Background(), "", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(id, "07-") {
		t.Errorf("expected configured default 07, got %q", id)
	}
}

func TestGenerate_DistrictFixedPerCall(t *testing.T) {
	g := newTestGenerator(nil, script("4321", "00000042"))
	id, err := g.Generate(context.Background(), "27", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "27-4321-0000-0042" {
		t.Errorf("expected 27-4321-0000-0042, got %s", id)
	}
}

func TestGenerate_ExhaustsWhenAlwaysExists(t *testing.T) {
	dir := &countingDir{found: true}
	g := newTestGenerator(dir, nil)

	_, err := g.Generate(context.Background(), "01", Options{MaxAttempts: 3})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("expected attempt count in error, got %q", err.Error())
	}
	if dir.calls.Load() != 3 {
		t.Errorf("expected exactly 3 directory calls, got %d", dir.calls.Load())
	}
}

func TestGenerate_ClampsAttemptsToLimit(t *testing.T) {
	dir := &countingDir{found: true}
	g := newTestGenerator(dir, nil)

	_, err := g.Generate(context.Background(), "01", Options{MaxAttempts: 20_000_000, Timeout: time.Second})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if dir.calls.Load() != MaxAttemptsLimit {
		t.Errorf("expected %d directory calls, got %d", MaxAttemptsLimit, dir.calls.Load())
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"zero", Options{}, false},
		{"at limits", Options{MaxAttempts: MaxAttemptsLimit, Timeout: MaxTimeout}, false},
		{"attempts above limit", Options{MaxAttempts: MaxAttemptsLimit + 1}, true},
		{"timeout above limit", Options{Timeout: MaxTimeout + time.Millisecond}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr != (err != nil) {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("expected ErrInvalidOptions, got %v", err)
			}
		})
	}
}

func TestGenerate_RetriesOnExists(t *testing.T) {
	taken := "01-1111-0000-0001"
	var calls int
	dir := dirFunc(func(_ context.Context, id string) (bool, error) {
		calls++
		return id == taken, nil
	})
	g := newTestGenerator(dir, script("1111", "00000001", "00000002"))

	id, err := g.Generate(context.Background(), "01", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "01-1111-0000-0002" {
		t.Errorf("expected second candidate, got %s", id)
	}
	if calls != 2 {
		t.Errorf("expected 2 directory calls, got %d", calls)
	}
}

func TestGenerate_SkipsCandidateSeenInSameCall(t *testing.T) {
	taken := "01-1111-0000-0001"
	var calls int
	dir := dirFunc(func(_ context.Context, id string) (bool, error) {
		calls++
		return id == taken, nil
	})
	g := newTestGenerator(dir, script("1111", "00000001", "00000001", "00000002"))

	id, err := g.Generate(context.Background(), "01", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "01-1111-0000-0002" {
		t.Errorf("expected fresh candidate, got %s", id)
	}
	if calls != 2 {
		t.Errorf("expected the repeated candidate not to be checked again, got %d calls", calls)
	}
}

func TestGenerate_AcceptsOnTimeout(t *testing.T) {
	dir := &countingDir{found: true, delay: 500 * time.Millisecond}
	g := newTestGenerator(dir, nil)

	start := time.Now()
	id, err := g.Generate(context.Background(), "01", Options{Timeout: 30 * time.Millisecond})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hid.IsValid(id) {
		t.Errorf("expected valid id, got %q", id)
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("expected to return soon after the timeout, took %s", elapsed)
	}
	if dir.calls.Load() != 1 {
		t.Errorf("expected a single check, got %d", dir.calls.Load())
	}
}

func TestGenerate_AcceptsOnDirectoryFailure(t *testing.T) {
	tests := []struct {
		name string
		dir  Directory
	}{
		{"error", &countingDir{err: errors.New("db down")}},
		{"panic", dirFunc(func(context.Context, string) (bool, error) { panic("nil map") })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(tt.dir, nil)
			id, err := g.Generate(context.Background(), "01", Options{})
			if err != nil {
				t.Fatalf("expected directory failure to be absorbed, got %v", err)
			}
			if !hid.IsValid(id) {
				t.Errorf("expected valid id, got %q", id)
			}
		})
	}
}

func TestGenerate_FallsBackWhenSourceFails(t *testing.T) {
	// The script runs dry after the district, so sequences come from the fallback.
	g := newTestGenerator(nil, script("5555"))
	id, err := g.Generate(context.Background(), "01", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(id, "01-5555-") || !hid.IsValid(id) {
		t.Errorf("unexpected id %q", id)
	}
}

func TestGenerate_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	taken := "01-1111-0000-0001"
	dir := dirFunc(func(_ context.Context, id string) (bool, error) { return id == taken, nil })
	g := newTestGenerator(dir, script("1111", "00000001", "00000002"))
	g.SetMetrics(m)

	if _, err := g.Generate(context.Background(), "01", Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := testutil.ToFloat64(m.Generated.WithLabelValues(modeSingle)); got != 1 {
		t.Errorf("expected 1 generated, got %v", got)
	}
	if got := testutil.ToFloat64(m.ExistenceChecks.WithLabelValues("exists")); got != 1 {
		t.Errorf("expected 1 exists check, got %v", got)
	}
	if got := testutil.ToFloat64(m.ExistenceChecks.WithLabelValues("not_found")); got != 1 {
		t.Errorf("expected 1 not_found check, got %v", got)
	}

	exhausting := newTestGenerator(&countingDir{found: true}, nil)
	exhausting.SetMetrics(m)
	_, _ = exhausting.Generate(context.Background(), "01", Options{MaxAttempts: 2})
	if got := testutil.ToFloat64(m.Exhausted); got != 1 {
		t.Errorf("expected 1 exhaustion, got %v", got)
	}
}

func TestGenerate_Concurrent(t *testing.T) {
	g := newTestGenerator(&countingDir{}, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := g.Generate(context.Background(), "27", Options{})
			if err == nil && !hid.IsValid(id) {
				err = errors.New("invalid id " + id)
			}
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

package healthid

import (
	"context"
	"time"
)

const (
	DefaultBatchSize  = 100
	DefaultBatchPause = 2 * time.Millisecond
)

// BatchOptions tunes GenerateBatch. Remote checks are off unless RemoteCheck
// is set. A zero Pause selects DefaultBatchPause; a negative Pause disables it.
type BatchOptions struct {
	RemoteCheck bool
	Timeout     time.Duration
	Pause       time.Duration
}

// GenerateBatch produces count Health IDs for stateCode.
//
// On an in-batch duplicate one extra ID is generated and kept whatever it
// is, so the batch is unique only with overwhelming probability, not by
// construction. The pause between items only spaces out draws from weak
// random sources.
func (g *Generator) GenerateBatch(ctx context.Context, count int, stateCode string, opts BatchOptions) ([]string, error) {
	if count <= 0 {
		return []string{}, nil
	}
	pause := opts.Pause
	if pause == 0 {
		pause = DefaultBatchPause
	}
	single := Options{
		SkipRemoteCheck: !opts.RemoteCheck,
		MaxAttempts:     DefaultMaxAttempts,
		Timeout:         opts.Timeout,
	}

	ids := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id, err := g.generate(ctx, stateCode, single, modeBatch)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			g.metrics.batchCollision()
			g.logger.Warn().Str("health_id", id).Int("index", i).Msg("duplicate health id in batch, regenerating once")
			retry := single
			retry.SkipRemoteCheck = true
			if id, err = g.generate(ctx, stateCode, retry, modeBatch); err != nil {
				return nil, err
			}
		}
		ids = append(ids, id)
		seen[id] = struct{}{}

		if pause > 0 && i < count-1 {
			if err := sleepCtx(ctx, pause); err != nil {
				return nil, err
			}
		}
	}
	return ids, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

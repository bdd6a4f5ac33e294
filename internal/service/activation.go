package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/auditlens/internal/config"
	"github.com/Rrens/auditlens/internal/domain"
	"github.com/Rrens/auditlens/internal/llm"
	"github.com/rs/zerolog/log"
)

const defaultPollInterval = time.Second

// Poller waits for uploaded documents to finish remote processing
type Poller struct {
	provider    llm.Provider
	interval    time.Duration
	maxAttempts int
	timeout     time.Duration
}

// NewPoller creates a poller bounded by cfg
func NewPoller(provider llm.Provider, cfg config.ActivationConfig) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		provider:    provider,
		interval:    interval,
		maxAttempts: cfg.MaxAttempts,
		timeout:     cfg.Timeout,
	}
}

// AwaitActive blocks until every ref is active, returning the refreshed refs
// in input order. The timeout covers the whole batch. Any failed document
// aborts the batch.
func (p *Poller) AwaitActive(ctx context.Context, refs []domain.DocumentRef) ([]domain.DocumentRef, error) {
	waitCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	log.Info().Int("files", len(refs)).Msg("Waiting for file processing")

	active := make([]domain.DocumentRef, 0, len(refs))
	for _, ref := range refs {
		cur, err := p.await(ctx, waitCtx, ref)
		if err != nil {
			return nil, err
		}
		active = append(active, cur)
	}

	log.Info().Int("files", len(active)).Msg("All files ready")
	return active, nil
}

func (p *Poller) await(parent, ctx context.Context, ref domain.DocumentRef) (domain.DocumentRef, error) {
	for attempt := 1; ; attempt++ {
		cur, err := p.provider.GetFile(ctx, ref.ID)
		if err != nil {
			if ctx.Err() != nil {
				return domain.DocumentRef{}, p.waitErr(parent, ref, attempt)
			}
			return domain.DocumentRef{}, &domain.RemoteServiceError{Op: "get file", Err: err}
		}

		if cur.State.Terminal() {
			if cur.State == domain.DocumentStateFailed {
				return domain.DocumentRef{}, &domain.DocumentProcessingError{Name: ref.ID, State: cur.State}
			}
			return cur, nil
		}

		log.Debug().
			Str("file", ref.ID).
			Str("state", string(cur.State)).
			Int("attempt", attempt).
			Msg("File not ready")

		if p.maxAttempts > 0 && attempt >= p.maxAttempts {
			return domain.DocumentRef{}, fmt.Errorf("%w: %s still %s after %d attempts",
				domain.ErrActivationTimeout, ref.ID, cur.State, attempt)
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.DocumentRef{}, p.waitErr(parent, ref, attempt)
		case <-timer.C:
		}
	}
}

// waitErr reports caller cancellation as is and the poller's own deadline as a timeout
func (p *Poller) waitErr(parent context.Context, ref domain.DocumentRef, attempt int) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s not active within %s (%d attempts)",
		domain.ErrActivationTimeout, ref.ID, p.timeout, attempt)
}

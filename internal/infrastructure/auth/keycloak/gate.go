package keycloak

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/mfa-engine/internal/config"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
)

// Cancellable is the subset of analysis.Orchestrator's terminate-flag
// contract the gate needs. Defined locally so this package does not import
// internal/analysis.
type Cancellable interface {
	Cancel()
}

// Gate registers a bearer token against a running job and polls its
// Keycloak introspection status on an interval; once the token is no
// longer active (expired, or revoked via Logout), the gate calls Cancel on
// the job's Cancellable. It is the distributed counterpart to
// analysis.Orchestrator's in-process terminate flag: a client cancels a
// long-running recursive-MILP or gap-fill run from another process by
// invalidating the token it submitted the job with.
type Gate struct {
	provider     AuthProvider
	pollInterval time.Duration
	logger       logging.Logger

	mu   sync.Mutex
	jobs map[string]*watchedJob
}

type watchedJob struct {
	token  string
	target Cancellable
	cancel context.CancelFunc
}

// NewGate constructs a Gate backed by provider, polling at cfg.PollInterval
// (or 2s if unset).
func NewGate(provider AuthProvider, cfg config.AuthGateConfig, logger logging.Logger) *Gate {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Gate{
		provider:     provider,
		pollInterval: interval,
		logger:       logger,
		jobs:         make(map[string]*watchedJob),
	}
}

// Register starts polling token's introspection status for jobID and calls
// target.Cancel() the first time the token is no longer active. Calling
// Register again for a jobID already being watched replaces the prior
// watch.
func (g *Gate) Register(ctx context.Context, jobID, token string, target Cancellable) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.jobs[jobID]; ok {
		existing.cancel()
	}

	watchCtx, cancel := context.WithCancel(ctx)
	job := &watchedJob{token: token, target: target, cancel: cancel}
	g.jobs[jobID] = job

	go g.watch(watchCtx, jobID, job)
}

// Unregister stops polling jobID's token, typically called once the job
// completes on its own.
func (g *Gate) Unregister(jobID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if job, ok := g.jobs[jobID]; ok {
		job.cancel()
		delete(g.jobs, jobID)
	}
}

func (g *Gate) watch(ctx context.Context, jobID string, job *watchedJob) {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := g.provider.IntrospectToken(ctx, job.token)
			if err != nil {
				g.logger.Warn("cancellation gate introspection failed", logging.String("job_id", jobID), logging.Err(err))
				continue
			}
			if !result.Active {
				g.logger.Info("cancellation token inactive, cancelling job", logging.String("job_id", jobID))
				job.target.Cancel()
				g.mu.Lock()
				delete(g.jobs, jobID)
				g.mu.Unlock()
				return
			}
		}
	}
}

// Package syncer reconciles the local repository with the remote store: pending
// records are pushed first, then the remote state is pulled back.
package syncer

import (
	"alcyxob/myhealth/internal/domain"
	"alcyxob/myhealth/internal/local"
	"alcyxob/myhealth/internal/repository"
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Reasons a sync did not run.
const (
	SkipNoIdentity = "no authenticated identity"
	SkipNoRemote   = "no remote store configured"
	SkipInFlight   = "sync already in progress"
)

// Report summarizes one Sync call.
type Report struct {
	Skipped   string        `json:"skipped,omitempty"`
	Pushed    int           `json:"pushed"`
	Failed    int           `json:"failed"`
	Pulled    int           `json:"pulled"`
	Malformed int           `json:"malformed"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

// Ran reports whether the sync actually ran.
func (r Report) Ran() bool {
	return r.Skipped == ""
}

func (r *Report) add(pushed, failed int) {
	r.Pushed += pushed
	r.Failed += failed
}

// Engine drives synchronization between the local repository and a remote gateway.
// At most one sync runs at a time; overlapping calls return immediately.
type Engine struct {
	repo    *local.Repository
	gateway repository.Gateway
	syncing atomic.Bool

	mu   sync.Mutex
	last Report
}

// NewEngine creates a sync engine. A nil gateway keeps the engine offline.
func NewEngine(repo *local.Repository, gateway repository.Gateway) *Engine {
	return &Engine{repo: repo, gateway: gateway}
}

func (e *Engine) IsSyncing() bool {
	return e.syncing.Load()
}

// LastReport returns the report of the most recent sync that ran.
func (e *Engine) LastReport() Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Sync pushes pending local records and then pulls the remote state for user.
// Failures are logged and counted in the report; they never abort the run.
func (e *Engine) Sync(ctx context.Context, user *domain.Identity) Report {
	if user == nil || user.UserID == "" {
		return Report{Skipped: SkipNoIdentity}
	}
	if e.gateway == nil {
		return Report{Skipped: SkipNoRemote}
	}
	if !e.syncing.CompareAndSwap(false, true) {
		return Report{Skipped: SkipInFlight}
	}
	defer e.syncing.Store(false)

	report := Report{StartedAt: e.repo.Now()}
	start := time.Now()

	log.Printf("INFO: Sync started for user %s", user.UserID)
	e.push(ctx, *user, &report)
	e.pull(ctx, *user, &report)
	report.Duration = time.Since(start)
	log.Printf("INFO: Sync finished for user %s: pushed=%d failed=%d pulled=%d malformed=%d (%s)",
		user.UserID, report.Pushed, report.Failed, report.Pulled, report.Malformed, report.Duration)

	e.mu.Lock()
	e.last = report
	e.mu.Unlock()
	return report
}

// IdentitySource returns the currently authenticated identity, or nil in guest mode.
type IdentitySource func() *domain.Identity

// Run syncs immediately and then every interval until ctx is done.
func (e *Engine) Run(ctx context.Context, current IdentitySource, interval time.Duration) {
	if interval <= 0 {
		log.Println("WARN: Sync interval not positive, periodic sync disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if report := e.Sync(ctx, current()); !report.Ran() && report.Skipped != SkipNoIdentity {
			log.Printf("INFO: Periodic sync skipped: %s", report.Skipped)
		}
		select {
		case <-ctx.Done():
			log.Println("INFO: Periodic sync stopped")
			return
		case <-ticker.C:
		}
	}
}

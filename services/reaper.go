package services

import (
	"context"
	"log"
	"time"

	"github.com/Guillaumeperrottet/selfkey-sub000/metrics"
)

// PendingReaper cancels pending bookings that never reached confirmed within
// the operator-configured timeout, releasing the inventory they hold. The
// timeout is deployment policy (PENDING_TIMEOUT), not a constant.
type PendingReaper struct {
	Ledger   *LedgerService
	Timeout  time.Duration
	Interval time.Duration
}

func NewPendingReaper(ledger *LedgerService, timeout, interval time.Duration) *PendingReaper {
	return &PendingReaper{Ledger: ledger, Timeout: timeout, Interval: interval}
}

// Run loops until the context is cancelled.
func (r *PendingReaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := r.ReapOnce(time.Now().UTC()); err != nil {
				log.Printf("pending reaper pass failed: %v", err)
			} else if n > 0 {
				log.Printf("pending reaper cancelled %d abandoned booking(s)", n)
			}
		}
	}
}

// ReapOnce cancels every pending booking older than now minus the timeout
// and returns how many it reclaimed. Cancellation is idempotent, so racing a
// guest's own cancel is harmless.
func (r *PendingReaper) ReapOnce(now time.Time) (int, error) {
	stale, err := r.Ledger.ListExpiredPending(now.Add(-r.Timeout))
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, b := range stale {
		if _, err := r.Ledger.Cancel(b.ID); err != nil {
			log.Printf("failed to reap pending booking %s: %v", b.ReferenceCode, err)
			continue
		}
		metrics.IncBookingCancelled()
		reaped++
	}
	return reaped, nil
}

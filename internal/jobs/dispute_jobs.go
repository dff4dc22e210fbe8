package jobs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"camrent-web/internal/domain"
	"camrent-web/internal/logger"
	"camrent-web/internal/utils"
)

const disputeFetchConcurrency = 4

// DigestStaleDisputes mails ops the disputes that have sat Open or
// InProgress for longer than jobs.open_dispute_max_age_hours.
func (jr *JobRunner) DigestStaleDisputes() {
	jr.runWithRecovery("DigestStaleDisputes", func(ctx context.Context) error {
		_, err := jr.digestStaleDisputes(ctx)
		return err
	})
}

func (jr *JobRunner) digestStaleDisputes(ctx context.Context) ([]domain.Dispute, error) {
	ctx, err := jr.serviceContext(ctx)
	if err != nil {
		return nil, err
	}
	list, err := jr.services.Bookings.ListBookings(ctx, domain.BookingScopeStaff)
	if err != nil {
		return nil, fmt.Errorf("list staff bookings: %w", err)
	}

	now := jr.now()
	maxAge := time.Duration(jr.config.Jobs.OpenDisputeMaxAgeHours) * time.Hour

	var (
		mu    sync.Mutex
		stale []domain.Dispute
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(disputeFetchConcurrency)
	for _, b := range list {
		// Drafts never carry disputes.
		if b.Status == domain.BookingStatusDraft {
			continue
		}
		bookingID := b.ID
		g.Go(func() error {
			disputes, err := jr.services.Disputes.GetDisputesByBooking(gctx, bookingID)
			if err != nil {
				return fmt.Errorf("disputes of booking %s: %w", bookingID, err)
			}
			for _, d := range disputes {
				if d.Status.IsTerminal() || d.Status == domain.DisputeStatusUnknown {
					continue
				}
				if d.CreatedAt.IsZero() || now.Sub(d.CreatedAt.Time) < maxAge {
					continue
				}
				mu.Lock()
				stale = append(stale, d)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("Stale disputes found", "count", len(stale), "max_age_hours", jr.config.Jobs.OpenDisputeMaxAgeHours)
	if len(stale) == 0 {
		return nil, nil
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt.Time) })

	var body strings.Builder
	fmt.Fprintf(&body, "%d dispute(s) have been open for more than %d hours.\n\n", len(stale), jr.config.Jobs.OpenDisputeMaxAgeHours)
	for _, d := range stale {
		fmt.Fprintf(&body, "- %s  booking %s  [%s, %s]  %s  total %s  opened %s\n",
			d.ID, d.BookingID, d.Status, d.Severity, d.Title,
			utils.FormatVND(d.TotalAmount), d.CreatedAt.UTC().Format("2006-01-02 15:04"))
	}
	if err := jr.notifyOps(ctx, fmt.Sprintf("[CamRent] %d stale dispute(s)", len(stale)), body.String()); err != nil {
		return stale, err
	}
	return stale, nil
}

package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"camrent-web/internal/domain"
	"camrent-web/internal/logger"
	"camrent-web/internal/utils"
)

// FlagOverdueBookings reports bookings still out past their return time.
// The backend owns the status change; this job only tells ops about it.
func (jr *JobRunner) FlagOverdueBookings() {
	jr.runWithRecovery("FlagOverdueBookings", func(ctx context.Context) error {
		_, err := jr.flagOverdueBookings(ctx)
		return err
	})
}

func (jr *JobRunner) flagOverdueBookings(ctx context.Context) ([]domain.Booking, error) {
	ctx, err := jr.serviceContext(ctx)
	if err != nil {
		return nil, err
	}
	list, err := jr.services.Bookings.ListBookings(ctx, domain.BookingScopeStaff)
	if err != nil {
		return nil, fmt.Errorf("list staff bookings: %w", err)
	}

	now := jr.now()
	overdue := lo.Filter(list, func(b domain.Booking, _ int) bool { return b.IsOverdue(now) })
	logger.Info("Overdue bookings found", "count", len(overdue), "checked", len(list))
	if len(overdue) == 0 {
		return nil, nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%d booking(s) are past their return time as of %s.\n\n", len(overdue), now.UTC().Format(time.RFC3339))
	for _, b := range overdue {
		late := now.Sub(b.ReturnAt.Time).Round(time.Hour)
		logger.Debug("Overdue booking",
			"booking_id", b.ID,
			"renter", b.RenterName,
			"status", b.Status.String(),
			"return_at", b.ReturnAt.Time,
			"late", late)
		fmt.Fprintf(&body, "- %s  %s  due %s  (%s late, payable %s)\n",
			b.ID, b.RenterName, b.ReturnAt.UTC().Format("2006-01-02 15:04"), late,
			utils.FormatVND(utils.ComputeTotals(&b).Payable))
	}

	if err := jr.notifyOps(ctx, fmt.Sprintf("[CamRent] %d overdue booking(s)", len(overdue)), body.String()); err != nil {
		return overdue, err
	}
	return overdue, nil
}

func (jr *JobRunner) notifyOps(ctx context.Context, subject, body string) error {
	to := jr.config.Jobs.OpsEmail
	if to == "" {
		logger.Warn("No ops e-mail configured, digest not sent", "subject", subject)
		return nil
	}
	if err := jr.services.Notifier.Notify(ctx, to, subject, body); err != nil {
		return fmt.Errorf("notify ops: %w", err)
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"camrent-web/internal/domain"
	"camrent-web/internal/service"
	"camrent-web/internal/status"
	"camrent-web/internal/utils"
)

const timeLayout = "02/01/2006 15:04"

var now = time.Now

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

func formatTime(ts domain.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(timeLayout)
}

func itemName(it domain.BookingItem) string {
	if it.Product != nil {
		return it.Product.DisplayName()
	}
	return it.ItemID
}

func printBookings(w io.Writer, list []domain.Booking) {
	tw := newTable(w, "ID", "STATUS", "PICKUP", "RETURN", "DAYS", "ITEMS", "PAYABLE")
	t := now()
	for i := range list {
		b := &list[i]
		label := status.BookingStatusView(b.Status).Label
		if b.Status != domain.BookingStatusOverdue && b.IsOverdue(t) {
			label += " (quá hạn)"
		}
		row(tw, b.ID, label, formatTime(b.PickupAt), formatTime(b.ReturnAt),
			utils.RentalDays(b.PickupAt.Time, b.ReturnAt.Time), b.ItemCount(),
			utils.FormatVND(utils.ComputeTotals(b).Payable))
	}
	tw.Flush()
}

func printBookingDetail(w io.Writer, b *domain.Booking, inspections []domain.Inspection, actions []service.Action) {
	sv := status.BookingStatusView(b.Status)
	totals := utils.ComputeTotals(b)
	fmt.Fprintf(w, "Booking %s  [%s]\n", b.ID, sv.Label)
	if b.RenterName != "" {
		fmt.Fprintf(w, "Renter:  %s\n", b.RenterName)
	}
	fmt.Fprintf(w, "Window:  %s → %s (%d ngày)\n", formatTime(b.PickupAt), formatTime(b.ReturnAt),
		utils.RentalDays(b.PickupAt.Time, b.ReturnAt.Time))
	if b.AssignedStaffID != "" {
		fmt.Fprintf(w, "Staff:   %s\n", b.AssignedStaffID)
	}
	if b.ContractID != "" {
		fmt.Fprintf(w, "Contract: %s\n", b.ContractID)
	}
	fmt.Fprintln(w)

	tw := newTable(w, "ITEM", "TYPE", "QTY", "UNIT", "LINE")
	for _, it := range b.Items {
		row(tw, itemName(it), it.ItemType, it.Quantity, utils.FormatVND(it.UnitPrice), utils.FormatVND(it.LineTotal()))
	}
	tw.Flush()
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Rental:   %s\n", utils.FormatVND(totals.Rental))
	fmt.Fprintf(w, "Deposit:  %s\n", utils.FormatVND(totals.Deposit))
	fmt.Fprintf(w, "Fee:      %s\n", utils.FormatVND(totals.PlatformFee))
	fmt.Fprintf(w, "Payable:  %s\n", utils.FormatVND(totals.Payable))

	if len(inspections) > 0 {
		fmt.Fprintln(w)
		printInspections(w, inspections)
	}
	if len(actions) > 0 {
		names := make([]string, len(actions))
		for i, a := range actions {
			names[i] = string(a)
		}
		fmt.Fprintf(w, "\nNext: %s\n", strings.Join(names, ", "))
	}
}

func printCart(w io.Writer, cart *domain.Cart) {
	tw := newTable(w, "ITEM", "TYPE", "QTY", "UNIT/DAY")
	for _, it := range cart.Items {
		row(tw, itemName(it), it.ItemType, it.Quantity, utils.FormatVND(it.UnitPrice))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d item(s), %s per day\n", cart.ItemCount(), utils.FormatVND(utils.EstimateRental(cart.Items, 1)))
}

func printStaff(w io.Writer, staff []domain.Staff) {
	tw := newTable(w, "ID", "NAME", "EMAIL", "BRANCH")
	for _, s := range staff {
		row(tw, s.ID, s.FullName, s.Email, s.BranchID)
	}
	tw.Flush()
}

func printBranches(w io.Writer, branches []domain.Branch) {
	tw := newTable(w, "ID", "NAME", "ADDRESS")
	for _, b := range branches {
		row(tw, b.ID, b.Name, b.Address)
	}
	tw.Flush()
}

func printInspections(w io.Writer, list []domain.Inspection) {
	tw := newTable(w, "ID", "TYPE", "BY", "BRANCH", "PASSED", "AT")
	for i := range list {
		in := &list[i]
		row(tw, in.ID, status.MapInspectionType(int(in.Type)).Label, in.PerformedByUserID, in.BranchID,
			fmt.Sprintf("%d/%d", in.PassedCount(), len(in.Items)), formatTime(in.CreatedAt))
	}
	tw.Flush()
}

func printDisputes(w io.Writer, list []domain.Dispute) {
	tw := newTable(w, "ID", "TITLE", "SEVERITY", "STATUS", "TOTAL", "OPENED")
	for i := range list {
		d := &list[i]
		row(tw, d.ID, d.Title, status.MapSeverity(d.Severity).Label,
			status.MapDisputeStatus(d.RawStatus.Value()).Label,
			utils.FormatVND(d.TotalAmount), formatTime(d.CreatedAt))
	}
	tw.Flush()
}

func printDisputeDetail(w io.Writer, d *domain.Dispute) {
	fmt.Fprintf(w, "Dispute %s  [%s]\n", d.ID, status.MapDisputeStatus(d.RawStatus.Value()).Label)
	fmt.Fprintf(w, "Booking:  %s\n", d.BookingID)
	fmt.Fprintf(w, "Title:    %s\n", d.Title)
	fmt.Fprintf(w, "Severity: %s\n", status.MapSeverity(d.Severity).Label)
	if d.Description != "" {
		fmt.Fprintf(w, "\n%s\n", d.Description)
	}
	if len(d.Items) > 0 {
		fmt.Fprintln(w)
		tw := newTable(w, "TYPE", "AMOUNT", "NOTES")
		for _, it := range d.Items {
			row(tw, it.Type, utils.FormatVND(it.Amount), it.Notes)
		}
		tw.Flush()
	}
	fmt.Fprintf(w, "\nTotal: %s\n", utils.FormatVND(d.TotalAmount))
}

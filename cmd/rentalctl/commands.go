package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"camrent-web/internal/domain"
	"camrent-web/internal/service"
)

type loginCommand struct {
	cli      *cli
	Email    string `short:"e" long:"email" required:"yes" description:"Account e-mail"`
	Password string `short:"p" long:"password" env:"CAMRENT_PASSWORD" description:"Account password"`
}

func (c *loginCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	if c.Password == "" {
		return domain.NewValidationError("password", "password is required (--password or CAMRENT_PASSWORD)")
	}
	sess, err := a.auth.Login(a.ctx, a.sc, c.Email, c.Password)
	if err != nil {
		return err
	}
	if c.cli.JSON {
		return printJSON(c.cli.out, sess.UserInfo)
	}
	fmt.Fprintf(c.cli.out, "Signed in as %s (%s), session expires %s\n",
		sess.UserInfo.Email, sess.Role, sess.ExpiresAt.Local().Format(timeLayout))
	return nil
}

type logoutCommand struct {
	cli *cli
}

func (c *logoutCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	if err := a.auth.Logout(a.ctx, a.sc); err != nil {
		return err
	}
	fmt.Fprintln(c.cli.out, "Signed out")
	return nil
}

type whoamiCommand struct {
	cli *cli
}

func (c *whoamiCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	sess, err := a.sc.Current(a.ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return domain.ErrUnauthorized
	}
	if c.cli.JSON {
		return printJSON(c.cli.out, sess.UserInfo)
	}
	fmt.Fprintf(c.cli.out, "%s <%s>\nrole: %s\nuser id: %s\nexpires: %s\n",
		sess.UserInfo.FullName, sess.UserInfo.Email, sess.Role, sess.UserID,
		sess.ExpiresAt.Local().Format(timeLayout))
	return nil
}

type bookingsCommand struct {
	cli   *cli
	Scope string `short:"s" long:"scope" default:"all" choice:"all" choice:"staff" choice:"owner-renters" description:"Which booking list to read"`
}

func (c *bookingsCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	scope, err := domain.ParseBookingScope(c.Scope)
	if err != nil {
		return err
	}
	list, err := a.bookings.ListBookings(a.ctx, scope)
	if err != nil {
		return err
	}
	if c.cli.JSON {
		return printJSON(c.cli.out, list)
	}
	printBookings(c.cli.out, list)
	return nil
}

// bookingArg is the positional booking id shared by several commands.
type bookingArg struct {
	ID string `positional-arg-name:"booking-id" required:"yes"`
}

type disputeArg struct {
	ID string `positional-arg-name:"dispute-id" required:"yes"`
}

type bookingCommand struct {
	cli  *cli
	Args bookingArg `positional-args:"yes"`
}

func (c *bookingCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	b, err := a.bookings.GetBooking(a.ctx, c.Args.ID)
	if err != nil {
		return err
	}
	inspections, err := a.inspections.ListInspectionsForBooking(a.ctx, c.Args.ID)
	if err != nil {
		return err
	}
	sess, err := a.sc.Current(a.ctx)
	if err != nil {
		return err
	}
	var role domain.Role
	if sess != nil {
		role = sess.Role
	}
	actions := a.bookings.NextActions(b, role, inspections, now())
	if c.cli.JSON {
		return printJSON(c.cli.out, struct {
			Booking     *domain.Booking     `json:"booking"`
			Inspections []domain.Inspection `json:"inspections"`
			Actions     []service.Action    `json:"actions"`
		}{b, inspections, actions})
	}
	printBookingDetail(c.cli.out, b, inspections, actions)
	return nil
}

type cartCommand struct {
	cli *cli
}

func (c *cartCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	cart, err := a.bookings.GetCart(a.ctx)
	if err != nil {
		return err
	}
	if c.cli.JSON {
		return printJSON(c.cli.out, cart)
	}
	printCart(c.cli.out, cart)
	return nil
}

type staffCommand struct {
	cli *cli
}

func (c *staffCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	staff, err := a.bookings.ListStaff(a.ctx)
	if err != nil {
		return err
	}
	if c.cli.JSON {
		return printJSON(c.cli.out, staff)
	}
	printStaff(c.cli.out, staff)
	return nil
}

type assignCommand struct {
	cli   *cli
	Staff string `long:"staff" required:"yes" description:"Staff id to deliver the booking"`
	Notes string `long:"notes" description:"Delivery notes"`
	Fee   string `long:"fee" default:"0" description:"Delivery fee in dong"`
	Args  bookingArg `positional-args:"yes"`
}

func (c *assignCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	fee, err := parseAmount("fee", c.Fee)
	if err != nil {
		return err
	}
	b, err := a.bookings.AssignStaff(a.ctx, service.AssignRequest{
		BookingID:   c.Args.ID,
		StaffID:     c.Staff,
		Notes:       c.Notes,
		DeliveryFee: fee,
	})
	if err != nil {
		return err
	}
	return c.cli.showBooking(b)
}

type contractCommand struct {
	cli   *cli
	Notes string     `long:"notes" description:"Contract notes"`
	Args  bookingArg `positional-args:"yes"`
}

func (c *contractCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	b, err := a.bookings.CreateContract(a.ctx, c.Args.ID, c.Notes)
	if err != nil {
		return err
	}
	return c.cli.showBooking(b)
}

type completeCommand struct {
	cli  *cli
	Args bookingArg `positional-args:"yes"`
}

func (c *completeCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	b, err := a.bookings.CompleteBooking(a.ctx, c.Args.ID)
	if err != nil {
		return err
	}
	return c.cli.showBooking(b)
}

func (c *cli) showBooking(b *domain.Booking) error {
	if c.JSON {
		return printJSON(c.out, b)
	}
	printBookings(c.out, []domain.Booking{*b})
	return nil
}

type branchesCommand struct {
	cli *cli
}

func (c *branchesCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	branches, err := a.inspections.ListBranches(a.ctx)
	if err != nil {
		return err
	}
	if c.cli.JSON {
		return printJSON(c.cli.out, branches)
	}
	printBranches(c.cli.out, branches)
	return nil
}

type inspectionsCommand struct {
	cli  *cli
	Args bookingArg `positional-args:"yes"`
}

func (c *inspectionsCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	list, err := a.inspections.ListInspectionsForBooking(a.ctx, c.Args.ID)
	if err != nil {
		return err
	}
	if c.cli.JSON {
		return printJSON(c.cli.out, list)
	}
	printInspections(c.cli.out, list)
	return nil
}

// inspectCommand reads the checklist from a YAML (or JSON) file holding a
// list of {section, label, value, passed, notes} entries.
type inspectCommand struct {
	cli    *cli
	Type   string     `short:"t" long:"type" required:"yes" choice:"checkin" choice:"checkout" description:"Inspection type"`
	Branch string     `short:"b" long:"branch" required:"yes" description:"Branch id where the inspection happens"`
	Items  string     `short:"f" long:"items" required:"yes" description:"Checklist file"`
	Notes  string     `long:"notes" description:"Overall notes"`
	Args   bookingArg `positional-args:"yes"`
}

func (c *inspectCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	items, err := readChecklist(c.Items)
	if err != nil {
		return err
	}
	typ := domain.InspectionTypeCheckIn
	if c.Type == "checkout" {
		typ = domain.InspectionTypeCheckOut
	}
	err = a.inspections.CreateInspection(a.ctx, domain.CreateInspectionRequest{
		BookingID: c.Args.ID,
		Type:      typ,
		BranchID:  c.Branch,
		Notes:     c.Notes,
		Items:     items,
	})
	if err != nil {
		return err
	}
	list, err := a.inspections.ListInspectionsForBooking(a.ctx, c.Args.ID)
	if err != nil {
		return err
	}
	if c.cli.JSON {
		return printJSON(c.cli.out, list)
	}
	printInspections(c.cli.out, list)
	return nil
}

func readChecklist(path string) ([]domain.InspectionItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checklist: %w", err)
	}
	var items []domain.InspectionItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse checklist: %w", err)
	}
	return items, nil
}

type disputesCommand struct {
	cli  *cli
	Args bookingArg `positional-args:"yes"`
}

func (c *disputesCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	list, err := a.disputes.GetDisputesByBooking(a.ctx, c.Args.ID)
	if err != nil {
		return err
	}
	if c.cli.JSON {
		return printJSON(c.cli.out, list)
	}
	printDisputes(c.cli.out, list)
	return nil
}

type disputeCommand struct {
	cli  *cli
	Args disputeArg `positional-args:"yes"`
}

func (c *disputeCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	d, err := a.disputes.GetDisputeByID(a.ctx, c.Args.ID)
	if err != nil {
		return err
	}
	return c.cli.showDispute(d)
}

func (c *cli) showDispute(d *domain.Dispute) error {
	if c.JSON {
		return printJSON(c.out, d)
	}
	printDisputeDetail(c.out, d)
	return nil
}

type disputeCreateCommand struct {
	cli         *cli
	Title       string     `long:"title" required:"yes" description:"Short title"`
	Description string     `long:"description" required:"yes" description:"What happened"`
	Severity    string     `long:"severity" default:"Medium" description:"Low, Medium or High"`
	Args        bookingArg `positional-args:"yes"`
}

func (c *disputeCreateCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	severity, err := domain.ParseSeverity(c.Severity)
	if err != nil {
		return err
	}
	id, err := a.disputes.CreateDispute(a.ctx, domain.CreateDisputeRequest{
		BookingID:   c.Args.ID,
		Title:       c.Title,
		Description: c.Description,
		Severity:    severity,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.cli.out, id)
	return nil
}

type disputeItemCommand struct {
	cli    *cli
	Type   string     `long:"type" default:"Money" description:"Compensation type"`
	Amount string     `long:"amount" required:"yes" description:"Amount in dong"`
	Notes  string     `long:"notes" description:"What the amount covers"`
	Args   disputeArg `positional-args:"yes"`
}

func (c *disputeItemCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	typ, err := domain.ParseDisputeItemType(c.Type)
	if err != nil {
		return err
	}
	amount, err := parseAmount("amount", c.Amount)
	if err != nil {
		return err
	}
	d, err := a.disputes.AddDisputeItem(a.ctx, c.Args.ID, domain.AddDisputeItemRequest{
		Type:   typ,
		Amount: amount,
		Notes:  c.Notes,
	})
	if err != nil {
		return err
	}
	return c.cli.showDispute(d)
}

type resolveCommand struct {
	cli  *cli
	Args disputeArg `positional-args:"yes"`
}

func (c *resolveCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	d, err := a.disputes.ResolveDispute(a.ctx, c.Args.ID)
	if err != nil {
		return err
	}
	return c.cli.showDispute(d)
}

type rejectCommand struct {
	cli  *cli
	Args disputeArg `positional-args:"yes"`
}

func (c *rejectCommand) Execute(_ []string) error {
	a, err := c.cli.open()
	if err != nil {
		return err
	}
	d, err := a.disputes.RejectDispute(a.ctx, c.Args.ID)
	if err != nil {
		return err
	}
	return c.cli.showDispute(d)
}

// parseAmount accepts plain or dot-grouped dong amounts ("1.250.000").
func parseAmount(field, v string) (decimal.Decimal, error) {
	v = strings.TrimSpace(v)
	if strings.Count(v, ".") > 1 {
		v = strings.ReplaceAll(v, ".", "")
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, domain.NewValidationError(field, fmt.Sprintf("%q is not an amount", v))
	}
	return d, nil
}

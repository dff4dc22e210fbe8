// Command rentalctl drives the rental backend from a terminal with the same
// services the web server uses. The session is kept in the configured
// session file between invocations.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	"camrent-web/internal/backend"
	"camrent-web/internal/config"
	"camrent-web/internal/domain"
	"camrent-web/internal/logger"
	"camrent-web/internal/service"
	"camrent-web/internal/session"
)

// sessionKey is the single slot rentalctl uses in the session file.
const sessionKey = "rentalctl"

type cli struct {
	Config string `short:"c" long:"config" default:"config/config.dev.yaml" description:"Path to configuration file"`
	JSON   bool   `long:"json" description:"Print results as JSON"`

	out io.Writer
	app *app
}

type app struct {
	cfg         *config.Config
	ctx         context.Context
	sc          *session.Context
	auth        service.AuthService
	bookings    service.BookingService
	inspections service.InspectionService
	disputes    service.DisputeService
}

func (c *cli) open() (*app, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	logger.InitializeWithWriter(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	var store session.Store = session.NewFileStore(cfg.Session.FilePath)
	if cfg.Session.EncryptionKey != "" {
		key, err := cfg.Session.Key()
		if err != nil {
			return nil, err
		}
		store = session.NewSealedStore(store, key)
	}
	sc := session.New(store, sessionKey)

	client := backend.New(cfg.Backend.BaseURL,
		&http.Client{Timeout: time.Duration(cfg.Backend.TimeoutSeconds) * time.Second},
		sc)
	c.app = &app{
		cfg:         cfg,
		ctx:         session.NewContext(logger.WithCorrelationID(context.Background(), "rentalctl"), sc),
		sc:          sc,
		auth:        service.NewAuthService(client),
		bookings:    service.NewBookingService(client, client, cfg.Backend.EnrichConcurrency),
		inspections: service.NewInspectionService(client, client, sc),
		disputes:    service.NewDisputeService(client),
	}
	return c.app, nil
}

func newParser(c *cli) *flags.Parser {
	p := flags.NewParser(c, flags.HelpFlag|flags.PassDoubleDash)
	p.Name = "rentalctl"

	add := func(name, short string, cmd any) {
		if _, err := p.AddCommand(name, short, "", cmd); err != nil {
			panic(err)
		}
	}
	add("login", "Sign in and keep the session", &loginCommand{cli: c})
	add("logout", "Forget the saved session", &logoutCommand{cli: c})
	add("whoami", "Show the signed-in user", &whoamiCommand{cli: c})
	add("bookings", "List bookings", &bookingsCommand{cli: c})
	add("booking", "Show one booking with its inspections and next actions", &bookingCommand{cli: c})
	add("cart", "Show the renter's cart", &cartCommand{cli: c})
	add("staff", "List staff members", &staffCommand{cli: c})
	add("assign", "Assign a staff member to deliver a booking", &assignCommand{cli: c})
	add("contract", "Create the rental contract for a booking", &contractCommand{cli: c})
	add("complete", "Mark a booking completed", &completeCommand{cli: c})
	add("branches", "List branches", &branchesCommand{cli: c})
	add("inspections", "List a booking's inspections", &inspectionsCommand{cli: c})
	add("inspect", "Submit a check-in or check-out inspection", &inspectCommand{cli: c})
	add("disputes", "List a booking's disputes", &disputesCommand{cli: c})
	add("dispute", "Show one dispute", &disputeCommand{cli: c})
	add("dispute-create", "Open a dispute against a booking", &disputeCreateCommand{cli: c})
	add("dispute-item", "Add a compensation item to a dispute", &disputeItemCommand{cli: c})
	add("resolve", "Resolve a dispute", &resolveCommand{cli: c})
	add("reject", "Reject a dispute", &rejectCommand{cli: c})
	return p
}

func run(args []string, out io.Writer) error {
	c := &cli{out: out}
	_, err := newParser(c).ParseArgs(args)
	return err
}

func errorText(err error) string {
	var ferr *flags.Error
	if errors.As(err, &ferr) {
		return ferr.Message
	}
	if msg := domain.UserMessage(err); msg != domain.GenericErrorMessage {
		return msg
	}
	return err.Error()
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, ferr.Message)
			return
		}
		fmt.Fprintln(os.Stderr, "error:", errorText(err))
		os.Exit(1)
	}
}

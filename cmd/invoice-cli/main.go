// Command invoice-cli logs in to the order backend and exports the invoice
// of one order as text, HTML, PDF or JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/order-portal/internal/api"
	"github.com/vasiliy-maslov/order-portal/internal/events"
	"github.com/vasiliy-maslov/order-portal/internal/invoice"
	"github.com/vasiliy-maslov/order-portal/internal/portal"
	"github.com/vasiliy-maslov/order-portal/internal/session"
)

type options struct {
	baseURL  string
	username string
	password string
	orderID  int64
	format   string
	out      string
	taxRate  string
	timeout  time.Duration
	verbose  bool
}

func parseFlags(args []string) (options, error) {
	var opts options

	fs := flag.NewFlagSet("invoice-cli", flag.ContinueOnError)
	fs.StringVar(&opts.baseURL, "api", os.Getenv("API_BASE_URL"), "order backend base URL")
	fs.StringVar(&opts.username, "user", os.Getenv("PORTAL_USER"), "username to log in with")
	fs.StringVar(&opts.password, "password", os.Getenv("PORTAL_PASSWORD"), "password to log in with")
	fs.Int64Var(&opts.orderID, "order", 0, "order id")
	fs.StringVar(&opts.format, "format", "text", "output format: text, html, pdf or json")
	fs.StringVar(&opts.out, "out", "", `output file; "auto" names it Invoice_<id>.<ext>, empty writes to stdout`)
	fs.StringVar(&opts.taxRate, "tax-rate", invoice.DefaultTaxRate.String(), "tax rate applied on top of the order total")
	fs.DurationVar(&opts.timeout, "timeout", 15*time.Second, "overall timeout")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	switch {
	case opts.baseURL == "":
		return opts, errors.New("-api (or API_BASE_URL) is required")
	case opts.username == "" || opts.password == "":
		return opts, errors.New("-user and -password (or PORTAL_USER and PORTAL_PASSWORD) are required")
	case opts.orderID <= 0:
		return opts, errors.New("-order must be a positive order id")
	}
	return opts, nil
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "invoice-cli:", err)
		os.Exit(2)
	}

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if opts.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, "invoice-cli:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	format, err := invoice.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	rate, err := decimal.NewFromString(opts.taxRate)
	if err != nil || rate.IsNegative() {
		return fmt.Errorf("invalid tax rate %q", opts.taxRate)
	}

	backend, err := api.New(opts.baseURL)
	if err != nil {
		return err
	}

	svc := portal.NewService(backend, session.NewMemoryStore(0), events.NopPublisher{}, rate)

	profile, err := svc.Login(ctx, opts.username, opts.password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	defer func() {
		_ = svc.Logout(context.Background(), profile.SessionID)
	}()

	doc, err := svc.Invoice(ctx, profile.SessionID, opts.orderID)
	if err != nil {
		return err
	}

	if opts.out == "" {
		return invoice.Export(os.Stdout, *doc, format)
	}

	path := opts.out
	if path == "auto" {
		path = doc.FileName + "." + format.Extension()
	}
	return writeFile(path, *doc, format)
}

// writeFile exports doc to path. A failure to close the file is an error too.
func writeFile(path string, doc invoice.Document, format invoice.Format) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	log.Info().Str("path", path).Msg("writing invoice")
	if err := invoice.Export(f, doc, format); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

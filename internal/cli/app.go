// Package cli provides the Cobra-based operator shell for the register.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rl1809/pos-register/internal/adapter/wire"
	"github.com/rl1809/pos-register/internal/core/domain"
	"github.com/rl1809/pos-register/internal/core/service"
	"github.com/rl1809/pos-register/internal/port"
)

const defaultWait = 30 * time.Second

var ErrJournalDisabled = errors.New("the sale journal is disabled; set mysql-dsn to enable reports")

// App is the state shared by every shell command.
type App struct {
	Session *service.Session
	Catalog port.CatalogClient
	Journal port.JournalRepository // nil when no journal is configured
	Labels  wire.Labels

	// Wait bounds how long a command waits for search, checkout or printing.
	Wait time.Duration

	In     *bufio.Reader
	Out    io.Writer
	Prompt string
}

// Shell reads one command per line until EOF, "exit" or "quit".
func (a *App) Shell(ctx context.Context) error {
	prompt := a.Prompt
	if prompt == "" {
		prompt = "pos> "
	}

	for {
		fmt.Fprint(a.Out, prompt)
		line, err := a.In.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(a.Out)
			return nil
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if err := a.Exec(ctx, strings.Fields(line)); err != nil {
			if errors.Is(err, service.ErrSessionClosed) {
				return err
			}
			fmt.Fprintf(a.Out, "error: %s\n", domain.Message(err))
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// do applies cmd and prints the notices it produced. Rejections are shown as
// notices, so only session failures come back as errors.
func (a *App) do(ctx context.Context, cmd service.Command) (service.View, error) {
	view, err := a.Session.Do(ctx, cmd)
	a.printNotices(view.Notices)

	var domainErr *domain.Error
	if err != nil && !errors.As(err, &domainErr) {
		return view, err
	}
	return view, nil
}

// doAndWait applies cmd, then waits for the asynchronous work it started.
func (a *App) doAndWait(ctx context.Context, cmd service.Command, started func(service.View) bool, done func(service.View) bool) (service.View, error) {
	views, unsubscribe := a.Session.Subscribe(4)
	defer unsubscribe()

	view, err := a.Session.Do(ctx, cmd)
	a.printNotices(view.Notices)
	if err != nil {
		var domainErr *domain.Error
		if errors.As(err, &domainErr) {
			return view, nil
		}
		return view, err
	}
	if !started(view) || done(view) {
		return view, nil
	}

	wait := a.Wait
	if wait <= 0 {
		wait = defaultWait
	}
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	view, err = service.WaitFor(waitCtx, views, done)
	if err != nil {
		return view, fmt.Errorf("waiting for the register: %w", err)
	}
	a.printNotices(view.Notices)
	return view, nil
}

func (a *App) printNotices(notices []service.Notice) {
	for _, n := range notices {
		fmt.Fprintf(a.Out, "[%s] %s\n", n.Level, n.Text)
	}
}

func (a *App) renderCart(v service.View) {
	if len(v.Lines) == 0 {
		fmt.Fprintln(a.Out, "cart is empty")
	} else {
		tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tPRODUCT\tQTY\tUNIT\tSUBTOTAL")
		for _, l := range v.Lines {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
				l.ProductID, l.Name, l.Quantity, domain.FormatMoney(l.UnitPrice), domain.FormatMoney(l.Subtotal()))
		}
		tw.Flush()
	}

	p := v.Payment
	fmt.Fprintf(a.Out, "total: %s  method: %s", domain.FormatMoney(p.Total), a.label(p.Method))
	if p.Method.RequiresTender() {
		fmt.Fprintf(a.Out, "  tendered: %s  change: %s", domain.FormatMoney(p.Tendered), domain.FormatMoney(p.Change))
	}
	fmt.Fprintln(a.Out)

	switch {
	case v.Checkout.State == service.CheckoutSubmitting:
		fmt.Fprintln(a.Out, "checkout in progress")
	case p.Eligible:
		fmt.Fprintln(a.Out, "ready to check out")
	case p.Insufficient() && len(v.Lines) > 0:
		fmt.Fprintln(a.Out, "tendered amount is not enough")
	}
}

func (a *App) renderResults(v service.View) {
	s := v.Search
	switch {
	case s.TooShort:
		fmt.Fprintln(a.Out, "keep typing: the query is too short")
		return
	case s.Err != "":
		return
	case s.NoMatch:
		fmt.Fprintln(a.Out, "no products found")
		return
	}

	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tPRODUCT\tPRICE\tSTOCK")
	for i, p := range s.Results {
		stock := fmt.Sprint(p.AvailableStock)
		if !p.InStock() {
			stock = "out of stock"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", i+1, p.ID, p.Name, domain.FormatMoney(p.UnitPrice), stock)
	}
	tw.Flush()
}

func (a *App) renderReport(r domain.CashFlowReport) {
	// To is exclusive
	last := r.To.AddDate(0, 0, -1)
	fmt.Fprintf(a.Out, "cash flow %s to %s\n", r.From.Format(time.DateOnly), last.Format(time.DateOnly))

	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tAMOUNT")
	for _, m := range domain.PaymentMethods {
		amount, ok := r.ByMethod[m]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", a.label(m), domain.FormatMoney(amount))
	}
	fmt.Fprintf(tw, "TOTAL\t%s\n", domain.FormatMoney(r.Total))
	tw.Flush()

	fmt.Fprintf(a.Out, "%d sale(s)\n", r.Sales)
}

func (a *App) label(m domain.PaymentMethod) string {
	labels := a.Labels
	if len(labels) == 0 {
		labels = wire.DefaultLabels()
	}
	return labels.Label(m)
}

// parseMethod accepts a method code (cash) or its label (Dinheiro).
func (a *App) parseMethod(s string) (domain.PaymentMethod, error) {
	if m, err := domain.ParsePaymentMethod(s); err == nil {
		return m, nil
	}

	labels := a.Labels
	if len(labels) == 0 {
		labels = wire.DefaultLabels()
	}
	for m, label := range labels {
		if strings.EqualFold(label, s) {
			return m, nil
		}
	}
	return "", domain.NewValidationError(fmt.Sprintf("unknown payment method %q", s))
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rl1809/pos-register/internal/core/domain"
	"github.com/rl1809/pos-register/internal/core/service"
)

// Exec runs one shell line. Each call gets a fresh command tree so flags
// never leak from one line to the next.
func (a *App) Exec(ctx context.Context, args []string) error {
	root := a.lineCommands()
	root.SetArgs(args)
	root.SetOut(a.Out)
	root.SetErr(a.Out)
	return root.ExecuteContext(ctx)
}

func (a *App) lineCommands() *cobra.Command {
	root := &cobra.Command{
		Use:           "pos>",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		a.searchCmd(),
		a.addCmd(),
		a.qtyCmd(),
		a.lineCmd("inc <id>", "Add one unit of a product", func(id int64) service.Command { return service.Increment{ProductID: id} }),
		a.lineCmd("dec <id>", "Remove one unit of a product", func(id int64) service.Command { return service.Decrement{ProductID: id} }),
		a.lineCmd("rm <id>", "Remove a product from the cart", func(id int64) service.Command { return service.RemoveLine{ProductID: id} }),
		a.clearCmd(),
		a.payCmd(),
		a.checkoutCmd(),
		a.previewCmd(),
		a.printCmd(),
		a.dismissCmd(),
		a.cartCmd(),
		a.reportCmd(),
	)
	return root
}

func (a *App) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog by name, barcode or id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			var seq uint64
			view, err := a.doAndWait(cmd.Context(), service.SearchInput{Query: query},
				func(v service.View) bool {
					seq = v.Search.Seq
					return !v.Search.TooShort
				},
				func(v service.View) bool {
					return v.Search.Seq == seq && v.Search.Phase == service.SearchApplied
				})
			if err != nil {
				return err
			}
			a.renderResults(view)
			return nil
		},
	}
}

func (a *App) addCmd() *cobra.Command {
	var byID bool
	cmd := &cobra.Command{
		Use:   "add <n>",
		Short: "Add the n-th search result, or a product by id with --id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || n < 1 {
				return domain.NewValidationError(fmt.Sprintf("%q is not a valid position or id", args[0]))
			}

			var command service.Command = service.AddSearchResult{Index: int(n - 1)}
			if byID {
				p, err := a.lookup(cmd.Context(), n)
				if err != nil {
					return err
				}
				command = service.AddProduct{Product: p}
			}

			view, err := a.do(cmd.Context(), command)
			if err != nil {
				return err
			}
			a.renderCart(view)
			return nil
		},
	}
	cmd.Flags().BoolVar(&byID, "id", false, "treat the argument as a product id")
	return cmd
}

// lookup finds a product by id through the catalog search.
func (a *App) lookup(ctx context.Context, id int64) (domain.Product, error) {
	if a.Catalog == nil {
		return domain.Product{}, errors.New("catalog lookups are not available")
	}

	products, err := a.Catalog.SearchProducts(ctx, strconv.FormatInt(id, 10), 10)
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.NewValidationError(fmt.Sprintf("product %d not found", id))
}

func (a *App) qtyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "qty <id> <n>",
		Short: "Set the quantity of a cart line (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return domain.NewValidationError(fmt.Sprintf("%q is not a quantity", args[1]))
			}

			view, err := a.do(cmd.Context(), service.SetQuantity{ProductID: id, Quantity: qty})
			if err != nil {
				return err
			}
			a.renderCart(view)
			return nil
		},
	}
}

func (a *App) lineCmd(use, short string, build func(int64) service.Command) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			view, err := a.do(cmd.Context(), build(id))
			if err != nil {
				return err
			}
			a.renderCart(view)
			return nil
		},
	}
}

func (a *App) clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && a.In != nil {
				fmt.Fprint(a.Out, "Clear the cart? (y/N): ")
				resp, _ := a.In.ReadString('\n')
				resp = strings.TrimSpace(resp)
				yes = resp == "y" || resp == "Y"
				if !yes {
					fmt.Fprintln(a.Out, "aborted")
					return nil
				}
			}

			view, err := a.do(cmd.Context(), service.ClearCart{Confirmed: yes})
			if err != nil {
				return err
			}
			a.renderCart(view)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip confirmation")
	return cmd
}

func (a *App) payCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pay <cash|card|pix|other> [tendered]",
		Short: "Choose the payment method and, for cash, the amount handed over",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, err := a.parseMethod(args[0])
			if err != nil {
				return err
			}

			view, err := a.do(cmd.Context(), service.SelectPayment{Method: method})
			if err != nil {
				return err
			}
			if len(args) == 2 {
				if view, err = a.do(cmd.Context(), service.SetTendered{Input: args[1]}); err != nil {
					return err
				}
			}
			a.renderCart(view)
			return nil
		},
	}
}

func (a *App) checkoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Submit the sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				attempts  uint64
				submitted bool
			)
			view, err := a.doAndWait(cmd.Context(), service.Submit{},
				func(v service.View) bool {
					attempts = v.Checkout.Attempts
					submitted = v.Checkout.State == service.CheckoutSubmitting
					return submitted
				},
				func(v service.View) bool {
					return v.Checkout.Attempts > attempts && v.Checkout.State != service.CheckoutSubmitting
				})
			if err != nil {
				return err
			}

			if submitted && view.Checkout.LastState == service.CheckoutSettled {
				fmt.Fprintf(a.Out, "sale %s settled, %d receipt(s)\n", view.Checkout.RequestID, view.Receipts.Count)
			}
			return nil
		},
	}
}

func (a *App) previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Show the first receipt of the last sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.do(cmd.Context(), service.Refresh{})
			if err != nil {
				return err
			}
			if view.Receipts.Count == 0 {
				fmt.Fprintln(a.Out, "no receipt to preview")
				return nil
			}

			fmt.Fprintln(a.Out, view.Receipts.Preview)
			if view.Receipts.CanPrintAll {
				fmt.Fprintf(a.Out, "(%d receipts, use print --all)\n", view.Receipts.Count)
			}
			return nil
		},
	}
}

func (a *App) printCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the receipt on preview, or every receipt with --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var command service.Command = service.PrintCurrent{}
			if all {
				command = service.PrintAll{}
			}

			_, err := a.doAndWait(cmd.Context(), command,
				func(v service.View) bool { return v.Printing },
				func(v service.View) bool { return !v.Printing })
			return err
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print every receipt of the last sale")
	return cmd
}

func (a *App) dismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss",
		Short: "Close the receipts of the last sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.do(cmd.Context(), service.DismissReceipts{})
			return err
		},
	}
}

func (a *App) cartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cart",
		Short: "Show the cart and payment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.do(cmd.Context(), service.Refresh{})
			if err != nil {
				return err
			}
			a.renderCart(view)
			return nil
		},
	}
}

func (a *App) reportCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Cash flow per payment method",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Report(cmd.Context(), from, to)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD), default today")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD), default --from")
	return cmd
}

// Report prints settled totals for the days [from, to].
func (a *App) Report(ctx context.Context, from, to string) error {
	if a.Journal == nil {
		return ErrJournalDisabled
	}

	start, end, err := reportRange(from, to, time.Now())
	if err != nil {
		return err
	}

	report, err := a.Journal.CashFlow(ctx, start, end)
	if err != nil {
		return fmt.Errorf("cash flow report: %w", err)
	}
	a.renderReport(report)
	return nil
}

// reportRange turns inclusive day bounds into a half-open [start, end) range.
func reportRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if from != "" {
		d, err := time.ParseInLocation(time.DateOnly, from, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, domain.NewValidationError(fmt.Sprintf("invalid --from %q", from))
		}
		start = d
	}

	last := start
	if to != "" {
		d, err := time.ParseInLocation(time.DateOnly, to, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, domain.NewValidationError(fmt.Sprintf("invalid --to %q", to))
		}
		last = d
	}
	if last.Before(start) {
		return time.Time{}, time.Time{}, domain.NewValidationError("--to is before --from")
	}
	return start, last.AddDate(0, 0, 1), nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, domain.NewValidationError(fmt.Sprintf("%q is not a product id", s))
	}
	return id, nil
}

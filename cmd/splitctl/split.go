package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitty/internal/assignment"
	"github.com/mmynk/splitty/internal/calculator"
	"github.com/mmynk/splitty/internal/models"
	"github.com/mmynk/splitty/internal/recognizer"
)

type splitOptions struct {
	format  string
	people  []string
	assigns []string
	payer   string
}

func splitCmd() *cobra.Command {
	opts := &splitOptions{}
	cmd := &cobra.Command{
		Use:   "split RECEIPT.json",
		Short: "Compute who owes what for a receipt",
		Long: `Compute a split for a receipt file ("-" reads stdin).

Items are referenced in --assign by key, by 1-based position or by name:

  splitctl split lunch.json --person Alice --person Bob \
    --assign 1=Alice --assign Fries=Alice,Bob --payer Alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "analysis", "input format: analysis (recognizer output) or receipt (splitctl analyze output)")
	cmd.Flags().StringArrayVar(&opts.people, "person", nil, "add a person to the split (repeatable)")
	cmd.Flags().StringArrayVar(&opts.assigns, "assign", nil, "assign ITEM=PERSON[,PERSON...] (repeatable)")
	cmd.Flags().StringVar(&opts.payer, "payer", "", "print the transfers that settle up with this person")

	return cmd
}

func runSplit(out io.Writer, path string, opts *splitOptions) error {
	receipt, err := readReceipt(path, opts.format)
	if err != nil {
		return err
	}

	store := assignment.NewStore(receipt.LineItems())
	for _, name := range opts.people {
		if err := store.AddPerson(name); err != nil {
			return err
		}
	}
	for _, arg := range opts.assigns {
		if err := applyAssign(store, arg); err != nil {
			return err
		}
	}

	result, err := calculator.ComputeSplit(receipt, store)
	if err != nil {
		return err
	}
	slog.Debug("Split computed", "people", len(result.People), "grand_total", result.GrandTotal)

	if err := printSplit(out, result); err != nil {
		return err
	}

	if opts.payer == "" {
		return nil
	}
	transfers, err := calculator.SettleUp(result, opts.payer)
	if err != nil {
		return err
	}
	return printTransfers(out, transfers, result.Currency)
}

func readReceipt(path, format string) (*models.Receipt, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt: %w", err)
	}

	switch format {
	case "analysis":
		return recognizer.DecodeReceipt(data)
	case "receipt":
		var r models.Receipt
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, &models.MalformedReceiptError{Reason: err.Error()}
		}
		return models.NewReceipt(r)
	default:
		return nil, fmt.Errorf("unknown format %q: must be analysis or receipt", format)
	}
}

// applyAssign handles one --assign ITEM=PERSON[,PERSON...] flag.
func applyAssign(store *assignment.Store, arg string) error {
	ref, names, ok := strings.Cut(arg, "=")
	if !ok || strings.TrimSpace(ref) == "" || strings.TrimSpace(names) == "" {
		return fmt.Errorf("invalid --assign %q: want ITEM=PERSON[,PERSON...]", arg)
	}
	key, err := resolveItem(store.Items(), strings.TrimSpace(ref))
	if err != nil {
		return err
	}
	for _, name := range strings.Split(names, ",") {
		if err := store.AssignPerson(key, strings.TrimSpace(name)); err != nil {
			return err
		}
	}
	return nil
}

// resolveItem finds an item by key, 1-based position or case-insensitive name.
func resolveItem(items []models.LineItem, ref string) (string, error) {
	for _, item := range items {
		if item.Key == ref {
			return item.Key, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(items) {
			return "", fmt.Errorf("item %d out of range 1..%d", n, len(items))
		}
		return items[n-1].Key, nil
	}

	var matches []string
	for _, item := range items {
		if strings.EqualFold(item.Name, ref) {
			matches = append(matches, item.Key)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %q", assignment.ErrUnknownItem, ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("item name %q is ambiguous, use its position", ref)
	}
}

func printSplit(out io.Writer, r *calculator.Result) error {
	d := r.Display()
	cur := r.Currency

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tITEM\tTOTAL\tSPLIT BETWEEN")
	for i, item := range r.Items {
		who := strings.Join(item.Assignees, ", ")
		if who == "" {
			who = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, item.Name,
			calculator.FormatCents(calculator.ToCents(item.TotalPrice), cur), who)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PERSON\tITEMS\tSHARED\tOWES")
	for i, p := range r.People {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name,
			calculator.FormatCents(calculator.ToCents(p.Direct), cur),
			calculator.FormatCents(calculator.ToCents(p.Shared), cur),
			calculator.FormatCents(d.People[i].Total, cur))
	}
	if d.Unassigned != 0 {
		fmt.Fprintf(w, "(unassigned)\t\t\t%s\n", calculator.FormatCents(d.Unassigned, cur))
	}
	if d.Unattributed != 0 {
		fmt.Fprintf(w, "(unattributed)\t\t\t%s\n", calculator.FormatCents(d.Unattributed, cur))
	}
	fmt.Fprintf(w, "TOTAL\t%s\t%s\t%s\n",
		calculator.FormatCents(d.Subtotal, cur),
		calculator.FormatCents(d.Shared, cur),
		calculator.FormatCents(d.GrandTotal, cur))
	if err := w.Flush(); err != nil {
		return err
	}

	for _, warn := range r.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warn.Message)
	}
	return nil
}

func printTransfers(out io.Writer, transfers []calculator.Transfer, currency string) error {
	fmt.Fprintln(out)
	if len(transfers) == 0 {
		fmt.Fprintln(out, "Nothing to settle.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FROM\tTO\tAMOUNT")
	for _, t := range transfers {
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.From, t.To, calculator.FormatCents(calculator.ToCents(t.Amount), currency))
	}
	return w.Flush()
}

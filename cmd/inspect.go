// =============================================================================
// Meal Voucher Generator - Inspect Command
// =============================================================================
//
// This file defines the 'inspect' command, which runs the pipeline on an
// export and prints what would be rendered, without writing any file.
//
// COMMAND USAGE:
//   vouchers inspect --file export.csv [--tier MAP]
//
// OUTPUT:
//   - Row counts per layout and eligible records
//   - One table row per voucher (room, booking, name, counts)
//   - Validation findings, if any
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/meal-vouchers/internal/converter"
	"github.com/ginjaninja78/meal-vouchers/internal/validation"
)

// inspectFile is the export given with --file.
var inspectFile string

// inspectCmd represents the 'inspect' command.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize the vouchers an export would produce",
	Long: `The inspect command runs the full pipeline on one export and prints the
vouchers it would produce and any suspicious rows, without writing files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd.OutOrStdout(), inspectFile)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectFile, "file", "f", "", "Export to inspect")
	_ = inspectCmd.MarkFlagRequired("file")
}

// runInspect prints the voucher summary of one export to out.
func runInspect(out io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer file.Close()

	result, err := converter.New(appConfig, logger).Run(file)
	if err != nil && !errors.Is(err, converter.ErrNoEligibleRecords) {
		return err
	}

	stats := result.Stats
	fmt.Fprintln(out, titleStyle.Render("Vouchers - "+tierLabel(appConfig.Tier)))
	fmt.Fprintf(out, "Rows: %d (combined-name %d, split-name %d)  Eligible: %d  Vouchers: %d\n\n",
		stats.RowsParsed, stats.CombinedRows, stats.SplitRows, stats.EligibleRecords, stats.Vouchers)

	if len(result.Groups) == 0 {
		fmt.Fprintln(out, infoStyle.Render("No eligible records for the selected tier."))
	} else if err := writeVoucherTable(out, result); err != nil {
		return err
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Warnings (%d)", len(result.Warnings))))
		for _, w := range result.Warnings {
			style := infoStyle
			if w.Severity == validation.SeverityWarning {
				style = warningStyle
			}
			fmt.Fprintln(out, style.Render(w.String()))
		}
	}

	return nil
}

// writeVoucherTable prints one aligned row per voucher.
func writeVoucherTable(out io.Writer, result *converter.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("Room"),
		headerStyle.Render("Booking"),
		headerStyle.Render("Name"),
		headerStyle.Render("DNI"),
		headerStyle.Render("Nights"),
		headerStyle.Render("Pax"),
		headerStyle.Render("Meals"),
		headerStyle.Render("Guests")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("─", 6),
		strings.Repeat("─", 8),
		strings.Repeat("─", 24),
		strings.Repeat("─", 10),
		strings.Repeat("─", 6),
		strings.Repeat("─", 3),
		strings.Repeat("─", 5),
		strings.Repeat("─", 6)); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}

	for _, group := range result.Groups {
		rep := group.Representative
		nights := fmt.Sprintf("%d", group.StayDuration())
		if !rep.DatesValid {
			nights = subtleStyle.Render("?")
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			group.Key.Room,
			group.Key.Booking,
			rep.PassengerName,
			rep.DNI,
			nights,
			group.Occupants,
			group.MealCount,
			len(group.Members)); err != nil {
			return fmt.Errorf("failed to write voucher row: %w", err)
		}
	}

	return w.Flush()
}

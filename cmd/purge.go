package cmd

import (
	"fmt"

	"github.com/marcus/wo/internal/dateparse"
	"github.com/marcus/wo/internal/models"
	"github.com/marcus/wo/internal/output"
	"github.com/marcus/wo/internal/reconcile"
	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge <work-order>... --month <month>",
	Short: "Delete or zero out a servicer's remote records for one month",
	Long: `Remove a servicer's service records for a calendar month from the given
work orders. Records with linked sub-items cannot be deleted, so their
minutes are zeroed instead. Records outside the servicer/month filter are
never touched.

The servicer defaults to the configured technician name; --servicer
overrides it.`,
	GroupID: "remote",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			if !models.IsValidWorkOrderID(id) {
				output.Error("invalid work order ID %q (expected 7 digits)", id)
				return fmt.Errorf("invalid work order ID")
			}
		}

		cfg, err := loadConfig(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		servicer, _ := cmd.Flags().GetString("servicer")
		if servicer == "" {
			servicer = cfg.Servicer
		}
		if servicer == "" {
			output.Error("no servicer: pass --servicer or set one via 'wo init --servicer'")
			return fmt.Errorf("no servicer")
		}

		monthArg, _ := cmd.Flags().GetString("month")
		if monthArg == "" {
			output.Error("--month is required (YYYY-MM, a month name, this-month, or last-month)")
			return fmt.Errorf("missing month")
		}
		year, month, err := dateparse.ParseMonth(monthArg)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		target := reconcile.PurgeTarget{Servicer: servicer, Year: year, Month: month}

		driver, _ := cmd.Flags().GetString("driver")
		facade, retrier, err := newRemote(cfg, driver)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		ctx := cmd.Context()
		if err := facade.Login(ctx, retrier.Creds); err != nil {
			output.Error("login: %v", err)
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		purger := &reconcile.Purger{Facade: facade, Retrier: retrier}

		for _, workOrderID := range args {
			report, err := purger.Run(ctx, workOrderID, target, dryRun)
			if err != nil {
				output.Error("purge %s: %v", workOrderID, err)
				return err
			}
			if dryRun {
				output.Info("%s: %d matching record(s); would delete %d, zero out %d",
					workOrderID, report.Matched, report.Deleted, report.Zeroed)
				continue
			}
			output.Success("%s: deleted %d, zeroed %d (of %d matching %s %d-%02d)",
				workOrderID, report.Deleted, report.Zeroed, report.Matched, servicer, year, int(month))
			for _, f := range report.Failures {
				output.Warning("%s: %s failed at %s: %v", workOrderID, f.Action, f.Key.Timestamp, f.Err)
			}
		}
		return nil
	},
}

func init() {
	purgeCmd.Flags().String("servicer", "", "servicer name (defaults to configured technician)")
	purgeCmd.Flags().String("month", "", "target month: YYYY-MM, month name, this-month, last-month")
	purgeCmd.Flags().Bool("dry-run", false, "classify matching records without mutating")
	purgeCmd.Flags().String("driver", "", "override the configured remote driver command")
	rootCmd.AddCommand(purgeCmd)
}

package cmd

import (
	"fmt"

	"github.com/marcus/wo/internal/models"
	"github.com/marcus/wo/internal/output"
	"github.com/marcus/wo/internal/reconcile"
	"github.com/spf13/cobra"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe <work-order>",
	Short: "Collapse duplicate remote service records",
	Long: `Scan a work order's remote service records, group them by timestamp and
description, and delete every duplicate beyond the first-observed record of
each group. The remote view is re-extracted after each deletion because
deleting a record renumbers everything extracted alongside it.`,
	GroupID: "remote",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workOrderID := args[0]
		if !models.IsValidWorkOrderID(workOrderID) {
			output.Error("invalid work order ID %q (expected 7 digits)", workOrderID)
			return fmt.Errorf("invalid work order ID")
		}

		cfg, err := loadConfig(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}

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
		deduper := &reconcile.Deduper{Facade: facade, Retrier: retrier}
		report, err := deduper.Run(ctx, workOrderID, dryRun)
		if err != nil {
			output.Error("dedupe: %v", err)
			return err
		}

		if report.GroupsFound == 0 {
			output.Info("No duplicates on %s", workOrderID)
			return nil
		}
		if dryRun {
			output.Info("%d duplicate group(s); %d record(s) would be deleted", report.GroupsFound, report.Deleted)
			return nil
		}
		output.Success("Deleted %d duplicate(s) across %d group(s)", report.Deleted, report.GroupsFound)
		for _, f := range report.Failures {
			output.Warning("could not delete duplicate at %s (%q): %v", f.Key.Timestamp, f.Key.Description, f.Err)
		}
		return nil
	},
}

func init() {
	dedupeCmd.Flags().Bool("dry-run", false, "report duplicate groups without deleting")
	dedupeCmd.Flags().String("driver", "", "override the configured remote driver command")
	rootCmd.AddCommand(dedupeCmd)
}

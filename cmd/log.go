package cmd

import (
	"fmt"

	"github.com/marcus/wo/internal/db"
	"github.com/marcus/wo/internal/models"
	"github.com/marcus/wo/internal/output"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:     "log [work-order]",
	Short:   "Show the push audit log",
	GroupID: "stack",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var workOrderID string
		if len(args) == 1 {
			workOrderID = args[0]
			if !models.IsValidWorkOrderID(workOrderID) {
				output.Error("invalid work order ID %q (expected 7 digits)", workOrderID)
				return fmt.Errorf("invalid work order ID")
			}
		}

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := database.RecentPushLog(workOrderID, limit)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return output.JSON(entries)
		}

		if len(entries) == 0 {
			output.Info("No push attempts recorded")
			return nil
		}
		for _, e := range entries {
			line := fmt.Sprintf("%s  %s seq %d  %s",
				e.Timestamp.Format("2006-01-02 15:04:05"), e.WorkOrderID, e.Seq, e.Outcome)
			if e.Detail != "" {
				line += "  " + e.Detail
			}
			output.Info("%s", line)
		}
		return nil
	},
}

func init() {
	logCmd.Flags().Int("limit", 50, "maximum entries to show")
	logCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(logCmd)
}

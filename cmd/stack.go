package cmd

import (
	"fmt"
	"time"

	"github.com/marcus/wo/internal/db"
	"github.com/marcus/wo/internal/encode"
	"github.com/marcus/wo/internal/models"
	"github.com/marcus/wo/internal/notes"
	"github.com/marcus/wo/internal/output"
	"github.com/spf13/cobra"
)

var stackCmd = &cobra.Command{
	Use:   "stack <work-order>",
	Short: "Parse a work order's notes and stack its pending services",
	Long: `Parse the notes file, derive elapsed minutes from the day anchor, resolve
verbs and nouns to service codes, and store the resulting batch in the stack.

Re-stacking replaces the batch; entries that were already pushed keep their
pushed state when the rebuilt entry matches by timestamp, codes, and minutes.`,
	GroupID: "stack",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workOrderID := args[0]
		if !models.IsValidWorkOrderID(workOrderID) {
			output.Error("invalid work order ID %q (expected 7 digits)", workOrderID)
			return fmt.Errorf("invalid work order ID")
		}

		base := getBaseDir()
		cfg, err := loadConfig(base)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		table, err := loadVocab(base)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		text, err := notes.ReadFile(notes.Dir(base, cfg), workOrderID)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		parsed := notes.Parse(text)
		if parsed.Anchor == "" && len(parsed.Entries) > 0 {
			output.Warning("no Start/Resume anchor found; the first entry has no elapsed time and will be dropped")
		}

		batch, diags := encode.Batch(workOrderID, parsed, table, time.Now())
		for _, d := range diags {
			output.Warning("skipped entry %s", d)
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if dryRun {
			if len(batch.Services) == 0 {
				output.Info("No encodable entries in notes for %s", workOrderID)
			} else {
				fmt.Print(output.FormatBatch(&batch))
			}
			output.Info("(dry run, stack not modified)")
			return nil
		}

		database, err := db.Open(base)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		if err := stackBatch(database, &batch); err != nil {
			output.Error("stack batch: %v", err)
			return err
		}

		if len(batch.Services) == 0 {
			output.Info("No encodable entries in notes for %s; removed from the stack", workOrderID)
			return nil
		}
		fmt.Print(output.FormatBatch(&batch))
		output.Success("Stacked %s: %d services (%d pending)",
			workOrderID, len(batch.Services), batch.PendingCount())
		return nil
	},
}

// stackBatch stores the rebuilt batch, replacing whatever was stacked for
// the work order before. A rebuild with no encodable entries removes the
// previous batch rather than leaving it behind.
func stackBatch(database *db.DB, batch *models.WorkOrderBatch) error {
	if len(batch.Services) == 0 {
		return database.DeleteBatch(batch.WorkOrderID)
	}
	return database.UpsertBatch(batch)
}

func init() {
	stackCmd.Flags().Bool("dry-run", false, "show what would be stacked without modifying the stack")
	rootCmd.AddCommand(stackCmd)
}

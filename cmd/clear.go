package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/marcus/wo/internal/db"
	"github.com/marcus/wo/internal/models"
	"github.com/marcus/wo/internal/output"
	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:     "clear [work-order]",
	Short:   "Drop one batch or the whole stack",
	GroupID: "stack",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		force, _ := cmd.Flags().GetBool("force")

		if len(args) == 1 {
			workOrderID := args[0]
			if !models.IsValidWorkOrderID(workOrderID) {
				output.Error("invalid work order ID %q (expected 7 digits)", workOrderID)
				return fmt.Errorf("invalid work order ID")
			}
			batch, err := database.GetBatch(workOrderID)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if batch == nil {
				output.Info("Work order %s is not stacked", workOrderID)
				return nil
			}
			if pending := batch.PendingCount(); pending > 0 && !force {
				if !confirm(fmt.Sprintf("Batch %s has %d pending service(s). Drop anyway?", workOrderID, pending)) {
					output.Info("Aborted")
					return nil
				}
			}
			if err := database.DeleteBatch(workOrderID); err != nil {
				output.Error("%v", err)
				return err
			}
			output.Success("Dropped batch %s", workOrderID)
			return nil
		}

		if !force {
			if !confirm("Drop the entire stack?") {
				output.Info("Aborted")
				return nil
			}
		}
		if err := database.Clear(); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Stack cleared")
		return nil
	},
}

// confirm prompts for y/N on stdin.
func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func init() {
	clearCmd.Flags().Bool("force", false, "skip confirmation")
	rootCmd.AddCommand(clearCmd)
}

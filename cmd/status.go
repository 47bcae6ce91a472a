package cmd

import (
	"fmt"

	"github.com/marcus/wo/internal/db"
	"github.com/marcus/wo/internal/output"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"st", "show"},
	Short:   "Show the stacked batches and their push state",
	GroupID: "stack",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		batches, err := database.GetAllBatches()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return output.JSON(batches)
		}

		if len(batches) == 0 {
			output.Info("Stack is empty")
			return nil
		}

		pending := 0
		for i := range batches {
			fmt.Print(output.FormatBatch(&batches[i]))
			fmt.Println()
			pending += batches[i].PendingCount()
		}
		output.Info("%d work order(s), %d service(s) pending", len(batches), pending)
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

package cmd

import (
	"fmt"

	"github.com/marcus/wo/internal/models"
	"github.com/marcus/wo/internal/notes"
	"github.com/marcus/wo/internal/output"
	"github.com/spf13/cobra"
)

var noteCmd = &cobra.Command{
	Use:     "note <work-order>",
	Aliases: []string{"notes"},
	Short:   "Create or view a work order's notes file",
	Long: `Create the notes file for a work order if it does not exist and print its
path. Entries are free-form text; lines of the form

  [Verb, Noun] (2025-03-01 09:00) => what was done

are picked up by 'wo stack'. Use --view to render the file.`,
	GroupID: "notes",
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
		dir := notes.Dir(base, cfg)

		view, _ := cmd.Flags().GetBool("view")
		if view {
			text, err := notes.ReadFile(dir, workOrderID)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			rendered, err := output.RenderMarkdown(text)
			if err != nil {
				output.Error("render notes: %v", err)
				return err
			}
			fmt.Print(rendered)
			return nil
		}

		path, err := notes.Ensure(dir, workOrderID)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		output.Info("%s", path)
		return nil
	},
}

func init() {
	noteCmd.Flags().Bool("view", false, "render the notes file instead of printing its path")
	rootCmd.AddCommand(noteCmd)
}

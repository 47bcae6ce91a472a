package cmd

import (
	"fmt"

	"github.com/marcus/wo/internal/output"
	"github.com/spf13/cobra"
)

var vocabCmd = &cobra.Command{
	Use:     "vocab",
	Short:   "List the loaded verb and noun code tables",
	GroupID: "notes",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadVocab(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		output.Info("Verbs:")
		for _, v := range table.Verbs() {
			noun := ""
			if v.RequiresNoun {
				noun = "  (requires noun)"
			}
			output.Info("  %-12s %3d%s", v.Keyword, v.Code, noun)
		}
		fmt.Println()
		output.Info("Nouns:")
		for _, n := range table.Nouns() {
			output.Info("  %-12s %3d", n.Keyword, n.Code)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(vocabCmd)
}

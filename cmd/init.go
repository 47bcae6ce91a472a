package cmd

import (
	"os"
	"path/filepath"

	"github.com/marcus/wo/internal/config"
	"github.com/marcus/wo/internal/db"
	"github.com/marcus/wo/internal/models"
	"github.com/marcus/wo/internal/output"
	"github.com/marcus/wo/internal/vocab"
	"github.com/marcus/wo/internal/workdir"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize a .wo directory in the current project",
	Long:    `Create the .wo state directory: stack database, config, notes directory, and starter vocabulary tables.`,
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}

		if workdir.HasState(cwd) {
			output.Info("Already initialized: %s", filepath.Join(cwd, ".wo"))
			return nil
		}

		database, err := db.Initialize(cwd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		if err := vocab.Seed(vocabDir(cwd)); err != nil {
			output.Error("seed vocabulary: %v", err)
			return err
		}

		if err := os.MkdirAll(filepath.Join(cwd, ".wo", "notes"), 0755); err != nil {
			output.Error("create notes dir: %v", err)
			return err
		}

		servicer, _ := cmd.Flags().GetString("servicer")
		if err := config.Save(cwd, &models.Config{Servicer: servicer}); err != nil {
			output.Error("write config: %v", err)
			return err
		}

		output.Success("Initialized %s", filepath.Join(cwd, ".wo"))
		output.Info("Next: 'wo note <work-order>' to start a notes file, 'wo login' to configure the remote driver")
		return nil
	},
}

func init() {
	initCmd.Flags().String("servicer", "", "technician name as it appears in the remote system")
	rootCmd.AddCommand(initCmd)
}

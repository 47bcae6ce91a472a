package cmd

import (
	"github.com/charmbracelet/huh"
	"github.com/marcus/wo/internal/config"
	"github.com/marcus/wo/internal/models"
	"github.com/marcus/wo/internal/output"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Configure the remote driver and credentials",
	Long: `Interactively configure how wo reaches the remote system: the external
automation driver command, the remote URL, the technician name, and the
login credentials. Values are stored in .wo/config.json.`,
	GroupID: "remote",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		base := getBaseDir()
		cfg, err := loadConfig(base)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Driver command").
					Description("External automation command, e.g. 'wo-driver --profile work'").
					Value(&cfg.DriverCommand),
				huh.NewInput().
					Title("Remote URL").
					Value(&cfg.RemoteURL),
				huh.NewInput().
					Title("Servicer").
					Description("Technician name as it appears in the remote system").
					Value(&cfg.Servicer),
				huh.NewInput().
					Title("Username").
					Value(&cfg.Username),
				huh.NewInput().
					Title("Password").
					EchoMode(huh.EchoModePassword).
					Value(&cfg.Password),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}

		if err := config.Update(base, func(stored *models.Config) {
			stored.DriverCommand = cfg.DriverCommand
			stored.RemoteURL = cfg.RemoteURL
			stored.Servicer = cfg.Servicer
			stored.Username = cfg.Username
			stored.Password = cfg.Password
		}); err != nil {
			output.Error("save config: %v", err)
			return err
		}

		output.Success("Remote configuration saved")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/wo/internal/models"
	"github.com/marcus/wo/internal/notes"
	"github.com/marcus/wo/internal/output"
	"github.com/marcus/wo/internal/timer"
	"github.com/marcus/wo/internal/tui/timerui"
	"github.com/spf13/cobra"
)

var timerCmd = &cobra.Command{
	Use:     "timer",
	Short:   "Day timer: start, status, stop, watch",
	GroupID: "notes",
}

var timerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the day timer",
	Long: `Start (or restart) the day timer. With --note, also append a Start anchor
line to that work order's notes file so 'wo stack' can time the first entry.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		base := getBaseDir()
		now := time.Now()

		workOrderID, _ := cmd.Flags().GetString("note")
		label := ""
		if workOrderID != "" {
			if !models.IsValidWorkOrderID(workOrderID) {
				output.Error("invalid work order ID %q (expected 7 digits)", workOrderID)
				return fmt.Errorf("invalid work order ID")
			}
			label = "WO " + workOrderID
		}

		state, err := timer.Start(base, now, label)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if workOrderID != "" {
			cfg, err := loadConfig(base)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			dir := notes.Dir(base, cfg)
			path, err := notes.Ensure(dir, workOrderID)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if err := notes.AppendAnchor(path, "Start", now.Format(models.TimeLayout)); err != nil {
				output.Error("append anchor: %v", err)
				return err
			}
			output.Info("Anchor written to %s", path)
		}

		output.Success("Timer started at %s", state.StartedAt.Format(time.Kitchen))
		return nil
	},
}

var timerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show elapsed time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := timer.Load(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if state == nil {
			output.Info("No timer running")
			return nil
		}
		elapsed := timer.FormatDuration(state.Elapsed(time.Now()))
		if state.Label != "" {
			output.Info("%s elapsed (%s, since %s)", elapsed, state.Label, state.StartedAt.Format(time.Kitchen))
		} else {
			output.Info("%s elapsed (since %s)", elapsed, state.StartedAt.Format(time.Kitchen))
		}
		return nil
	},
}

var timerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the timer and report the total",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := timer.Stop(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if state == nil {
			output.Info("No timer running")
			return nil
		}
		output.Success("Timer stopped: %s total", timer.FormatDuration(state.Elapsed(time.Now())))
		return nil
	},
}

var timerWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live elapsed display",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := timer.Load(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if state == nil {
			output.Info("No timer running: 'wo timer start' first")
			return nil
		}
		p := tea.NewProgram(timerui.New(state))
		_, err = p.Run()
		return err
	},
}

func init() {
	timerStartCmd.Flags().String("note", "", "also write a Start anchor to this work order's notes")
	timerCmd.AddCommand(timerStartCmd, timerStatusCmd, timerStopCmd, timerWatchCmd)
	rootCmd.AddCommand(timerCmd)
}

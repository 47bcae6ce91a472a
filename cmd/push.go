package cmd

import (
	"fmt"
	"os"

	"github.com/marcus/wo/internal/db"
	"github.com/marcus/wo/internal/models"
	"github.com/marcus/wo/internal/notes"
	"github.com/marcus/wo/internal/output"
	"github.com/marcus/wo/internal/reconcile"
	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push [work-order]",
	Short: "Push pending services to the remote system",
	Long: `Replay the stack against the remote system, one service at a time. Each
create is verified by a follow-up read before the entry is durably marked
pushed, so re-running push after an interruption resumes exactly where it
stopped and never duplicates work. Entries that fail stay pending and are
retried on the next invocation.`,
	GroupID: "remote",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base := getBaseDir()
		cfg, err := loadConfig(base)
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

		database, err := db.Open(base)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		ctx := cmd.Context()
		if err := facade.Login(ctx, retrier.Creds); err != nil {
			output.Error("login: %v", err)
			return err
		}

		pusher := &reconcile.Pusher{Store: database, Facade: facade, Retrier: retrier}

		var report *reconcile.PushReport
		if len(args) == 1 {
			if !models.IsValidWorkOrderID(args[0]) {
				output.Error("invalid work order ID %q (expected 7 digits)", args[0])
				return fmt.Errorf("invalid work order ID")
			}
			report, err = pusher.PushOne(ctx, args[0])
		} else {
			report, err = pusher.PushAll(ctx)
		}
		if report != nil {
			printPushReport(report)
		}
		if err != nil {
			output.Error("push aborted: %v", err)
			return err
		}

		if markNotes, _ := cmd.Flags().GetBool("mark-notes"); markNotes && len(report.Failures) == 0 {
			if err := markFullyPushed(database, notes.Dir(base, cfg)); err != nil {
				output.Warning("could not mark notes as synced: %v", err)
			}
		}
		return nil
	},
}

func printPushReport(r *reconcile.PushReport) {
	if r.Pushed == 0 && len(r.Failures) == 0 {
		output.Info("Nothing to push (%d already up to date)", r.AlreadyUp)
		return
	}
	output.Success("Pushed %d service(s) across %d work order(s)", r.Pushed, r.WorkOrders)
	if r.AlreadyUp > 0 {
		output.Info("%d already up to date", r.AlreadyUp)
	}
	for _, f := range r.Failures {
		output.Warning("still pending: %s seq %d: %v", f.WorkOrderID, f.Seq, f.Err)
	}
}

// markFullyPushed appends the synced marker to notes entries of batches with
// no pending services, so the next stacking pass skips them.
func markFullyPushed(database *db.DB, notesDir string) error {
	batches, err := database.GetAllBatches()
	if err != nil {
		return err
	}
	for i := range batches {
		b := &batches[i]
		if len(b.Services) == 0 || b.PendingCount() > 0 {
			continue
		}
		marked, err := notes.MarkSynced(notes.FilePath(notesDir, b.WorkOrderID), b.Services)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if marked > 0 {
			output.Info("Marked %d notes entr%s synced for %s", marked, plural(marked, "y", "ies"), b.WorkOrderID)
		}
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	pushCmd.Flags().String("driver", "", "override the configured remote driver command")
	pushCmd.Flags().Bool("mark-notes", true, "mark notes entries synced once their batch is fully pushed")
	rootCmd.AddCommand(pushCmd)
}

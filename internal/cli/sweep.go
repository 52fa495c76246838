package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stillpoint-app/stillpoint/internal/app/engagement"
	"github.com/stillpoint-app/stillpoint/internal/daemon"
	"github.com/stillpoint-app/stillpoint/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(sweepCmd)
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Reset streaks of users who missed yesterday",
	Long: `Run the inactive-streak sweep once and exit. Users with an active
streak and no session during yesterday's window have their streak reset
to zero. Safe to run while the server is up.`,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := sqlite.Open(cfg.Data.Dir)
	if err != nil {
		return err
	}
	defer db.Close()

	reset, err := engagement.NewSweeper(db, loc).SweepOnce()
	if err != nil {
		return err
	}

	fmt.Printf("Reset %d inactive streaks\n", reset)
	return nil
}

package main

import (
	"fmt"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"
)

var (
	rotateNow bool
	rotateAt  string
)

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "force an immediate genesis rotation, or preview the next scheduled one",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, closer, err := openGraphOffline()
		if err != nil {
			return err
		}
		defer closer()

		if !rotateNow {
			next := g.NextRotation(time.Now())
			fmt.Println("next scheduled rotation:", next.Format(time.RFC3339))
			return nil
		}

		scheduledAt := time.Now()
		if rotateAt != "" {
			scheduledAt, err = parseHumanTime(rotateAt)
			if err != nil {
				return fmt.Errorf("parse --at: %w", err)
			}
		}

		res, err := g.RotateGenesis(scheduledAt)
		if err != nil {
			return err
		}
		fmt.Printf("new genesis: %s (deleted %d stale events)\n", res.NewGenesis.ID(), len(res.Deleted))
		return nil
	},
}

// parseHumanTime resolves a free-form time expression like "tomorrow at
// midnight" or "in 2 hours" using the teacher's olebedev/when stack,
// for operator-friendly --at overrides instead of requiring RFC3339.
func parseHumanTime(expr string) (time.Time, error) {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	result, err := w.Parse(expr, time.Now())
	if err != nil {
		return time.Time{}, err
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("could not understand time expression %q", expr)
	}
	return result.Time, nil
}

func init() {
	rotateCmd.Flags().BoolVar(&rotateNow, "now", false, "rotate genesis immediately instead of previewing the next schedule")
	rotateCmd.Flags().StringVar(&rotateAt, "at", "", "human-readable scheduled time for the new genesis timestamp (default: now)")
}

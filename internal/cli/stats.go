package cli

import (
	"alcyxob/myhealth/internal/stats"
	"fmt"

	"github.com/spf13/cobra"
)

var statsMetric string

var statsCmd = &cobra.Command{
	Use:   "stats <exercise>",
	Short: "Show statistics of an exercise from the workout history",
	Long: `Show max weight, total volume and PR date of an exercise, its most recent
session and the daily best values of --metric (weight, reps, duration, distance).`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsMetric, "metric", string(stats.MetricWeight), "metric to chart")
}

func runStats(cmd *cobra.Command, args []string) error {
	name := args[0]
	metric, err := stats.ParseMetric(statsMetric)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()
	st := a.Repo.GetExerciseStats(ctx, name)
	_, _ = fmt.Fprintf(out, "%s\n", name)
	_, _ = fmt.Fprintf(out, "  max weight:   %g\n", st.MaxWeight)
	_, _ = fmt.Fprintf(out, "  total volume: %g\n", st.TotalVolume)
	if st.PRDate != "" {
		_, _ = fmt.Fprintf(out, "  PR date:      %s\n", st.PRDate)
	}

	if perf, ok := a.Repo.FetchLastPerformance(ctx, "", name); ok {
		_, _ = fmt.Fprintf(out, "  last session: %s (%s, %d sets)\n", perf.Date, perf.WorkoutName, len(perf.Sets))
	}

	points := a.Repo.ExerciseSeries(ctx, "", name, metric)
	if len(points) > 0 {
		_, _ = fmt.Fprintf(out, "  best %s per day:\n", metric)
		for _, p := range points {
			_, _ = fmt.Fprintf(out, "    %s  %g\n", p.Date, p.Value)
		}
	}
	return nil
}

package cli

import (
	"alcyxob/myhealth/internal/domain"
	"alcyxob/myhealth/internal/stats"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	weightUser  string
	weightDate  string
	weightRange string
)

var weightCmd = &cobra.Command{
	Use:   "weight",
	Short: "Record and inspect body weight",
	Long: `Record and inspect body weight.

Entries belong to --user (the guest owner by default).

Subcommands:
  add <kg>   Record the weight of a day (--date, default today)
  latest     Show the most recent weight
  chart      Show the weight chart of --range (Week, Month, 6Month, Year)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var weightAddCmd = &cobra.Command{
	Use:   "add <kg>",
	Short: "Record the body weight of a day",
	Args:  cobra.ExactArgs(1),
	RunE:  runWeightAdd,
}

var weightLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent body weight",
	Args:  cobra.NoArgs,
	RunE:  runWeightLatest,
}

var weightChartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Show the body weight chart",
	Args:  cobra.NoArgs,
	RunE:  runWeightChart,
}

func init() {
	weightCmd.PersistentFlags().StringVar(&weightUser, "user", domain.GuestUserID, "owner of the entries")
	weightAddCmd.Flags().StringVar(&weightDate, "date", "", "ISO date of the measurement (default today)")
	weightChartCmd.Flags().StringVar(&weightRange, "range", string(stats.RangeWeek), "chart range")

	weightCmd.AddCommand(weightAddCmd)
	weightCmd.AddCommand(weightLatestCmd)
	weightCmd.AddCommand(weightChartCmd)
}

func runWeightAdd(cmd *cobra.Command, args []string) error {
	kg, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid weight %q: %w", args[0], err)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	m, err := a.Repo.SaveBodyWeight(ctx, weightUser, kg, weightDate)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Recorded %g kg on %s\n", m.Weight, m.Date)
	return nil
}

func runWeightLatest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()
	w, ok := a.Repo.GetLatestBodyWeight(ctx, weightUser)
	if !ok {
		_, _ = fmt.Fprintln(out, "No body weight recorded")
		return nil
	}
	_, _ = fmt.Fprintf(out, "%g kg\n", w)
	return nil
}

func runWeightChart(cmd *cobra.Command, args []string) error {
	rng, err := stats.ParseRange(weightRange)
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
	chart := a.Repo.WeightHistory(ctx, weightUser, rng)
	for _, b := range chart.Buckets {
		value := "-"
		if b.Value != nil {
			value = strconv.FormatFloat(*b.Value, 'f', -1, 64)
		}
		_, _ = fmt.Fprintf(out, "%s  %-8s %s\n", b.Date, b.Label, value)
	}
	if chart.RangeAverage != nil {
		_, _ = fmt.Fprintf(out, "average: %g kg\n", *chart.RangeAverage)
	}
	return nil
}

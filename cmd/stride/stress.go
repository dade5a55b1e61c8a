package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stride/internal/stress"
)

var stressCmd = &cobra.Command{
	Use:   "stress [flags]",
	Short: "Drive allocation workloads and verify leak-free teardown",
	Long:  `Run reproducible allocation scenarios over isolated runtime contexts, in parallel, with per-frame collection and a leak check at teardown`,
	RunE:  runStress,
}

func init() {
	stressCmd.Flags().StringSlice("scenario", nil, "scenarios to run (default: all)")
	stressCmd.Flags().Bool("list", false, "list scenarios and exit")
	stressCmd.Flags().Int("contexts", 4, "contexts per scenario")
	stressCmd.Flags().Int("frames", 240, "frames per context")
	stressCmd.Flags().Int("ops", 64, "operations per frame")
	stressCmd.Flags().Int64("budget-us", -1, "per-frame gc budget in microseconds (-1: from config, 0: interval mode)")
	stressCmd.Flags().Uint64("seed", 1, "base rng seed")
	stressCmd.Flags().Int("jobs", 0, "parallel contexts (0 = GOMAXPROCS)")
	stressCmd.Flags().String("ui", "auto", "progress dashboard (auto|on|off)")
}

func runStress(cmd *cobra.Command, args []string) error {
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return fmt.Errorf("failed to get list flag: %w", err)
	}
	if list {
		for _, sc := range stress.Scenarios() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", sc.Name, sc.Desc)
		}
		return nil
	}

	names, err := cmd.Flags().GetStringSlice("scenario")
	if err != nil {
		return fmt.Errorf("failed to get scenario flag: %w", err)
	}
	contexts, err := cmd.Flags().GetInt("contexts")
	if err != nil {
		return fmt.Errorf("failed to get contexts flag: %w", err)
	}
	frames, err := cmd.Flags().GetInt("frames")
	if err != nil {
		return fmt.Errorf("failed to get frames flag: %w", err)
	}
	ops, err := cmd.Flags().GetInt("ops")
	if err != nil {
		return fmt.Errorf("failed to get ops flag: %w", err)
	}
	budgetUs, err := cmd.Flags().GetInt64("budget-us")
	if err != nil {
		return fmt.Errorf("failed to get budget-us flag: %w", err)
	}
	seed, err := cmd.Flags().GetUint64("seed")
	if err != nil {
		return fmt.Errorf("failed to get seed flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	if budgetUs < 0 {
		budgetUs = cfg.GC.FrameBudgetUs
	}

	scenarios, err := selectScenarios(names)
	if err != nil {
		return err
	}

	params := stress.Params{
		Scenarios: scenarios,
		Contexts:  contexts,
		Frames:    frames,
		Ops:       ops,
		BudgetUs:  budgetUs,
		Seed:      seed,
		Jobs:      jobs,
		Opts:      opts,
	}

	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	var results []stress.Result
	if shouldUseTUI(mode) {
		results, err = runStressWithUI(cmd.Context(), "stride stress", params)
	} else {
		results, err = stress.Run(cmd.Context(), params)
	}
	if err != nil {
		return err
	}

	printStressResults(cmd.OutOrStdout(), results)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "failed: %s #%d: %v\n", res.Scenario, res.Context, res.Err)
		}
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d runs failed\n", failed, len(results))
		os.Exit(1)
	}
	return nil
}

func selectScenarios(names []string) ([]stress.Scenario, error) {
	if len(names) == 0 {
		return stress.Scenarios(), nil
	}
	out := make([]stress.Scenario, 0, len(names))
	for _, name := range names {
		sc, ok := stress.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q (have: %s)", name, strings.Join(stress.Names(), ", "))
		}
		out = append(out, sc)
	}
	return out, nil
}

func printStressResults(out io.Writer, results []stress.Result) {
	for _, res := range results {
		status := "ok"
		if res.Err != nil {
			status = "FAIL"
		}
		fmt.Fprintf(out, "%-8s #%d  %-4s  frames=%-5d gc=%-4d cycles=%-5d collected=%-6d peak=%-5d %s\n",
			res.Scenario, res.Context, status,
			res.Frames, res.GCRuns, res.Detected, res.Collected, res.PeakLive,
			res.Elapsed.Round(100*time.Microsecond))
	}
}

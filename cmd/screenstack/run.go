package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/amp-labs/screenflow/cli"
	"github.com/amp-labs/screenflow/logger"
	"github.com/amp-labs/screenflow/scenario"
	"github.com/spf13/cobra"
)

var errScenariosFailed = errors.New("scenarios failed")

var runCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "run <file|dir>...",
	Short: "Replay scenario files and report their outcomes",
	Long: `Loads each YAML scenario (directories are searched for .yaml and .yml files),
runs them concurrently on virtual time and prints a report per scenario.
Exits non-zero if any scenario fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pick, err := cmd.Flags().GetBool("pick")
		if err != nil {
			return err
		}

		quiet, err := cmd.Flags().GetBool("quiet")
		if err != nil {
			return err
		}

		scenarios, err := loadScenarios(args)
		if err != nil {
			return err
		}

		if pick {
			scenarios, err = pickScenarios(scenarios)
			if err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		if quiet {
			ctx = logger.WithMuted(ctx, true)
		}

		reports, err := scenario.RunAll(ctx, scenarios)

		failed := printReports(cmd.OutOrStdout(), reports, quiet)

		if err != nil {
			return err
		}

		if failed > 0 {
			return fmt.Errorf("%w: %d of %d", errScenariosFailed, failed, len(reports))
		}

		return nil
	},
}

func init() { //nolint:gochecknoinits
	runCmd.Flags().Bool("pick", false, "Choose which of the loaded scenarios to run")
	runCmd.Flags().BoolP("quiet", "q", false, "Mute run logs and only print the summary line of passing scenarios")
	rootCmd.AddCommand(runCmd)
}

func loadScenarios(paths []string) ([]*scenario.Scenario, error) {
	var out []*scenario.Scenario

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if info.IsDir() {
			scenarios, err := scenario.LoadDir(path)
			if err != nil {
				return nil, err
			}

			out = append(out, scenarios...)

			continue
		}

		sc, err := scenario.LoadFile(path)
		if err != nil {
			return nil, err
		}

		out = append(out, sc)
	}

	return out, nil
}

func pickScenarios(all []*scenario.Scenario) ([]*scenario.Scenario, error) {
	byName := make(map[string]*scenario.Scenario, len(all))
	names := make([]string, 0, len(all))

	for _, sc := range all {
		byName[sc.Name] = sc
		names = append(names, sc.Name)
	}

	chosen, err := cli.MultiSelect("Scenarios to run", names...)
	if err != nil {
		return nil, err
	}

	out := make([]*scenario.Scenario, 0, len(chosen))
	for _, name := range chosen {
		out = append(out, byName[name])
	}

	return out, nil
}

// printReports writes one banner and report per scenario and returns how
// many failed. Missing reports belong to runs that errored.
func printReports(w io.Writer, reports []*scenario.Report, quiet bool) int {
	failed := 0

	for _, report := range reports {
		if report == nil {
			failed++

			continue
		}

		if !report.Passed() {
			failed++
		}

		if quiet && report.Passed() {
			fmt.Fprintf(w, "PASS %s\n", report.Scenario)

			continue
		}

		fmt.Fprint(w, cli.BannerAutoWidth(report.Scenario, cli.AlignLeft))
		fmt.Fprint(w, report.String())
	}

	fmt.Fprint(w, cli.DividerAutoWidth())
	fmt.Fprintf(w, "%d passed, %d failed\n", len(reports)-failed, failed)

	return failed
}

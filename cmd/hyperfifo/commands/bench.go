package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/hyperfifo/benchmarks"
)

const (
	CSVOptionName  = "csv"
	JSONOptionName = "json"
)

// ErrBenchmarkFailed is returned when a scenario errored or lost data.
var ErrBenchmarkFailed = errors.New("benchmark failed")

func newBenchCommand(g *globals) *cobra.Command {
	var (
		csvOutput  bool
		jsonOutput bool
		records    int
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure buffer throughput across the standard scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			if csvOutput && jsonOutput {
				return fmt.Errorf("--%s and --%s are exclusive",
					CSVOptionName, JSONOptionName)
			}

			hc := benchmarks.DefaultConfig()
			hc.Base = g.cfg.Clone()
			hc.Base.Output.CaptureDB = ""
			hc.Base.Output.Trace = ""
			hc.Base.Output.PCAP = ""
			hc.Output = cmd.OutOrStdout()
			hc.Verbose = verbose

			if cmd.Flags().Changed(RecordsOptionName) {
				hc.Base.Traffic.Records = records
			}

			harness := benchmarks.NewHarness(hc)
			harness.AddBenchmarks(benchmarks.GetScenarios())

			results := harness.RunAll()

			switch {
			case csvOutput:
				harness.PrintCSV(results)
			case jsonOutput:
				if err := harness.PrintJSON(results); err != nil {
					return err
				}
			default:
				harness.PrintResults(results)
			}

			if failed := benchmarks.Summarize(results).Failed; failed > 0 {
				return fmt.Errorf("%w: %d of %d scenarios",
					ErrBenchmarkFailed, failed, len(results))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&csvOutput, CSVOptionName, false, "Output results in CSV format")
	cmd.Flags().BoolVar(&jsonOutput, JSONOptionName, false, "Output results in JSON format")
	cmd.Flags().IntVar(&records, RecordsOptionName, 0, "Number of records per scenario")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print a line per finished scenario")

	return cmd
}

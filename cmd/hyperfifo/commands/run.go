package commands

import (
	"github.com/spf13/cobra"
)

const (
	RecordsOptionName = "records"
	SeedOptionName    = "seed"
	DBOptionName      = "db"
	TraceOptionName   = "trace"
	PCAPOptionName    = "pcap"
	StallOptionName   = "stall"
	ReadyOptionName   = "ready"
)

func newRunCommand(g *globals) *cobra.Command {
	var (
		records          int
		seed             int64
		db, tracePath    string
		pcapPath         string
		stall, readiness float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Push synthesized traffic through the capture buffer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.cfg.Clone()
			flags := cmd.Flags()

			if flags.Changed(RecordsOptionName) {
				cfg.Traffic.Records = records
			}
			if flags.Changed(SeedOptionName) {
				cfg.Traffic.Seed = seed
			}
			if flags.Changed(DBOptionName) {
				cfg.Output.CaptureDB = db
			}
			if flags.Changed(TraceOptionName) {
				cfg.Output.Trace = tracePath
			}
			if flags.Changed(PCAPOptionName) {
				cfg.Output.PCAP = pcapPath
			}
			if flags.Changed(StallOptionName) {
				cfg.HyperRAM.StallProbability = stall
			}
			if flags.Changed(ReadyOptionName) {
				cfg.Traffic.ReadyProbability = readiness
			}

			report, err := RunSession(cfg)
			if report != nil {
				report.Print(cmd.OutOrStdout())
			}

			return err
		},
	}

	cmd.Flags().IntVar(&records, RecordsOptionName, 0, "Number of records to synthesize")
	cmd.Flags().Int64Var(&seed, SeedOptionName, 0, "Traffic seed")
	cmd.Flags().StringVar(&db, DBOptionName, "", "Capture database to write, empty to skip")
	cmd.Flags().StringVar(&tracePath, TraceOptionName, "", "SQLite burst trace name, without extension")
	cmd.Flags().StringVar(&pcapPath, PCAPOptionName, "", "pcap file to export after the run")
	cmd.Flags().Float64Var(&stall, StallOptionName, 0, "HyperRAM word slot stall probability")
	cmd.Flags().Float64Var(&readiness, ReadyOptionName, 0, "Probability the host accepts a byte")

	return cmd
}

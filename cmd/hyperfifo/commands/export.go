package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/hyperfifo/capture/store"
)

const (
	OutOptionName         = "out"
	PacketsOnlyOptionName = "packets-only"
)

func newExportCommand(g *globals) *cobra.Command {
	var (
		db, out     string
		packetsOnly bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a capture database as a pcap file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if db == "" {
				db = g.cfg.Output.CaptureDB
			}

			s, err := store.Open(db)
			if err != nil {
				return err
			}
			defer s.Close()

			return exportPCAP(s, out, store.PCAPOptions{
				Start:       time.Now(),
				PacketsOnly: packetsOnly,
			})
		},
	}

	cmd.Flags().StringVar(&db, DBOptionName, "", "Capture database. Default from the config")
	cmd.Flags().StringVar(&out, OutOptionName, "capture.pcap", "pcap file to write")
	cmd.Flags().BoolVar(&packetsOnly, PacketsOnlyOptionName, false, "Leave event records out")

	return cmd
}

package commands

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sarchlab/hyperfifo/capture/store"
	"github.com/sarchlab/hyperfifo/monitor"
)

const AddressOptionName = "address"

func newServeCommand(g *globals) *cobra.Command {
	var db, address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a capture database over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if db == "" {
				db = g.cfg.Output.CaptureDB
			}
			if address == "" {
				address = g.cfg.Monitor.Address
			}

			s, err := store.Open(db)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return monitor.NewServer(s).Start(ctx, address)
		},
	}

	cmd.Flags().StringVar(&db, DBOptionName, "", "Capture database. Default from the config")
	cmd.Flags().StringVar(&address, AddressOptionName, "", "Address to bind. Default from the config")

	return cmd
}

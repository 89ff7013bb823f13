package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/stripesched/internal/config"
	"github.com/sarchlab/stripesched/internal/planserver"
	"github.com/sarchlab/stripesched/internal/schedule"
)

var (
	servePort        int
	serveOpenBrowser bool
	serveMemLoc      string
	serveMemKiB      uint64
	serveAlign       uint64
	serveXferLoc     string
)

var serveCmd = &cobra.Command{
	Use:   "serve <in.json>",
	Short: "Schedule a block and serve the result for inspection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		block, aliasMap, err := readBlock(args[0])
		if err != nil {
			return err
		}

		opts, err := config.Load(envPath, config.Flags{
			MemLoc:    serveMemLoc,
			MemKiB:    serveMemKiB,
			Alignment: serveAlign,
			XferLoc:   serveXferLoc,
		})
		if err != nil {
			return fmt.Errorf("resolving options: %w", err)
		}

		sched := schedule.New(aliasMap, block, opts)
		if traceWriter != nil {
			sched.AcceptHook(traceWriter)
		}
		if err := sched.Run(); err != nil {
			return fmt.Errorf("scheduling %s: %w", block.Name, err)
		}

		server := planserver.MakeBuilder().
			WithPortNumber(servePort).
			WithOpenInBrowser(serveOpenBrowser).
			Build(block)

		return server.Serve()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "TCP port to listen on (default: OS-assigned)")
	serveCmd.Flags().BoolVar(&serveOpenBrowser, "open", false, "open the plan viewer in a browser")
	serveCmd.Flags().StringVar(&serveMemLoc, "mem-loc", "", "target cache location name")
	serveCmd.Flags().Uint64Var(&serveMemKiB, "mem-kib", 0, "cache size in KiB")
	serveCmd.Flags().Uint64Var(&serveAlign, "alignment", 0, "placement alignment in bytes")
	serveCmd.Flags().StringVar(&serveXferLoc, "xfer-loc", "", "location tag for synthesized transfer blocks")

	rootCmd.AddCommand(serveCmd)
}

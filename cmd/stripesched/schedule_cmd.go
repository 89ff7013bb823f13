package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/stripesched/internal/config"
	"github.com/sarchlab/stripesched/internal/schedule"
	"github.com/sarchlab/stripesched/internal/stripe"
	"github.com/sarchlab/stripesched/internal/stripeio"
)

var (
	scheduleOutPath string
	scheduleMemLoc  string
	scheduleMemKiB  uint64
	scheduleAlign   uint64
	scheduleXferLoc string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule <in.json>",
	Short: "Run the caching memory scheduler over a block and write the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		block, aliasMap, err := readBlock(args[0])
		if err != nil {
			return err
		}

		opts, err := config.Load(envPath, config.Flags{
			MemLoc:    scheduleMemLoc,
			MemKiB:    scheduleMemKiB,
			Alignment: scheduleAlign,
			XferLoc:   scheduleXferLoc,
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

		if scheduleOutPath != "" && scheduleOutPath != "-" {
			f, err := os.Create(scheduleOutPath)
			if err != nil {
				return fmt.Errorf("creating output: %w", err)
			}
			defer f.Close()
			return stripeio.Encode(f, block)
		}
		return stripeio.Encode(os.Stdout, block)
	},
}

// readBlock loads a block and its alias map from the JSON envelope at path.
func readBlock(path string) (*stripe.Block, stripe.AliasMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return stripeio.Decode(f)
}

func init() {
	scheduleCmd.Flags().StringVarP(&scheduleOutPath, "output", "o", "",
		"path to write the scheduled block to (default: stdout)")
	scheduleCmd.Flags().StringVar(&scheduleMemLoc, "mem-loc", "", "target cache location name")
	scheduleCmd.Flags().Uint64Var(&scheduleMemKiB, "mem-kib", 0, "cache size in KiB")
	scheduleCmd.Flags().Uint64Var(&scheduleAlign, "alignment", 0, "placement alignment in bytes")
	scheduleCmd.Flags().StringVar(&scheduleXferLoc, "xfer-loc", "", "location tag for synthesized transfer blocks")

	rootCmd.AddCommand(scheduleCmd)
}

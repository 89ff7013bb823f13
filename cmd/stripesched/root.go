// Package cmd provides the command-line interface for the caching memory
// scheduler.
package cmd

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/stripesched/internal/schedtrace"
)

// rootCmd is the base command when stripesched is called without any
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "stripesched",
	Short: "stripesched schedules cache placement for a single Stripe block.",
	Long: `stripesched runs the reverse-order caching memory scheduling pass ` +
		`over a single Stripe block, planning cache placement for every ` +
		`refinement its statements touch and inserting the swap-in/swap-out ` +
		`transfer blocks the plan requires.`,
}

var (
	cpuProfilePath string
	traceDBPath    string
	envPath        string

	cpuProfileFile *os.File
	traceWriter    *schedtrace.Writer
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cpuProfilePath, "cpuprofile", "",
		"write a CPU profile to this path")
	rootCmd.PersistentFlags().StringVar(&traceDBPath, "trace-db", "",
		"attach a schedtrace.Writer at this SQLite path")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "",
		"path to a .env file overriding built-in defaults")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cpuProfilePath != "" {
			f, err := os.Create(cpuProfilePath)
			if err != nil {
				return fmt.Errorf("cpuprofile: %w", err)
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				return fmt.Errorf("cpuprofile: %w", err)
			}
			cpuProfileFile = f
		}

		if traceDBPath != "" {
			w, err := schedtrace.NewWriter(traceDBPath)
			if err != nil {
				return fmt.Errorf("trace-db: %w", err)
			}
			traceWriter = w
		}

		return nil
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if cpuProfileFile != nil {
			pprof.StopCPUProfile()
			cpuProfileFile.Close()
		}
		if traceWriter != nil {
			return traceWriter.Close()
		}
		return nil
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
}

package cmd

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cobra"
)

var doctorMemKiB uint64

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Report host memory and sanity-check a requested --mem-kib budget",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		vm, err := mem.VirtualMemory()
		if err != nil {
			return fmt.Errorf("reading host memory: %w", err)
		}

		availKiB := vm.Available / 1024
		fmt.Printf("host memory: %d KiB total, %d KiB available\n", vm.Total/1024, availKiB)

		if doctorMemKiB == 0 {
			return nil
		}

		fmt.Printf("requested budget: %d KiB\n", doctorMemKiB)
		if doctorMemKiB > availKiB {
			fmt.Println("warning: requested budget exceeds available host memory; this is advisory only and does not block scheduling")
		}

		return nil
	},
}

func init() {
	doctorCmd.Flags().Uint64Var(&doctorMemKiB, "mem-kib", 0,
		"budget to sanity-check against available host memory")

	rootCmd.AddCommand(doctorCmd)
}

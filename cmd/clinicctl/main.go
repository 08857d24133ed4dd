// Command clinicctl inspects calendar layouts and navigation trees offline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clinicctl",
		Short:         "Offline tools for the clinic admin API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newWeekCmd(), newNavCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

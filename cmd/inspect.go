package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/laser-sim/laser/sim"
	"github.com/laser-sim/laser/sim/frame"
	"github.com/laser-sim/laser/sim/snapshot"
)

// inspectCmd summarizes a snapshot written by run --snapshot
var inspectCmd = &cobra.Command{
	Use:   "inspect <snapshot>",
	Short: "Describe a population snapshot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		f, h, err := snapshot.Load(args[0])
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		fmt.Printf("run %s at tick %d\n", h.RunID, h.Tick)
		fmt.Print(f.Describe())
		if !f.Has(sim.ColState) {
			return
		}
		counts, err := frame.Bincount[uint8](f, sim.ColState, sim.NumStates)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		for s, c := range counts {
			fmt.Fprintf(os.Stdout, "  %s=%d", sim.State(s), c)
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

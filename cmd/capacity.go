package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/laser-sim/laser/sim"
	"github.com/laser-sim/laser/sim/capacity"
)

// capacityCmd prints the per-node capacity estimate for a grid scenario
var capacityCmd = &cobra.Command{
	Use:   "capacity",
	Short: "Estimate per-node agent capacity for a grid scenario",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		bag, err := buildBag(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		cfg, err := sim.ConfigFromBag(bag)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		table, err := buildScenario(bag)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		rates := make([]float64, table.Len())
		for i := range rates {
			rates[i] = cfg.CBR
		}
		caps, err := capacity.CalcCapacity(capacity.Broadcast(rates, int(max(cfg.Ticks, 1))), table.Population, cfg.SafetyFactor)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "node\tpopulation\tcapacity\t")
		for i, c := range caps {
			fmt.Fprintf(tw, "%d\t%d\t%d\t\n", table.NodeID[i], table.Population[i], c)
		}
		fmt.Fprintf(tw, "total\t%d\t%d\t\n", table.TotalPopulation(), capacity.Total(caps))
		if err := tw.Flush(); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func init() {
	def := sim.DefaultConfig()
	addGridFlags(capacityCmd)
	capacityCmd.Flags().Int64Var(&ticks, "ticks", def.Ticks, "Number of ticks (days) of births to provision for")
	capacityCmd.Flags().Float64Var(&cbr, "cbr", def.CBR, "Crude birth rate (births per 1,000 per year)")
	capacityCmd.Flags().Float64Var(&safetyFactor, "safety-factor", def.SafetyFactor, "Capacity headroom multiplier")
	rootCmd.AddCommand(capacityCmd)
}

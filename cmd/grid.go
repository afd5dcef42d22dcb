package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/laser-sim/laser/sim/scenario"
)

var gridOut string // GeoJSON output path, stdout when empty

// gridCmd writes the grid scenario as a GeoJSON feature collection
var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Write a grid scenario as GeoJSON",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		bag, err := buildBag(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		table, err := buildScenario(bag)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		if err := writeGeoJSON(gridOut, table); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("grid: %d nodes, population %d, bounds %v", table.Len(), table.TotalPopulation(), table.Bounds())
	},
}

// writeGeoJSON writes the table to path, or to stdout when path is empty.
func writeGeoJSON(path string, table *scenario.Table) error {
	if path == "" {
		return table.WriteGeoJSON(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := table.WriteGeoJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	addGridFlags(gridCmd)
	gridCmd.Flags().Float64SliceVar(&initial, "initial", nil, "Comma-separated initial S,E,I,R fractions for every node")
	gridCmd.Flags().StringVar(&gridOut, "out", "", "Output file (default stdout)")
	rootCmd.AddCommand(gridCmd)
}

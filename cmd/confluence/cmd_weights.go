package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marketweave/confluence/internal/weights"
)

var weightsFormat string

// weightsCmd prints the resolved, normalized weight maps. Useful for checking
// what a config override actually does before pointing it at live scoring.
var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show resolved component and timeframe weights",
	RunE:  runWeights,
}

func init() {
	rootCmd.AddCommand(weightsCmd)
	addFormatFlag(weightsCmd.Flags(), &weightsFormat)
}

func runWeights(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := buildEngine(cfg, log.Logger)
	if err != nil {
		return err
	}

	if weightsFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]map[string]float64{
			"components": engine.ComponentWeights().Map(),
			"timeframes": engine.TimeframeWeights().Map(),
		})
	}

	render := func(title string, w weights.ComponentWeights) {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle(title)
		t.AppendHeader(table.Row{"Key", "Weight"})
		for _, key := range w.Keys() {
			t.AppendRow(table.Row{key, fmt.Sprintf("%.4f", w.Get(key))})
		}
		t.AppendFooter(table.Row{"sum", fmt.Sprintf("%.4f", w.Sum())})
		t.Render()
		fmt.Println()
	}
	render("Component weights", engine.ComponentWeights())
	render("Timeframe weights", engine.TimeframeWeights())
	return nil
}

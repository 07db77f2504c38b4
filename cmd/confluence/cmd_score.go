package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marketweave/confluence/internal/cache"
	"github.com/marketweave/confluence/internal/composite"
	"github.com/marketweave/confluence/internal/interpret"
	"github.com/marketweave/confluence/internal/market"
	"github.com/marketweave/confluence/internal/persistence"
	"github.com/marketweave/confluence/internal/persistence/postgres"
)

var scoreFormat string

// scoreCmd scores one snapshot file through the full pipeline.
var scoreCmd = &cobra.Command{
	Use:   "score <snapshot.json>",
	Short: "Score a market snapshot",
	Long: `Score a market snapshot file and print the composite confluence result.

The file must contain one JSON snapshot: symbol, per-timeframe OHLCV, and
optional ticker/orderbook/trades/sentiment payloads.

Examples:
  confluence score snapshot.json
  confluence score snapshot.json --format json
  confluence -c config.yaml score snapshot.json`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	addFormatFlag(scoreCmd.Flags(), &scoreFormat)
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := buildEngine(cfg, log.Logger)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", args[0], err)
	}
	var snap market.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse snapshot %s: %w", args[0], err)
	}

	ctx := context.Background()
	var resultCache *cache.ResultCache
	if cfg.Cache.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.Addr, DB: cfg.Cache.DB})
		resultCache = cache.New(client, cfg.Cache.TTL, log.Logger)
	}

	result, ok := resultCache.Get(ctx, &snap)
	if !ok {
		result = engine.Evaluate(&snap)
		resultCache.Put(ctx, &snap, result)
	}

	if cfg.Database.Enabled {
		var store persistence.ResultStore
		store, err = postgres.NewResultStore(cfg.Database.DSN, cfg.Database.Timeout)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(ctx, result); err != nil {
			log.Error().Err(err).Msg("result store save failed")
		}
	}

	if scoreFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	renderResult(result, engine)
	return nil
}

// renderResult prints the composite result as tables.
func renderResult(result *composite.Result, engine *composite.Engine) {
	fmt.Printf("%s — %.1f/100 (%s) [%s]\n\n",
		result.Symbol, result.Score, interpret.Band(result.Score), result.Meta.Status)

	weightsMap := engine.ComponentWeights()
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Component", "Score", "Weight", "Band"})
	for _, name := range weightsMap.Keys() {
		s, ok := result.Components[name]
		if !ok {
			continue
		}
		t.AppendRow(table.Row{name, fmt.Sprintf("%.1f", s),
			fmt.Sprintf("%.3f", weightsMap.Get(name)), interpret.Band(s)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.Render()

	if n := len(result.Divergences.Bullish) + len(result.Divergences.Bearish); n > 0 {
		fmt.Println()
		d := table.NewWriter()
		d.SetOutputMirror(os.Stdout)
		d.AppendHeader(table.Row{"Divergence", "Direction", "Adjustment"})
		for _, ev := range result.Divergences.Bullish {
			d.AppendRow(table.Row{ev.Indicator, ev.Direction, fmt.Sprintf("%+.0f", ev.Adjustment)})
		}
		for _, ev := range result.Divergences.Bearish {
			d.AppendRow(table.Row{ev.Indicator, ev.Direction, fmt.Sprintf("%+.0f", ev.Adjustment)})
		}
		d.Render()
	}

	for _, sig := range result.Signals {
		fmt.Printf("\nsignal: %s (%s, confidence %.2f) — %s\n",
			sig.Signal, sig.Strength, sig.Confidence, sig.Reason)
	}
	fmt.Printf("\n%s\n", result.Interpretation)
}

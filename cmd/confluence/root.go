package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/marketweave/confluence/internal/composite"
	"github.com/marketweave/confluence/internal/config"
	"github.com/marketweave/confluence/internal/indicator"
	"github.com/marketweave/confluence/internal/score"
)

var (
	flagConfig   string
	flagLogLevel string
)

// rootCmd is the base command for the confluence CLI.
var rootCmd = &cobra.Command{
	Use:   "confluence",
	Short: "Multi-timeframe indicator confluence scorer",
	Long: `confluence computes a composite 0-100 confidence score per trading symbol
by combining technical and sentiment indicators across four timeframes,
detecting cross-timeframe divergences along the way.

Snapshots are scored as-is: fetching market data is the caller's job.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(flagLogLevel)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "path to YAML config (defaults apply when omitted)")
	pf.StringVar(&flagLogLevel, "log-level", "info", "log level (trace|debug|info|warn|error)")
}

// setupLogging configures the global zerolog logger: pretty console output on a
// terminal, JSON otherwise.
func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return nil
}

// loadConfig reads the --config file, or returns pure defaults.
func loadConfig() (*config.Config, error) {
	if flagConfig == "" {
		return config.Default()
	}
	return config.Load(flagConfig)
}

// addFormatFlag registers the shared output format flag.
func addFormatFlag(fs *pflag.FlagSet, target *string) {
	fs.StringVarP(target, "format", "f", "table", "output format (table|json)")
}

// buildEngine maps the loaded config onto engine parameters. Weight resolution
// happens inside the engine; a broken weight map fails here, before any scoring.
func buildEngine(cfg *config.Config, logger zerolog.Logger) (*composite.Engine, error) {
	lookbacks := indicator.Lookbacks{
		RSI:               cfg.Indicators.Lookbacks.RSI,
		MACD:              cfg.Indicators.Lookbacks.MACD,
		AwesomeOscillator: cfg.Indicators.Lookbacks.AwesomeOscillator,
		WilliamsR:         cfg.Indicators.Lookbacks.WilliamsR,
		ATR:               cfg.Indicators.Lookbacks.ATR,
		CCI:               cfg.Indicators.Lookbacks.CCI,
	}
	split := score.FundingSplit{
		Rate:       cfg.Sentiment.FundingSplit.Rate,
		Volatility: cfg.Sentiment.FundingSplit.Volatility,
	}
	return composite.NewEngine(composite.Params{
		ComponentConfig:    cfg.ComponentLayer(),
		ComponentOverrides: cfg.Confluence.Weights,
		TimeframeOverrides: cfg.Confluence.TimeframeWeights,
		Lookbacks:          &lookbacks,
		FundingSplit:       &split,
		Sigmoid: composite.SigmoidSensitivities{
			FundingRate:    cfg.Sentiment.Sigmoid.FundingRate,
			LongShortRatio: cfg.Sentiment.Sigmoid.LongShortRatio,
			Liquidations:   cfg.Sentiment.Sigmoid.Liquidations,
		},
		MinBaseBars: cfg.Confluence.MinBaseBars,
		Logger:      &logger,
	})
}

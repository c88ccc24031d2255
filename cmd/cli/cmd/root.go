package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/module/reachability/pkg/utils"
)

var (
	// Global flags
	verbose bool
	logger  utils.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cli",
	Short: "Exact probabilistic reachability inference over DAGs",
	Long: `cli computes exact reachability beliefs over directed acyclic
networks, where each node's belief is its prior times the probability
of receiving at least one signal from an active parent.

It can resolve a network document in a single shot (infer) or run as
a long-lived service that accepts jobs from a database or HTTP source,
persists results, and serves them over HTTP (serve).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stdout)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	binName := BinName()
	rootCmd.Example = `  # Resolve beliefs for a network document
  ` + binName + ` infer --network ./network.json

  # Resolve with the SDP evaluator, computed in parallel across join nodes
  ` + binName + ` infer --network ./network.json --evaluator sdp --parallel

  # Start the long-running inference service (scheduler + HTTP API)
  ` + binName + ` serve --config ./config.yaml`
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/module/reachability/internal/networkio"
	"github.com/module/reachability/pkg/engine"
	"github.com/module/reachability/pkg/model"
	"github.com/module/reachability/pkg/value"
	"github.com/module/reachability/pkg/writer"
)

var (
	inferNetworkFile string
	inferEvaluator   string
	inferParallel    bool
	inferOutputFile  string
)

// inferCmd resolves beliefs for a network document in a single shot.
var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Resolve reachability beliefs for a network document",
	Long: `infer reads a network document (edges, node priors, edge
probabilities, and optionally a pre-supplied diamond decomposition),
computes each node's exact belief, and prints the resulting map.`,
	RunE: runInfer,
}

func init() {
	rootCmd.AddCommand(inferCmd)

	binName := BinName()
	inferCmd.Example = `  # Resolve a network with the default enumeration evaluator
  ` + binName + ` infer --network ./network.json

  # Resolve with SDP and cross-diamond parallelism, writing to a file
  ` + binName + ` infer --network ./network.json --evaluator sdp --parallel --output ./beliefs.json`

	inferCmd.Flags().StringVarP(&inferNetworkFile, "network", "i", "", "Network document file (required)")
	inferCmd.Flags().StringVar(&inferEvaluator, "evaluator", "enumeration", "Diamond evaluator: enumeration or sdp")
	inferCmd.Flags().BoolVar(&inferParallel, "parallel", false, "Enable cross-diamond parallelism")
	inferCmd.Flags().StringVarP(&inferOutputFile, "output", "o", "", "Write the belief map to this file instead of stdout")
	inferCmd.MarkFlagRequired("network")
}

func runInfer(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	f, err := os.Open(inferNetworkFile)
	if err != nil {
		return fmt.Errorf("failed to open network file: %w", err)
	}
	defer f.Close()

	doc, err := networkio.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode network document: %w", err)
	}

	hash, err := networkio.Hash(doc)
	if err != nil {
		return fmt.Errorf("failed to hash network document: %w", err)
	}

	network, err := doc.Network()
	if err != nil {
		return fmt.Errorf("failed to build network: %w", err)
	}

	diamondsAtNode, err := doc.ToDiamondsAtNode(network)
	if err != nil {
		return fmt.Errorf("failed to decode diamond decomposition: %w", err)
	}

	opts, err := parseInferOptions(inferEvaluator, inferParallel)
	if err != nil {
		return err
	}

	log.Info("Resolving network %s (%d edges, evaluator=%s, parallel=%t)", hash, len(doc.Edges), inferEvaluator, inferParallel)

	beliefs, err := engine.UpdateBeliefs(network, diamondsAtNode, opts...)
	if err != nil {
		return fmt.Errorf("inference failed: %w", err)
	}

	log.Info("Resolved %d node beliefs", len(beliefs))

	return writeBeliefs(hash, beliefs, inferOutputFile)
}

func parseInferOptions(evaluator string, parallel bool) ([]engine.Option, error) {
	var opts []engine.Option

	switch evaluator {
	case "enumeration":
		// engine's own default
	case "sdp":
		opts = append(opts, engine.WithEvaluator(engine.EvaluatorSDP))
	default:
		return nil, fmt.Errorf("unknown evaluator: %q (valid: enumeration, sdp)", evaluator)
	}

	if parallel {
		opts = append(opts, engine.WithParallel())
	}

	return opts, nil
}

// inferResult is the printed shape of an infer run: the network hash
// plus beliefs keyed by node ID as decimal strings, sorted ascending.
type inferResult struct {
	NetworkHash string                     `json:"network_hash"`
	Beliefs     map[string]json.RawMessage `json:"beliefs"`
}

func writeBeliefs(hash string, beliefs map[model.Node]value.Belief, outputFile string) error {
	nodes := make([]model.Node, 0, len(beliefs))
	for n := range beliefs {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	result := inferResult{
		NetworkHash: hash,
		Beliefs:     make(map[string]json.RawMessage, len(nodes)),
	}

	for _, n := range nodes {
		wire, err := value.Marshal(beliefs[n])
		if err != nil {
			return fmt.Errorf("failed to encode belief for node %d: %w", n, err)
		}
		result.Beliefs[fmt.Sprintf("%d", uint64(n))] = wire
	}

	w := writer.NewPrettyJSONWriter[inferResult]()
	if outputFile == "" {
		return w.Write(result, os.Stdout)
	}

	if err := w.WriteToFile(result, outputFile); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

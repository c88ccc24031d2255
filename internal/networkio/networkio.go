// Package networkio reads and writes the JSON wire representation of a
// network: the edgelist, priors, edge probabilities, and the optional
// pre-supplied diamond decomposition that cmd/cli, the HTTP API, and
// internal/scheduler exchange with callers. It is also used to archive
// a run's input network to object storage, compressed with zstd, keyed
// by the network's content hash.
package networkio

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/module/reachability/internal/decompose"
	"github.com/module/reachability/internal/topology"
	"github.com/module/reachability/pkg/compression"
	"github.com/module/reachability/pkg/model"
	"github.com/module/reachability/pkg/value"
)

// EdgeDoc is the wire representation of a model.Edge.
type EdgeDoc struct {
	Src uint64 `json:"src"`
	Dst uint64 `json:"dst"`
}

// NodePriorDoc is the wire representation of one node's prior belief.
type NodePriorDoc struct {
	Node   uint64          `json:"node"`
	Belief json.RawMessage `json:"belief"`
}

// EdgeProbabilityDoc is the wire representation of one edge's
// transmission probability.
type EdgeProbabilityDoc struct {
	Src    uint64          `json:"src"`
	Dst    uint64          `json:"dst"`
	Belief json.RawMessage `json:"belief"`
}

// DiamondDoc is the wire representation of a model.Diamond.
type DiamondDoc struct {
	JoinNode      uint64    `json:"join_node"`
	RelevantNodes []uint64  `json:"relevant_nodes"`
	HighestNodes  []uint64  `json:"highest_nodes"`
	Edgelist      []EdgeDoc `json:"edgelist"`
}

// DiamondsAtNodeDoc is the wire representation of a model.DiamondsAtNode.
type DiamondsAtNodeDoc struct {
	Node              uint64       `json:"node"`
	Diamonds          []DiamondDoc `json:"diamonds"`
	NonDiamondParents []uint64     `json:"non_diamond_parents"`
}

// Document is the full JSON wire shape of a network submitted for
// inference. DiamondsAtNode is optional: when the caller omits it,
// ToDiamondsAtNode falls back to internal/decompose's reference
// decomposer rather than leaving every join node's parents treated as
// independent.
type Document struct {
	Kind              string               `json:"kind"`
	Edges             []EdgeDoc            `json:"edges"`
	NodePriors        []NodePriorDoc       `json:"node_priors"`
	EdgeProbabilities []EdgeProbabilityDoc `json:"edge_probabilities"`
	DiamondsAtNode    []DiamondsAtNodeDoc  `json:"diamonds_at_node,omitempty"`
}

// Decode parses a Document from JSON.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("networkio: decode document: %w", err)
	}
	return &doc, nil
}

// Encode writes a Document as JSON.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Network builds a model.Network from the document via internal/topology.
func (d *Document) Network() (*model.Network, error) {
	kind, err := value.ParseKind(d.Kind)
	if err != nil {
		return nil, fmt.Errorf("networkio: %w", err)
	}

	in := topology.BuildInput{
		Kind:              kind,
		Edges:             make([]model.Edge, len(d.Edges)),
		NodePriors:        make(map[model.Node]value.Belief, len(d.NodePriors)),
		EdgeProbabilities: make(map[model.Edge]value.Belief, len(d.EdgeProbabilities)),
	}

	for i, e := range d.Edges {
		in.Edges[i] = model.Edge{Src: model.Node(e.Src), Dst: model.Node(e.Dst)}
	}
	for _, p := range d.NodePriors {
		b, err := value.Unmarshal(p.Belief, kind)
		if err != nil {
			return nil, fmt.Errorf("networkio: node %d prior: %w", p.Node, err)
		}
		in.NodePriors[model.Node(p.Node)] = b
	}
	for _, p := range d.EdgeProbabilities {
		b, err := value.Unmarshal(p.Belief, kind)
		if err != nil {
			return nil, fmt.Errorf("networkio: edge (%d,%d) probability: %w", p.Src, p.Dst, err)
		}
		in.EdgeProbabilities[model.Edge{Src: model.Node(p.Src), Dst: model.Node(p.Dst)}] = b
	}

	return topology.Build(in)
}

// ToDiamondsAtNode builds the engine's diamond-decomposition map from the
// document's explicit DiamondsAtNode entries. If the document supplies
// none, it falls back to running internal/decompose's reference
// decomposer against network, so callers that submit a bare edgelist
// still get correct diamond conditioning instead of silently degrading
// every join node to independent parents.
func (d *Document) ToDiamondsAtNode(network *model.Network) (map[model.Node]*model.DiamondsAtNode, error) {
	if len(d.DiamondsAtNode) == 0 {
		return decompose.Decompose(network), nil
	}

	out := make(map[model.Node]*model.DiamondsAtNode, len(d.DiamondsAtNode))
	for _, dn := range d.DiamondsAtNode {
		diamonds := make([]*model.Diamond, len(dn.Diamonds))
		for i, dd := range dn.Diamonds {
			diamonds[i] = &model.Diamond{
				JoinNode:      model.Node(dd.JoinNode),
				RelevantNodes: toNodes(dd.RelevantNodes),
				HighestNodes:  toNodes(dd.HighestNodes),
				Edgelist:      toEdges(dd.Edgelist),
			}
		}
		out[model.Node(dn.Node)] = &model.DiamondsAtNode{
			Node:              model.Node(dn.Node),
			Diamonds:          diamonds,
			NonDiamondParents: toNodes(dn.NonDiamondParents),
		}
	}
	return out, nil
}

func toNodes(ids []uint64) []model.Node {
	if ids == nil {
		return nil
	}
	out := make([]model.Node, len(ids))
	for i, id := range ids {
		out[i] = model.Node(id)
	}
	return out
}

func toEdges(docs []EdgeDoc) []model.Edge {
	if docs == nil {
		return nil
	}
	out := make([]model.Edge, len(docs))
	for i, d := range docs {
		out[i] = model.Edge{Src: model.Node(d.Src), Dst: model.Node(d.Dst)}
	}
	return out
}

// Hash computes the canonical content hash of a document: the hex SHA-256
// of its edges, priors, and edge probabilities in sorted order, excluding
// any pre-supplied diamond decomposition (two submissions of the same
// network with different externally-supplied decompositions are still
// the same network for run-memoization purposes).
func Hash(doc *Document) (string, error) {
	canon := struct {
		Kind              string               `json:"kind"`
		Edges             []EdgeDoc            `json:"edges"`
		NodePriors        []NodePriorDoc       `json:"node_priors"`
		EdgeProbabilities []EdgeProbabilityDoc `json:"edge_probabilities"`
	}{
		Kind:              doc.Kind,
		Edges:             append([]EdgeDoc(nil), doc.Edges...),
		NodePriors:        append([]NodePriorDoc(nil), doc.NodePriors...),
		EdgeProbabilities: append([]EdgeProbabilityDoc(nil), doc.EdgeProbabilities...),
	}
	sort.Slice(canon.Edges, func(i, j int) bool {
		if canon.Edges[i].Src != canon.Edges[j].Src {
			return canon.Edges[i].Src < canon.Edges[j].Src
		}
		return canon.Edges[i].Dst < canon.Edges[j].Dst
	})
	sort.Slice(canon.NodePriors, func(i, j int) bool { return canon.NodePriors[i].Node < canon.NodePriors[j].Node })
	sort.Slice(canon.EdgeProbabilities, func(i, j int) bool {
		if canon.EdgeProbabilities[i].Src != canon.EdgeProbabilities[j].Src {
			return canon.EdgeProbabilities[i].Src < canon.EdgeProbabilities[j].Src
		}
		return canon.EdgeProbabilities[i].Dst < canon.EdgeProbabilities[j].Dst
	})

	data, err := json.Marshal(canon)
	if err != nil {
		return "", fmt.Errorf("networkio: hash: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// CompressArchive zstd-compresses a document's JSON encoding for storage.
func CompressArchive(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}

	zc, err := compression.NewZstdCompressor(compression.LevelDefault)
	if err != nil {
		return nil, fmt.Errorf("networkio: zstd compressor: %w", err)
	}
	defer zc.Close()

	return zc.Compress(buf.Bytes())
}

// DecompressArchive reverses CompressArchive.
func DecompressArchive(data []byte) (*Document, error) {
	zc, err := compression.NewZstdCompressor(compression.LevelDefault)
	if err != nil {
		return nil, fmt.Errorf("networkio: zstd compressor: %w", err)
	}
	defer zc.Close()

	raw, err := zc.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("networkio: zstd decode: %w", err)
	}

	return Decode(bytes.NewReader(raw))
}

// EncodeBeliefs serializes a resolved belief map for repository storage.
func EncodeBeliefs(beliefs map[model.Node]value.Belief) ([]byte, error) {
	entries := make([]NodePriorDoc, 0, len(beliefs))
	for node, b := range beliefs {
		wire, err := value.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("networkio: encode belief for node %d: %w", node, err)
		}
		entries = append(entries, NodePriorDoc{Node: uint64(node), Belief: wire})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Node < entries[j].Node })
	return json.Marshal(entries)
}

// DecodeBeliefs reverses EncodeBeliefs for the given Kind.
func DecodeBeliefs(data []byte, kind value.Kind) (map[model.Node]value.Belief, error) {
	var entries []NodePriorDoc
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("networkio: decode beliefs: %w", err)
	}
	out := make(map[model.Node]value.Belief, len(entries))
	for _, e := range entries {
		b, err := value.Unmarshal(e.Belief, kind)
		if err != nil {
			return nil, fmt.Errorf("networkio: decode belief for node %d: %w", e.Node, err)
		}
		out[model.Node(e.Node)] = b
	}
	return out, nil
}

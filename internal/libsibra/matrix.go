package libsibra

import (
	"os"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MatrixFile is the name of the per-AS traffic matrix document.
const MatrixFile = "matrix.yml"

// Matrix is the traffic matrix: source entity -> destination entity ->
// bit-rate ceiling in bps. It constrains competing traffic while a
// measurement runs.
type Matrix map[string]map[string]int64

// LoadMatrix reads and decodes a traffic matrix document.
func LoadMatrix(path string) (Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading matrix")
	}
	var m Matrix
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return m, nil
}

// Fill overwrites every cell with the same ceiling.
func (m Matrix) Fill(bps int64) {
	for src := range m {
		for dst := range m[src] {
			m[src][dst] = bps
		}
	}
}

// Encode serializes the matrix in block style with sorted keys, so that
// repeated writes of the same content are byte-identical. The yaml
// package does not guarantee map ordering, so the document tree is
// built explicitly.
func (m Matrix) Encode() ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, src := range sortedKeys(m) {
		row := &yaml.Node{Kind: yaml.MappingNode}
		for _, dst := range sortedKeys(m[src]) {
			row.Content = append(row.Content,
				scalarNode(dst),
				scalarNode(strconv.FormatInt(m[src][dst], 10)))
		}
		root.Content = append(root.Content, scalarNode(src), row)
	}
	data, err := yaml.Marshal(root)
	if err != nil {
		return nil, errors.Wrap(err, "encoding matrix")
	}
	return data, nil
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

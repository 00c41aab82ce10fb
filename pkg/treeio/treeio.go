// Package treeio serializes Simpson trees to and from JSON.
//
// The format is the canonical interchange representation for trees: used by
// the CLI to hand trees between commands, by the HTTP API for responses, and
// by the cache for stored builds. It is human-readable and round-trip
// faithful: build → export → re-import yields an identical tree.
package treeio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/paradoxlab/reversal/pkg/simpson"
)

// Tree is the serialization format for a Simpson tree. Layers appear in
// order, layer 1 first; the split constants are carried so a re-imported
// tree remembers how it was generated.
type Tree struct {
	Constants simpson.Constants `json:"constants" bson:"constants"`
	Layers    []simpson.Layer   `json:"layers" bson:"layers"`
}

// FromTree converts a built tree to its serialization format.
func FromTree(t *simpson.Tree) Tree {
	return Tree{Constants: t.Constants(), Layers: t.Layers()}
}

// ToTree converts the serialization format back into a validated tree.
// Returns an error if any layer violates the structural invariants.
func ToTree(t Tree) (*simpson.Tree, error) {
	return simpson.FromLayers(t.Layers, t.Constants)
}

// MarshalTree converts a tree to indented JSON bytes.
func MarshalTree(t *simpson.Tree) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTreeTo(t, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTreeFile writes a tree to a JSON file.
// The file is created with 0644 permissions.
func WriteTreeFile(t *simpson.Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeTreeTo(t, f)
}

// WriteTree writes a tree as JSON to an io.Writer.
func WriteTree(t *simpson.Tree, w io.Writer) error {
	return writeTreeTo(t, w)
}

// ReadTreeFile reads a JSON file and returns the decoded tree.
// Returns validation errors for malformed trees.
func ReadTreeFile(path string) (*simpson.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readTreeFrom(f)
}

// ReadTree decodes a JSON tree from an io.Reader.
func ReadTree(r io.Reader) (*simpson.Tree, error) {
	return readTreeFrom(r)
}

func writeTreeTo(t *simpson.Tree, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromTree(t)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readTreeFrom(r io.Reader) (*simpson.Tree, error) {
	var data Tree
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ToTree(data)
}

// Package rigfile saves and loads component trees. Each node is written as
// its State Record members plus a "children" list, as JSON or YAML depending
// on the file extension. Readers and writers of the same file serialize on a
// "<path>.lock" file lock.
package rigfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"armature/internal/component"
	"armature/internal/ddata"
	"armature/internal/faults"
	"armature/internal/tree"
)

// KeyChildren holds a node's children in the persisted form.
const KeyChildren = "children"

// Format is a persisted encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from path's extension; anything other than
// .yaml or .yml is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Save writes root's tree to path through a temp file and rename.
func Save(path string, root *tree.Node) error {
	if root == nil {
		return faults.Wrap(faults.ErrValidation, "rigfile", "save", "nothing to save", nil)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, root, FormatFor(path)); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create rig directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire rig file lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads the tree stored at path. Every component type is checked
// against reg before any record is decoded.
func Load(path string, reg *component.Registry) (*tree.Node, error) {
	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("acquire rig file lock: %w", err)
	}
	data, err := os.ReadFile(path)
	_ = lock.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, faults.Wrap(faults.ErrNotFound, "rigfile", "load", path, err)
		}
		return nil, fmt.Errorf("read rig file: %w", err)
	}
	return Decode(bytes.NewReader(data), FormatFor(path), reg)
}

// Encode writes root's tree to w.
func Encode(w io.Writer, root *tree.Node, format Format) error {
	data, err := encodeNode(root)
	if err != nil {
		return err
	}
	switch format {
	case FormatYAML:
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("convert to yaml: %w", err)
		}
		blockStyle(&doc)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		var out bytes.Buffer
		if err := json.Indent(&out, data, "", "  "); err != nil {
			return fmt.Errorf("indent json: %w", err)
		}
		out.WriteByte('\n')
		_, err := w.Write(out.Bytes())
		return err
	}
}

// Decode reads a tree written by Encode.
func Decode(r io.Reader, format Format, reg *component.Registry) (*tree.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rig: %w", err)
	}
	var doc map[string]any
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, faults.Wrap(faults.ErrValidation, "rigfile", "decode", string(format), err)
	}
	if doc == nil {
		return nil, faults.Wrap(faults.ErrValidation, "rigfile", "decode", "empty document", nil)
	}
	if err := checkTypes(doc, reg); err != nil {
		return nil, err
	}
	return decodeNode(doc, reg)
}

func encodeNode(n *tree.Node) ([]byte, error) {
	rec, err := n.Record().MarshalJSON()
	if err != nil {
		return nil, err
	}
	children := make([]json.RawMessage, 0, len(n.Children()))
	for _, child := range n.Children() {
		data, err := encodeNode(child)
		if err != nil {
			return nil, err
		}
		children = append(children, data)
	}
	kids, err := json.Marshal(children)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(rec[:len(rec)-1])
	buf.WriteString(`,"` + KeyChildren + `":`)
	buf.Write(kids)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// checkTypes walks the document and fails on the first unknown type.
func checkTypes(doc map[string]any, reg *component.Registry) error {
	typ, _ := doc[ddata.FieldComponent].(string)
	if typ == "" {
		return faults.Wrap(faults.ErrSchema, "rigfile", "decode", "node without a component type", nil)
	}
	if _, err := reg.Lookup(typ); err != nil {
		return err
	}
	children, err := childList(doc)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := checkTypes(child, reg); err != nil {
			return err
		}
	}
	return nil
}

func decodeNode(doc map[string]any, reg *component.Registry) (*tree.Node, error) {
	schema, err := reg.Schema(doc[ddata.FieldComponent].(string))
	if err != nil {
		return nil, err
	}
	raw := make(map[string]json.RawMessage, len(doc))
	for key, value := range doc {
		if key == KeyChildren {
			continue
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", schema.Type(), key, err)
		}
		raw[key] = data
	}
	rec, err := ddata.DecodeRecord(schema, raw)
	if err != nil {
		return nil, faults.Wrap(faults.ErrValidation, "rigfile", "decode", "", err)
	}
	node := tree.New(rec)
	children, err := childList(doc)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		c, err := decodeNode(child, reg)
		if err != nil {
			return nil, err
		}
		node.Attach(c)
	}
	return node, nil
}

func childList(doc map[string]any) ([]map[string]any, error) {
	value, ok := doc[KeyChildren]
	if !ok || value == nil {
		return nil, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, faults.Wrap(faults.ErrValidation, "rigfile", "decode", "children must be a list", nil)
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, faults.Wrap(faults.ErrValidation, "rigfile", "decode", "child must be an object", nil)
		}
		out = append(out, m)
	}
	return out, nil
}

// blockStyle clears the flow and quoting styles inherited from JSON so the
// encoder writes plain block YAML.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

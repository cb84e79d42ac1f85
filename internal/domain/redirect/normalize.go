package redirect

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sophialabs/redirectlint/internal/domain/report"
)

const (
	fieldFrom = "from"
	fieldTo   = "to"
)

// Result is the outcome of normalizing one raw record.
type Result struct {
	// Entry is set only when both from and to are valid.
	Entry *Entry
	// From is the normalized from value; meaningful only when FromOK.
	From   string
	FromOK bool
	// Problems lists every independent problem found in the record.
	Problems []report.Record
}

// Normalize validates one element of a source list and builds an Entry from it.
// Both fields are always checked so every problem with the record is reported.
func Normalize(node *yaml.Node, src Source) Result {
	fields, err := asMapping(node)
	if err != nil {
		return Result{Problems: []report.Record{
			report.New(fmt.Sprintf("%s is not an object", src), err.Error()),
		}}
	}

	var res Result

	from, fromErr := stringField(fields, fieldFrom, src)
	if fromErr != nil {
		res.Problems = append(res.Problems, *fromErr)
	} else {
		res.From = NormalizeFrom(from)
		res.FromOK = true
	}

	to, toErr := stringField(fields, fieldTo, src)
	if toErr != nil {
		res.Problems = append(res.Problems, *toErr)
	}

	if fromErr != nil || toErr != nil {
		return res
	}

	delete(fields, fieldFrom)
	delete(fields, fieldTo)
	if len(fields) == 0 {
		fields = nil
	}

	res.Entry = &Entry{
		From:   res.From,
		To:     to,
		Extra:  fields,
		Source: src,
	}
	return res
}

// NormalizeFrom lowercases a from value and strips its leading slashes.
func NormalizeFrom(from string) string {
	return strings.TrimLeft(strings.ToLower(strings.TrimSpace(from)), "/")
}

// asMapping narrows a node to a key/value mapping. Scalars, nulls and
// sequences are rejected. A repeated key keeps its last value, merge keys
// (<<) fill in keys the mapping does not set itself, and non-string keys are
// stringified.
func asMapping(node *yaml.Node) (map[string]any, error) {
	node = resolve(node)
	if node == nil {
		return nil, fmt.Errorf("got nothing")
	}

	switch node.Kind {
	case yaml.MappingNode:
	case yaml.SequenceNode:
		return nil, fmt.Errorf("got a list")
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, fmt.Errorf("got null")
		}
		return nil, fmt.Errorf("got %s %q", kindOf(node.Tag), node.Value)
	default:
		return nil, fmt.Errorf("got unexpected YAML node")
	}

	fields := map[string]any{}
	collect(node, fields, 0)
	return fields, nil
}

const maxMergeDepth = 16

func collect(node *yaml.Node, fields map[string]any, depth int) {
	var merges []*yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := resolve(node.Content[i]), node.Content[i+1]
		if key.Kind == yaml.ScalarNode && key.Tag == "!!merge" {
			merges = append(merges, value)
			continue
		}
		fields[keyString(key)] = decodeValue(value)
	}

	if depth >= maxMergeDepth {
		return
	}
	for _, m := range merges {
		m = resolve(m)
		sources := []*yaml.Node{m}
		if m.Kind == yaml.SequenceNode {
			sources = m.Content
		}
		for _, src := range sources {
			src = resolve(src)
			if src == nil || src.Kind != yaml.MappingNode {
				continue
			}
			merged := map[string]any{}
			collect(src, merged, depth+1)
			for k, v := range merged {
				if _, set := fields[k]; !set {
					fields[k] = v
				}
			}
		}
	}
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

func keyString(key *yaml.Node) string {
	if key.Kind == yaml.ScalarNode {
		return key.Value
	}
	var v any
	if err := key.Decode(&v); err != nil {
		return key.Value
	}
	return fmt.Sprint(v)
}

// decodeValue decodes one value on its own. Values yaml.v3 refuses to decode
// are passed through as the raw node.
func decodeValue(node *yaml.Node) any {
	var v any
	if err := node.Decode(&v); err != nil {
		return node
	}
	return v
}

// stringField returns the trimmed value of a required, non-empty string field.
func stringField(fields map[string]any, name string, src Source) (string, *report.Record) {
	raw, ok := fields[name]
	if !ok {
		r := report.New(fmt.Sprintf("%s %q field missing", src, name))
		return "", &r
	}

	s, isString := raw.(string)
	if !isString {
		r := report.New(fmt.Sprintf("%s %q field invalid", src, name), describe(name, raw))
		return "", &r
	}

	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		r := report.New(fmt.Sprintf("%s %q field invalid", src, name), name+": empty string")
		return "", &r
	}
	return trimmed, nil
}

func describe(name string, v any) string {
	if v == nil {
		return name + ": null"
	}
	switch v.(type) {
	case map[string]any:
		return name + ": object, expected string"
	case []any:
		return name + ": list, expected string"
	case *yaml.Node:
		return name + ": undecodable value, expected string"
	default:
		return fmt.Sprintf("%s: %T %v, expected string", name, v, v)
	}
}

func kindOf(tag string) string {
	switch tag {
	case "!!int":
		return "number"
	case "!!float":
		return "number"
	case "!!bool":
		return "boolean"
	case "!!str":
		return "string"
	default:
		return "scalar"
	}
}

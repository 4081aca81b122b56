package certinfo

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Extensions is an insertion-ordered mapping from extension label to
// decoded value. Setting an existing label replaces its value but keeps
// its original position.
type Extensions struct {
	keys   []string
	values map[string]interface{}
}

// NewExtensions returns an empty Extensions.
func NewExtensions() *Extensions {
	return &Extensions{values: map[string]interface{}{}}
}

// Set stores value under label.
func (e *Extensions) Set(label string, value interface{}) {
	if e.values == nil {
		e.values = map[string]interface{}{}
	}
	if _, ok := e.values[label]; !ok {
		e.keys = append(e.keys, label)
	}
	e.values[label] = value
}

// Get returns the value stored under label.
func (e *Extensions) Get(label string) (interface{}, bool) {
	if e == nil {
		return nil, false
	}
	v, ok := e.values[label]
	return v, ok
}

// Keys returns the labels in order.
func (e *Extensions) Keys() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.keys...)
}

// Len returns the number of labels.
func (e *Extensions) Len() int {
	if e == nil {
		return 0
	}
	return len(e.keys)
}

// MarshalJSON renders the extensions as a JSON object in label order.
func (e *Extensions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range e.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML renders the extensions as a YAML mapping in label order.
func (e *Extensions) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range e.Keys() {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		val := &yaml.Node{}
		if err := val.Encode(e.values[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

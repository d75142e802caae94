package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Override sets the fields of c named by each key=value pair. Keys are
// dotted paths of field names matched case-insensitively, for example
// "Agent.PPO.Clip=0.1". Values are decoded as JSON, and a value which
// is not valid JSON is used as a string. The type of each value must
// match the type of the field it replaces.
func Override(c *Config, pairs []string) error {
	tree, err := toTree(*c)
	if err != nil {
		return fmt.Errorf("override: %v", err)
	}

	for _, pair := range pairs {
		path, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("override: expected key=value, have(%q)", pair)
		}
		if err := set(tree, strings.Split(path, "."), parseValue(raw)); err !=
			nil {
			return fmt.Errorf("override: %v: %v", path, err)
		}
	}

	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("override: %v", err)
	}
	out := Default()
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("override: %v", err)
	}
	*c = out
	return nil
}

// toTree converts c into its generic JSON representation, keeping
// numbers exact
func toTree(c Config) (map[string]interface{}, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tree map[string]interface{}
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func parseValue(raw string) interface{} {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}

func set(tree map[string]interface{}, keys []string, value interface{}) error {
	for i, key := range keys {
		name, ok := lookup(tree, key)
		if !ok {
			return fmt.Errorf("no such field %q", key)
		}

		if i == len(keys)-1 {
			if err := sameKind(tree[name], value); err != nil {
				return err
			}
			tree[name] = value
			return nil
		}

		next, ok := tree[name].(map[string]interface{})
		if !ok {
			return fmt.Errorf("field %q has no subfields", key)
		}
		tree = next
	}
	return fmt.Errorf("empty key")
}

// lookup returns the key of tree which matches key case-insensitively
func lookup(tree map[string]interface{}, key string) (string, bool) {
	if _, ok := tree[key]; ok {
		return key, true
	}
	for name := range tree {
		if strings.EqualFold(name, key) {
			return name, true
		}
	}
	return "", false
}

// sameKind returns an error if value cannot replace old. A nil field
// may be replaced by any value.
func sameKind(old, value interface{}) error {
	if old == nil || value == nil {
		return nil
	}
	if kind(old) != kind(value) {
		return fmt.Errorf("expected %v value, have(%v)", kind(old),
			kind(value))
	}
	return nil
}

func kind(v interface{}) string {
	switch v.(type) {
	case json.Number:
		return "number"
	case string:
		return "string"
	case bool:
		return "bool"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

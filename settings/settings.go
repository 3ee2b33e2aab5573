// Package settings provides the dotted-key configuration lookup used by
// step actions to parameterize themselves. The engine itself never
// interprets the returned values.
package settings

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mensylisir/xmflow/common"
)

// Provider is the lookup contract consumed by step actions.
type Provider interface {
	// Get resolves a dotted key (e.g. "synthesis.script.steps") to its
	// configured value. The second return is false if the key is unset.
	Get(key string) (interface{}, bool)
}

// Database holds layered configuration documents. Later layers override
// earlier ones, so defaults are loaded first and project config last.
type Database struct {
	layers []map[string]interface{}
}

// NewDatabase creates a Database from in-memory documents.
func NewDatabase(layers ...map[string]interface{}) *Database {
	db := &Database{}
	for _, l := range layers {
		if l != nil {
			db.layers = append(db.layers, l)
		}
	}
	return db
}

// Load reads a YAML file and appends it as the topmost layer.
func (d *Database) Load(filePath string) error {
	if filePath == "" {
		return errors.New("settings file path cannot be empty")
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read settings file '%s'", filePath)
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.Wrapf(err, "failed to unmarshal settings from '%s'", filePath)
	}
	d.layers = append(d.layers, doc)
	return nil
}

// LoadFile is a convenience constructor that builds a Database from a
// single YAML file.
func LoadFile(filePath string) (*Database, error) {
	db := NewDatabase()
	if err := db.Load(filePath); err != nil {
		return nil, err
	}
	return db, nil
}

// Get resolves a dotted key against the layered documents, topmost
// layer first. String values have ${ENVVAR} references expanded.
func (d *Database) Get(key string) (interface{}, bool) {
	if key == "" {
		return nil, false
	}
	parts := strings.Split(key, ".")
	for i := len(d.layers) - 1; i >= 0; i-- {
		if v, ok := lookup(d.layers[i], parts); ok {
			if s, isStr := v.(string); isStr {
				return os.ExpandEnv(s), true
			}
			return v, true
		}
	}
	return nil, false
}

// GetString resolves a key to a string; unset or non-string keys
// return the empty string.
func (d *Database) GetString(key string) string {
	v, ok := d.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetBool resolves a key to a bool; unset or non-bool keys return false.
func (d *Database) GetBool(key string) bool {
	v, ok := d.Get(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// GetStringSlice resolves a key to a list of strings. Scalar list
// elements of other types are stringified away by yaml already; any
// non-string element is skipped.
func (d *Database) GetStringSlice(key string) []string {
	v, ok := d.Get(key)
	if !ok {
		return nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, os.ExpandEnv(s))
		}
	}
	return out
}

// Has reports whether the key resolves to a value in any layer.
func (d *Database) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Snapshot deep-merges all layers into one document, topmost layer
// winning per key.
func (d *Database) Snapshot() map[string]interface{} {
	merged := make(map[string]interface{})
	for _, layer := range d.layers {
		mergeInto(merged, layer)
	}
	return merged
}

// Dump writes the merged snapshot as YAML into the given file, e.g. a
// run directory record of the exact configuration a tool ran with.
func (d *Database) Dump(filePath string) error {
	data, err := yaml.Marshal(d.Snapshot())
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings snapshot")
	}
	if err := os.WriteFile(filePath, data, common.FileMode0644); err != nil {
		return errors.Wrapf(err, "failed to write settings snapshot to '%s'", filePath)
	}
	return nil
}

func lookup(doc map[string]interface{}, parts []string) (interface{}, bool) {
	cur := interface{}(doc)
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func mergeInto(dst, src map[string]interface{}) {
	for k, v := range src {
		if sub, ok := v.(map[string]interface{}); ok {
			if existing, ok := dst[k].(map[string]interface{}); ok {
				mergeInto(existing, sub)
				continue
			}
			cp := make(map[string]interface{}, len(sub))
			mergeInto(cp, sub)
			dst[k] = cp
			continue
		}
		dst[k] = v
	}
}

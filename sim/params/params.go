// Package params provides Bag, a named collection of configuration values
// with map-style and struct-style access and right-biased merging.
package params

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownKey is returned by Override for keys not already in the bag.
	ErrUnknownKey = errors.New("params: unknown key")
	// ErrUnknownFormat is returned for files that are neither YAML nor TOML.
	ErrUnknownFormat = errors.New("params: unknown file format")
)

// Bag is an immutable-by-convention mapping of parameter names to values.
// The zero value is an empty bag.
type Bag struct {
	values map[string]any
}

// New creates a bag holding a copy of values.
func New(values map[string]any) Bag {
	return Bag{values: maps.Clone(values)}
}

// Len returns the number of parameters.
func (b Bag) Len() int { return len(b.values) }

// Has reports whether name is set.
func (b Bag) Has(name string) bool {
	_, ok := b.values[name]
	return ok
}

// Keys returns the parameter names in sorted order.
func (b Bag) Keys() []string {
	return slices.Sorted(maps.Keys(b.values))
}

// Get returns the value of name, or def when unset.
func (b Bag) Get(name string, def any) any {
	if v, ok := b.values[name]; ok {
		return v
	}
	return def
}

// Set stores v under name.
func (b *Bag) Set(name string, v any) {
	if b.values == nil {
		b.values = make(map[string]any)
	}
	b.values[name] = v
}

// With returns a copy of the bag with name set to v.
func (b Bag) With(name string, v any) Bag {
	out := New(b.values)
	out.Set(name, v)
	return out
}

// Merge returns a new bag holding both sets of parameters. Values in other
// take precedence. Neither input is modified.
func (b Bag) Merge(other Bag) Bag {
	out := New(b.values)
	for k, v := range other.values {
		out.Set(k, v)
	}
	return out
}

// Override is Merge restricted to keys b already has; any other key in other
// is reported as ErrUnknownKey, which catches misspelled parameter names.
func (b Bag) Override(other Bag) (Bag, error) {
	var unknown []string
	for _, k := range other.Keys() {
		if !b.Has(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		return b, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(unknown, ", "))
	}
	return b.Merge(other), nil
}

// Int returns name as an int, or def when unset or not a whole number.
func (b Bag) Int(name string, def int) int {
	if v, ok := integer(b.values[name]); ok {
		return int(v)
	}
	return def
}

// Int64 returns name as an int64, or def when unset or not a whole number
// in int64 range.
func (b Bag) Int64(name string, def int64) int64 {
	if v, ok := integer(b.values[name]); ok {
		return v
	}
	return def
}

// Float returns name as a float64, or def when unset or not numeric.
func (b Bag) Float(name string, def float64) float64 {
	if v, ok := number(b.values[name]); ok {
		return v
	}
	return def
}

// String returns name as a string, or def when unset or not a string.
func (b Bag) String(name string, def string) string {
	if v, ok := b.values[name].(string); ok {
		return v
	}
	return def
}

// Bool returns name as a bool, or def when unset or not a bool.
func (b Bag) Bool(name string, def bool) bool {
	if v, ok := b.values[name].(bool); ok {
		return v
	}
	return def
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if i, ok := integer(v); ok {
		return float64(i), true
	}
	if u, ok := v.(uint64); ok {
		return float64(u), true
	}
	return 0, false
}

// integer converts v without a float64 round trip, so 64-bit seeds keep every
// bit. Floats are accepted only when whole and in range.
func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float32:
		return integer(float64(n))
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

// Decode copies the bag into a struct using its yaml field tags, giving
// attribute-style access to the parameters.
func (b Bag) Decode(out any) error {
	data, err := yaml.Marshal(b.values)
	if err != nil {
		return fmt.Errorf("params: encode: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("params: decode: %w", err)
	}
	return nil
}

// Load reads a bag from a .yaml/.yml or .toml file.
func Load(path string) (Bag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bag{}, fmt.Errorf("read params %s: %w", path, err)
	}
	b, err := Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return Bag{}, fmt.Errorf("parse params %s: %w", path, err)
	}
	return b, nil
}

// Parse decodes data in the given format ("yaml", "yml" or "toml").
func Parse(data []byte, format string) (Bag, error) {
	values := make(map[string]any)
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&values); err != nil && !errors.Is(err, io.EOF) {
			return Bag{}, err
		}
	case "toml":
		if err := toml.Unmarshal(data, &values); err != nil {
			return Bag{}, err
		}
	default:
		return Bag{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return Bag{values: values}, nil
}

// Dump renders the bag as YAML with sorted keys.
func (b Bag) Dump() string {
	if len(b.values) == 0 {
		return "{}\n"
	}
	data, err := yaml.Marshal(b.values)
	if err != nil {
		return fmt.Sprintf("<unprintable params: %v>\n", err)
	}
	return string(data)
}

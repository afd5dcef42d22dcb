package params

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBag_GetAndTypedAccess(t *testing.T) {
	b := New(map[string]any{
		"nticks":   int64(730),
		"beta":     0.35,
		"name":     "measles",
		"verbose":  true,
		"capacity": 1_000_000,
	})

	assert.Equal(t, 730, b.Int("nticks", 0))
	assert.Equal(t, int64(1_000_000), b.Int64("capacity", 0))
	assert.Equal(t, 0.35, b.Float("beta", 0))
	assert.Equal(t, 730.0, b.Float("nticks", 0))
	assert.Equal(t, "measles", b.String("name", ""))
	assert.True(t, b.Bool("verbose", false))

	assert.Equal(t, 7, b.Int("missing", 7))
	assert.Equal(t, 7, b.Int("name", 7), "non-numeric falls back to default")
	assert.Equal(t, "x", b.Get("missing", "x"))
	assert.Equal(t, []string{"beta", "capacity", "name", "nticks", "verbose"}, b.Keys())
}

func TestBag_IntegersKeepFullPrecision(t *testing.T) {
	// GIVEN integers above 2^53, which a float64 cannot hold exactly
	b := New(map[string]any{
		"seed":    int64(1<<62 + 1),
		"useed":   uint64(1<<62 + 3),
		"huge":    uint64(math.MaxUint64),
		"whole":   4096.0,
		"half":    2.5,
		"small":   int8(-3),
		"counter": uint32(7),
	})

	// THEN Int64 and Int return them bit for bit
	assert.Equal(t, int64(1<<62+1), b.Int64("seed", 0))
	assert.Equal(t, int64(1<<62+3), b.Int64("useed", 0))
	assert.Equal(t, int64(-3), b.Int64("small", 0))
	assert.Equal(t, 7, b.Int("counter", 0))
	assert.Equal(t, 4096, b.Int("whole", 0))

	// AND values an int64 cannot represent fall back to the default
	assert.Equal(t, int64(-1), b.Int64("huge", -1))
	assert.Equal(t, -1, b.Int("half", -1))
	assert.Equal(t, 2.5, b.Float("half", 0))
}

func TestBag_NewCopiesInput(t *testing.T) {
	src := map[string]any{"a": 1}
	b := New(src)
	src["a"] = 2
	assert.Equal(t, 1, b.Int("a", 0))
}

func TestBag_MergeRightPrecedence(t *testing.T) {
	// GIVEN defaults and user overrides that share a key
	defaults := New(map[string]any{"beta": 0.3, "nticks": 365})
	user := New(map[string]any{"beta": 0.5, "seed": 20})

	// WHEN merged
	merged := defaults.Merge(user)

	// THEN the right-hand bag wins and neither input changed
	assert.Equal(t, 0.5, merged.Float("beta", 0))
	assert.Equal(t, 365, merged.Int("nticks", 0))
	assert.Equal(t, 20, merged.Int("seed", 0))
	assert.Equal(t, 0.3, defaults.Float("beta", 0))
	assert.False(t, defaults.Has("seed"))
}

func TestBag_Override_RejectsUnknownKeys(t *testing.T) {
	defaults := New(map[string]any{"beta": 0.3})

	got, err := defaults.Override(New(map[string]any{"beta": 0.4}))
	require.NoError(t, err)
	assert.Equal(t, 0.4, got.Float("beta", 0))

	_, err = defaults.Override(New(map[string]any{"bata": 0.4}))
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.Contains(t, err.Error(), "bata")
}

func TestBag_SetAndWith(t *testing.T) {
	var b Bag
	b.Set("x", 1)
	c := b.With("x", 2)
	assert.Equal(t, 1, b.Int("x", 0))
	assert.Equal(t, 2, c.Int("x", 0))
	assert.Equal(t, 1, b.Len())
}

func TestBag_Decode(t *testing.T) {
	type model struct {
		Ticks int     `yaml:"nticks"`
		Beta  float64 `yaml:"beta"`
		Name  string  `yaml:"name"`
	}
	b := New(map[string]any{"nticks": 100, "beta": 0.25, "name": "seir", "extra": true})
	var m model
	require.NoError(t, b.Decode(&m))
	assert.Equal(t, model{Ticks: 100, Beta: 0.25, Name: "seir"}, m)
}

func TestLoad_YAMLAndTOML(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "p.yaml")
	tomlPath := filepath.Join(dir, "p.toml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("nticks: 200\nbeta: 0.4\nname: flu\n"), 0o644))
	require.NoError(t, os.WriteFile(tomlPath, []byte("nticks = 200\nbeta = 0.4\nname = \"flu\"\n"), 0o644))

	for _, path := range []string{yamlPath, tomlPath} {
		b, err := Load(path)
		require.NoError(t, err, path)
		assert.Equal(t, 200, b.Int("nticks", 0), path)
		assert.Equal(t, 0.4, b.Float("beta", 0), path)
		assert.Equal(t, "flu", b.String("name", ""), path)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	jsonPath := filepath.Join(dir, "p.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte("{}"), 0o644))
	_, err = Load(jsonPath)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParse_EmptyYAML(t *testing.T) {
	b, err := Parse(nil, "yaml")
	require.NoError(t, err)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, "{}\n", b.Dump())
}

func TestDump(t *testing.T) {
	b := New(map[string]any{"b": 2, "a": 1})
	assert.Equal(t, "a: 1\nb: 2\n", b.Dump())
}

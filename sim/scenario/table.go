package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
)

// Point is a planar (x=longitude, y=latitude) coordinate.
type Point [2]float64

// Polygon is a closed ring; the last point repeats the first.
type Polygon []Point

// Bounds returns [minx, miny, maxx, maxy].
func (p Polygon) Bounds() [4]float64 {
	b := [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for _, pt := range p {
		b[0] = min(b[0], pt[0])
		b[1] = min(b[1], pt[1])
		b[2] = max(b[2], pt[0])
		b[3] = max(b[3], pt[1])
	}
	return b
}

// Table is a node table: one row per spatial cell.
type Table struct {
	NodeID     []int32
	Population []int64
	Geometry   []Polygon
	States     []string
	counts     map[string][]int64
}

// Len returns the number of nodes.
func (t *Table) Len() int { return len(t.NodeID) }

// State returns the count column for a state.
func (t *Table) State(name string) ([]int64, bool) {
	c, ok := t.counts[name]
	return c, ok
}

// SetState replaces (or adds) a state count column.
func (t *Table) SetState(name string, counts []int64) error {
	if len(counts) != t.Len() {
		return invalid(name, "state %q has %d rows, table has %d", name, len(counts), t.Len())
	}
	if t.counts == nil {
		t.counts = make(map[string][]int64)
	}
	if !slices.Contains(t.States, name) {
		t.States = append(t.States, name)
	}
	t.counts[name] = counts
	return nil
}

// Bounds returns the total bounds [minx, miny, maxx, maxy] of all geometry.
func (t *Table) Bounds() [4]float64 {
	b := [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for _, p := range t.Geometry {
		pb := p.Bounds()
		b[0] = min(b[0], pb[0])
		b[1] = min(b[1], pb[1])
		b[2] = max(b[2], pb[2])
		b[3] = max(b[3], pb[3])
	}
	return b
}

// TotalPopulation sums the population column.
func (t *Table) TotalPopulation() int64 {
	var total int64
	for _, p := range t.Population {
		total += p
	}
	return total
}

type geoJSONFeature struct {
	Type       string         `json:"type"`
	Geometry   geoJSONPolygon `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geoJSONPolygon struct {
	Type        string    `json:"type"`
	Coordinates [][]Point `json:"coordinates"`
}

// WriteGeoJSON writes the table as a GeoJSON FeatureCollection. Each feature
// carries nodeid, population and the state counts as properties.
func (t *Table) WriteGeoJSON(w io.Writer) error {
	features := make([]geoJSONFeature, t.Len())
	for i := range features {
		props := map[string]any{
			"nodeid":     t.NodeID[i],
			"population": t.Population[i],
		}
		for _, s := range t.States {
			props[s] = t.counts[s][i]
		}
		features[i] = geoJSONFeature{
			Type:       "Feature",
			Geometry:   geoJSONPolygon{Type: "Polygon", Coordinates: [][]Point{t.Geometry[i]}},
			Properties: props,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{"type": "FeatureCollection", "features": features}); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}

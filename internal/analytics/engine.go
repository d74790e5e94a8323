// Package analytics aggregates cleaned measurements into the summary
// datasets the reporting layer consumes. Queries are declared as small
// pipelines (match, key, having, order) and executed in-process against a
// measurement source.
package analytics

import (
	"sort"

	"github.com/airqtools/airq/internal/domain"
)

// Key identifies one aggregation group. Unused dimensions stay at their
// zero value so the same Group machinery serves every query.
type Key struct {
	LocationID int
	SensorID   int
	Date       string
}

// Group is the accumulated state of one key.
type Group struct {
	Key      Key
	Count    int
	Sum      float64
	Min      float64
	Max      float64
	FirstUTC string
	LastUTC  string
}

// Avg returns the mean value of the group. Zero-count groups never reach
// callers; Run only emits groups that absorbed at least one measurement.
func (g *Group) Avg() float64 {
	return g.Sum / float64(g.Count)
}

func (g *Group) absorb(m *domain.Measurement) {
	if g.Count == 0 {
		g.Min, g.Max = m.Value, m.Value
		g.FirstUTC, g.LastUTC = m.Date.UTC, m.Date.UTC
	} else {
		if m.Value < g.Min {
			g.Min = m.Value
		}
		if m.Value > g.Max {
			g.Max = m.Value
		}
		if m.Date.UTC < g.FirstUTC {
			g.FirstUTC = m.Date.UTC
		}
		if m.Date.UTC > g.LastUTC {
			g.LastUTC = m.Date.UTC
		}
	}
	g.Count++
	g.Sum += m.Value
}

// Pipeline declares one aggregation: an optional row filter, a grouping
// key, an optional group filter, and a total order for the output.
type Pipeline struct {
	Match  func(m *domain.Measurement) bool
	Key    func(m *domain.Measurement) Key
	Having func(g *Group) bool
	Less   func(a, b *Group) bool
}

// Run executes the pipeline over the measurements and returns the ordered
// groups. An empty input yields an empty, non-nil slice.
func Run(measurements []domain.Measurement, p Pipeline) []Group {
	groups := make(map[Key]*Group)
	for i := range measurements {
		m := &measurements[i]
		if p.Match != nil && !p.Match(m) {
			continue
		}
		k := p.Key(m)
		g, ok := groups[k]
		if !ok {
			g = &Group{Key: k}
			groups[k] = g
		}
		g.absorb(m)
	}

	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if p.Having != nil && !p.Having(g) {
			continue
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return p.Less(&out[i], &out[j]) })
	return out
}

package ledger

import (
	"slices"

	"github.com/aiseeq/s2l/protocol/api"
)

// Well-known labels.
const (
	LabelReposition = "reposition" // structure leaving for another site, value is api.Point2D
	LabelBuilder    = "builder"    // worker reserved for construction
	LabelProxy      = "proxy"      // worker building away from base
	LabelScout      = "scout"
)

// Labels holds bot-side state attached to units.
type Labels struct {
	byTag map[api.UnitTag]map[string]any
}

func NewLabels() *Labels {
	return &Labels{byTag: make(map[api.UnitTag]map[string]any)}
}

func (l *Labels) Set(tag api.UnitTag, label string, value any) {
	m, ok := l.byTag[tag]
	if !ok {
		m = make(map[string]any)
		l.byTag[tag] = m
	}
	m[label] = value
}

func (l *Labels) Get(tag api.UnitTag, label string) (any, bool) {
	v, ok := l.byTag[tag][label]
	return v, ok
}

func (l *Labels) Has(tag api.UnitTag, label string) bool {
	_, ok := l.byTag[tag][label]
	return ok
}

func (l *Labels) Remove(tag api.UnitTag, label string) {
	m, ok := l.byTag[tag]
	if !ok {
		return
	}
	delete(m, label)
	if len(m) == 0 {
		delete(l.byTag, tag)
	}
}

// Forget drops every label on tag.
func (l *Labels) Forget(tag api.UnitTag) {
	delete(l.byTag, tag)
}

// Tagged lists the units carrying label, lowest tag first.
func (l *Labels) Tagged(label string) []api.UnitTag {
	var out []api.UnitTag
	for t, m := range l.byTag {
		if _, ok := m[label]; ok {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}

package filter

import (
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Params is an ordered mapping of filter keys to their raw values. Keys keep
// the position of their first appearance.
type Params struct {
	values *orderedmap.OrderedMap[string, []string]
}

// NewParams creates an empty parameter set
func NewParams() *Params {
	return &Params{values: orderedmap.New[string, []string]()}
}

// ParamsFromMap builds parameters from an unordered map. Keys are sorted so
// the result is deterministic.
func ParamsFromMap(m map[string][]string) *Params {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := NewParams()
	for _, k := range keys {
		p.Set(k, m[k]...)
	}
	return p
}

// Add appends a value to key
func (p *Params) Add(key, value string) {
	existing, _ := p.values.Get(key)
	p.values.Set(key, append(existing, value))
}

// Set replaces the values of key
func (p *Params) Set(key string, values ...string) {
	copied := make([]string, len(values))
	copy(copied, values)
	p.values.Set(key, copied)
}

// Get returns the values of key
func (p *Params) Get(key string) []string {
	values, _ := p.values.Get(key)
	return values
}

// Keys returns the keys in order
func (p *Params) Keys() []string {
	keys := make([]string, 0, p.values.Len())
	for pair := p.values.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of distinct keys
func (p *Params) Len() int {
	return p.values.Len()
}

package parser

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Pair is one key/value attribute of a stackup record.
type Pair struct {
	Key   string
	Value string
}

// StackupRecord holds the attributes of one physical layer, in the order
// they appeared. Values stay strings; unit parsing is left to the caller.
type StackupRecord struct {
	// Label is the value of the sentinel line that opened the record,
	// e.g. "2" for "layer 2". Empty when no sentinel preceded it.
	Label string

	// Line is the 0-based line of the record's first attribute line.
	Line int

	attrs *orderedmap.OrderedMap[string, string]
}

// NewStackupRecord builds a record from pairs. A repeated key is an error.
func NewStackupRecord(label string, pairs ...Pair) (StackupRecord, error) {
	rec := StackupRecord{Label: label, attrs: orderedmap.New[string, string]()}
	for _, pair := range pairs {
		if _, present := rec.attrs.Get(pair.Key); present {
			return StackupRecord{}, fmt.Errorf("%w: %q", ErrDuplicateKey, pair.Key)
		}
		rec.attrs.Set(pair.Key, pair.Value)
	}
	return rec, nil
}

// Len returns the number of attributes.
func (r StackupRecord) Len() int {
	if r.attrs == nil {
		return 0
	}
	return r.attrs.Len()
}

// Get returns the value stored under key.
func (r StackupRecord) Get(key string) (string, bool) {
	if r.attrs == nil {
		return "", false
	}
	return r.attrs.Get(key)
}

// Keys returns the attribute keys in insertion order.
func (r StackupRecord) Keys() []string {
	keys := make([]string, 0, r.Len())
	for _, pair := range r.Pairs() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Pairs returns the attributes in insertion order.
func (r StackupRecord) Pairs() []Pair {
	if r.attrs == nil {
		return nil
	}
	pairs := make([]Pair, 0, r.attrs.Len())
	for el := r.attrs.Oldest(); el != nil; el = el.Next() {
		pairs = append(pairs, Pair{Key: el.Key, Value: el.Value})
	}
	return pairs
}

// Map returns the attributes as a plain map. Order is lost.
func (r StackupRecord) Map() map[string]string {
	m := make(map[string]string, r.Len())
	for _, pair := range r.Pairs() {
		m[pair.Key] = pair.Value
	}
	return m
}

// Equal reports whether both records have the same label and the same
// attributes in the same order. Line is not compared.
func (r StackupRecord) Equal(other StackupRecord) bool {
	if r.Label != other.Label || r.Len() != other.Len() {
		return false
	}
	a, b := r.Pairs(), other.Pairs()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the attributes as a JSON object in insertion order.
func (r StackupRecord) MarshalJSON() ([]byte, error) {
	if r.attrs == nil {
		return []byte("{}"), nil
	}
	return r.attrs.MarshalJSON()
}

// accumulator collects attributes for the record being built.
type accumulator struct {
	label     string
	labelLine int
	labeled   bool
	line      int
	attrs     *orderedmap.OrderedMap[string, string]
}

func newAccumulator() *accumulator {
	return &accumulator{labelLine: -1, line: -1, attrs: orderedmap.New[string, string]()}
}

func (a *accumulator) empty() bool {
	return a.attrs.Len() == 0
}

// merge adds the pairs of one line. Keys may not repeat within the record.
func (a *accumulator) merge(line tokenLine) error {
	if a.line < 0 {
		a.line = line.num
	}
	for i := 0; i+1 < len(line.tokens); i += 2 {
		key, value := line.tokens[i], line.tokens[i+1]
		if _, present := a.attrs.Get(key); present {
			return newError(opParseStackup, line.num, ErrDuplicateKey, "unique key", key)
		}
		a.attrs.Set(key, value)
	}
	return nil
}

// flush emits the record and resets the accumulator.
func (a *accumulator) flush() StackupRecord {
	rec := StackupRecord{Label: a.label, Line: a.line, attrs: a.attrs}
	*a = *newAccumulator()
	return rec
}

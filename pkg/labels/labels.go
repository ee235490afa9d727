// Package labels maps category indices to category names and converts label lists to
// multi-label target vectors.
package labels

import (
	"fmt"
	"sort"

	"github.com/dtnitsch/wikicat/models"
)

// Codec is a bijection between category index and category name. Indices are assigned
// sequentially from 0 in the order names are added.
type Codec struct {
	names   []string
	indices map[string]int
}

func NewCodec() *Codec {
	return &Codec{indices: make(map[string]int)}
}

// Add registers name under the next free index. Adding a name twice is an error because it
// would break the bijection.
func (c *Codec) Add(name string) (int, error) {
	if _, exists := c.indices[name]; exists {
		return 0, fmt.Errorf("category %q already registered", name)
	}
	idx := len(c.names)
	c.names = append(c.names, name)
	c.indices[name] = idx
	return idx, nil
}

// Name returns the category name for index i.
func (c *Codec) Name(i int) (string, error) {
	if i < 0 || i >= len(c.names) {
		return "", fmt.Errorf("category index %d out of range [0,%d)", i, len(c.names))
	}
	return c.names[i], nil
}

func (c *Codec) Index(name string) (int, bool) {
	idx, ok := c.indices[name]
	return idx, ok
}

func (c *Codec) Len() int { return len(c.names) }

// Names returns the category names in index order.
func (c *Codec) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// IndexToName returns the index->name direction, as persisted in ind_cat_map.
func (c *Codec) IndexToName() map[int]string {
	out := make(map[int]string, len(c.names))
	for i, name := range c.names {
		out[i] = name
	}
	return out
}

// NameToIndex returns the name->index direction, as persisted in cat_ind_map.
func (c *Codec) NameToIndex() map[string]int {
	out := make(map[string]int, len(c.indices))
	for name, i := range c.indices {
		out[name] = i
	}
	return out
}

// Validate checks that both directions agree and cover exactly 0..Len()-1.
func (c *Codec) Validate() error {
	if len(c.indices) != len(c.names) {
		return fmt.Errorf("codec has %d names but %d indices", len(c.names), len(c.indices))
	}
	for i, name := range c.names {
		got, ok := c.indices[name]
		if !ok || got != i {
			return fmt.Errorf("codec mismatch for %q: index %d maps back to %d", name, i, got)
		}
	}
	return nil
}

// FromMaps rebuilds a codec from its two persisted directions and validates the result.
func FromMaps(indToCat map[int]string, catToInd map[string]int) (*Codec, error) {
	c := &Codec{
		names:   make([]string, len(indToCat)),
		indices: make(map[string]int, len(catToInd)),
	}
	for i, name := range indToCat {
		if i < 0 || i >= len(indToCat) {
			return nil, fmt.Errorf("index %d not contiguous for %d categories", i, len(indToCat))
		}
		c.names[i] = name
	}
	for name, i := range catToInd {
		c.indices[name] = i
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Lookup resolves index i through c. A nil codec yields a *models.MissingCodecError so that
// callers can degrade to index-only output.
func Lookup(c *Codec, i int) (string, error) {
	if c == nil {
		return "", &models.MissingCodecError{Index: i}
	}
	return c.Name(i)
}

// ToVector converts a list of category indices into a dense 0/1 row of width n.
func ToVector(labels []int, n int) ([]float64, error) {
	row := make([]float64, n)
	for _, l := range labels {
		if l < 0 || l >= n {
			return nil, fmt.Errorf("label %d out of range [0,%d)", l, n)
		}
		row[l] = 1
	}
	return row, nil
}

// FromVector returns the sorted indices whose value is non-zero.
func FromVector(row []float64) []int {
	out := []int{}
	for i, v := range row {
		if v != 0 {
			out = append(out, i)
		}
	}
	return out
}

// SortedSet returns the sorted distinct values of labels.
func SortedSet(labels []int) []int {
	seen := make(map[int]struct{}, len(labels))
	out := make([]int, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

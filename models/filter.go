package models

// FilterType discriminates the two retrieval filter node kinds.
type FilterType string

const (
	FilterEq  FilterType = "eq"
	FilterAnd FilterType = "and"
)

// Filter is a retrieval predicate tree. An eq node carries Key and Value,
// an and node carries Filters. The JSON form is the provider wire shape.
type Filter struct {
	Type    FilterType `json:"type"`
	Key     string     `json:"key,omitempty"`
	Value   string     `json:"value,omitempty"`
	Filters []Filter   `json:"filters,omitempty"`
}

// Eq builds an equality node.
func Eq(key, value string) Filter {
	return Filter{Type: FilterEq, Key: key, Value: value}
}

// And builds a conjunction of the given nodes in order.
func And(filters ...Filter) Filter {
	return Filter{Type: FilterAnd, Filters: filters}
}

// Walk visits every eq node in order.
func (f Filter) Walk(fn func(key, value string)) {
	switch f.Type {
	case FilterEq:
		fn(f.Key, f.Value)
	case FilterAnd:
		for _, child := range f.Filters {
			child.Walk(fn)
		}
	}
}

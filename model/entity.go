package model

// EntityCategory is one of the remembered entity kinds.
type EntityCategory string

const (
	EntityPeople  EntityCategory = "people"
	EntityFiles   EntityCategory = "files"
	EntityAmounts EntityCategory = "amounts"
	EntityDates   EntityCategory = "dates"
)

// EntityCategories lists all categories in display order.
var EntityCategories = []EntityCategory{EntityPeople, EntityFiles, EntityAmounts, EntityDates}

// Entities maps a category to distinct values in first-seen order.
type Entities map[EntityCategory][]string

// NewEntities returns an empty Entities with every category present.
func NewEntities() Entities {
	e := make(Entities, len(EntityCategories))
	for _, c := range EntityCategories {
		e[c] = []string{}
	}
	return e
}

// Add appends value to category unless it is already present.
// It returns true when the value was new.
func (e Entities) Add(category EntityCategory, value string) bool {
	if value == "" {
		return false
	}
	for _, v := range e[category] {
		if v == value {
			return false
		}
	}
	e[category] = append(e[category], value)
	return true
}

// Merge unions other into e, keeping existing values and their order.
// It returns the number of values added.
func (e Entities) Merge(other Entities) int {
	added := 0
	for _, c := range EntityCategories {
		for _, v := range other[c] {
			if e.Add(c, v) {
				added++
			}
		}
	}
	return added
}

// Recent returns up to n values of category, most recent first.
func (e Entities) Recent(category EntityCategory, n int) []string {
	values := e[category]
	if n > len(values) {
		n = len(values)
	}
	recent := make([]string, 0, n)
	for i := len(values) - 1; i >= len(values)-n; i-- {
		recent = append(recent, values[i])
	}
	return recent
}

// Len is the total number of values over all categories.
func (e Entities) Len() int {
	n := 0
	for _, values := range e {
		n += len(values)
	}
	return n
}

// IsEmpty reports whether no category holds a value.
func (e Entities) IsEmpty() bool {
	return e.Len() == 0
}

// Clone deep-copies e.
func (e Entities) Clone() Entities {
	clone := NewEntities()
	for c, values := range e {
		clone[c] = append([]string{}, values...)
	}
	return clone
}

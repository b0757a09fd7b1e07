package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntitiesAdd(t *testing.T) {
	e := NewEntities()

	assert.True(t, e.Add(EntityPeople, "a@example.com"), "Expected first value to be added")
	assert.False(t, e.Add(EntityPeople, "a@example.com"), "Expected duplicate to be ignored")
	assert.False(t, e.Add(EntityPeople, ""), "Expected empty value to be ignored")
	assert.Equal(t, []string{"a@example.com"}, e[EntityPeople])
}

func TestEntitiesMerge(t *testing.T) {
	t.Run("Union keeps existing order and appends new values", func(t *testing.T) {
		memory := NewEntities()
		memory.Add(EntityFiles, "budget.xlsx")
		memory.Add(EntityFiles, "plan.pdf")

		turn := Entities{
			EntityFiles:   {"plan.pdf", "notes.txt"},
			EntityAmounts: {"$1,200"},
		}

		added := memory.Merge(turn)

		assert.Equal(t, 2, added, "Expected two new values")
		assert.Equal(t, []string{"budget.xlsx", "plan.pdf", "notes.txt"}, memory[EntityFiles])
		assert.Equal(t, []string{"$1,200"}, memory[EntityAmounts])
	})

	t.Run("Memory only grows across merges", func(t *testing.T) {
		memory := NewEntities()
		turns := []Entities{
			{EntityPeople: {"a@x.com"}},
			{EntityPeople: {"b@x.com", "a@x.com"}, EntityDates: {"01/02/2001"}},
			{},
			{EntityPeople: {"a@x.com"}},
		}

		previous := 0
		for _, turn := range turns {
			memory.Merge(turn)
			assert.GreaterOrEqual(t, memory.Len(), previous, "Expected monotonic growth")
			previous = memory.Len()
		}
		assert.Equal(t, 3, memory.Len())
	})

	t.Run("Merge with nil is a no-op", func(t *testing.T) {
		memory := NewEntities()
		assert.Zero(t, memory.Merge(nil))
		assert.True(t, memory.IsEmpty())
	})
}

func TestEntitiesRecent(t *testing.T) {
	e := NewEntities()
	for _, v := range []string{"a", "b", "c", "d"} {
		e.Add(EntityPeople, v)
	}

	assert.Equal(t, []string{"d", "c", "b"}, e.Recent(EntityPeople, 3), "Expected most recent first")
	assert.Equal(t, []string{"d", "c", "b", "a"}, e.Recent(EntityPeople, 10))
	assert.Empty(t, e.Recent(EntityFiles, 3))
}

func TestEntitiesClone(t *testing.T) {
	e := NewEntities()
	e.Add(EntityDates, "2001-05-01")

	clone := e.Clone()
	clone.Add(EntityDates, "2001-05-02")

	require.Len(t, e[EntityDates], 1, "Expected original to be untouched")
	assert.Len(t, clone[EntityDates], 2)
}

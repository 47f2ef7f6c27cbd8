package dedup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/lesson-harvester/internal/dedup"
)

func TestSet_AdmitIsIdempotent(t *testing.T) {
	t.Parallel()

	s := dedup.New("global")
	assert.True(t, s.Admit("https://x/activity/1"))
	assert.False(t, s.Admit("https://x/activity/1"))
	assert.Equal(t, []string{"https://x/activity/1"}, s.Items())
	assert.Equal(t, 1, s.Len())
}

func TestSet_PreservesFirstEncounterOrder(t *testing.T) {
	t.Parallel()

	s := dedup.New("unit")
	for _, u := range []string{"c", "a", "c", "b", "a"} {
		s.Admit(u)
	}
	assert.Equal(t, []string{"c", "a", "b"}, s.Items())
	assert.True(t, s.Contains("b"))
	assert.False(t, s.Contains("d"))
	assert.Equal(t, "unit", s.Scope())
}

func TestSet_RejectsEmpty(t *testing.T) {
	t.Parallel()

	s := dedup.New("global")
	assert.False(t, s.Admit(""))
	assert.Zero(t, s.Len())
}

func TestSet_InstancesAreIndependent(t *testing.T) {
	t.Parallel()

	a, b := dedup.New("global"), dedup.New("global")
	assert.True(t, a.Admit("https://x/a"))
	assert.True(t, b.Admit("https://x/a"))
}

func TestSet_ItemsIsACopy(t *testing.T) {
	t.Parallel()

	s := dedup.New("global")
	s.Admit("a")
	items := s.Items()
	items[0] = "mutated"
	assert.Equal(t, []string{"a"}, s.Items())
}

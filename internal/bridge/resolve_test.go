package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAll(t *testing.T) {
	reg, err := NewRegistry(
		[]ID{"2", "1", "2", "3", "1"},
		[]Tag{{Name: "x", ID: "3"}},
	)
	require.NoError(t, err)

	target, err := Resolve("all", reg)
	require.NoError(t, err)
	assert.Equal(t, []ID{"2", "1", "3"}, target.IDs)
	assert.Equal(t, "all friends", target.Description)

	seen := make(map[ID]bool)
	for _, id := range target.IDs {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
}

func TestResolveTag(t *testing.T) {
	reg := testRegistry(t)
	for _, tag := range reg.Tags() {
		want, _ := reg.Lookup(tag)
		target, err := Resolve(tag, reg)
		require.NoError(t, err)
		assert.Equal(t, []ID{want}, target.IDs)
		assert.Equal(t, tag, target.Description)
	}

	target, err := Resolve("john", reg)
	require.NoError(t, err)
	assert.Equal(t, []ID{"111"}, target.IDs)
}

func TestResolveUnknown(t *testing.T) {
	reg := testRegistry(t)
	_, err := Resolve("bob", reg)

	var unknown *UnknownSelectorError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "bob", unknown.Selector)
	assert.Equal(t, []string{"all", "john", "mary"}, unknown.Valid)
	assert.Contains(t, err.Error(), "all, john, mary")
}

func TestParseThenResolve(t *testing.T) {
	reg, err := NewRegistry(nil, []Tag{{Name: "john", ID: "111"}})
	require.NoError(t, err)

	cmd := ParseCommand("tg:john Hello there", "tg:", reg)
	require.Equal(t, Ready, cmd.Outcome)
	target, err := Resolve(cmd.Selector, reg)
	require.NoError(t, err)
	assert.Equal(t, []ID{"111"}, target.IDs)
	assert.Equal(t, "Hello there", cmd.Payload)
}

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendPreservesOrder(t *testing.T) {
	log := NewLog()
	log.Append(RoleUser, "first")
	log.Append(RoleBot, "second")
	log.Append(RoleUser, "third")

	entries := log.All()
	assert.Equal(t, 3, log.Len())
	assert.Equal(t, "first", entries[0].Text)
	assert.Equal(t, RoleBot, entries[1].Role)
	assert.Equal(t, "third", entries[2].Text)
}

func TestAllReturnsCopy(t *testing.T) {
	log := NewLog()
	log.Append(RoleUser, "hello")

	entries := log.All()
	entries[0].Text = "mutated"
	assert.Equal(t, "hello", log.All()[0].Text)
}

func TestClear(t *testing.T) {
	log := NewLog()
	log.Append(RoleUser, "hello")
	log.Append(RoleBot, "hi")
	log.Clear()

	assert.Equal(t, 0, log.Len())
	assert.Empty(t, log.All())

	log.Append(RoleUser, "again")
	assert.Equal(t, 1, log.Len())
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitials(t *testing.T) {
	assert.Equal(t, "L", Guild{Name: "lite server"}.Initial())
	assert.Equal(t, "?", Guild{Name: "  "}.Initial())
	assert.Equal(t, "É", User{Username: "émile"}.Initial())
}

func TestUser_DisplayName(t *testing.T) {
	global := "Alice"
	blank := " "

	assert.Equal(t, "Alice", User{Username: "alice", GlobalName: &global}.DisplayName())
	assert.Equal(t, "alice", User{Username: "alice", GlobalName: &blank}.DisplayName())
	assert.Equal(t, "alice", User{Username: "alice"}.DisplayName())
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("Alice"))
	assert.Equal(t, "alice", NormalizeUsername("  ALICE  "))
	assert.Equal(t, "", NormalizeUsername("   "))
	assert.Equal(t, "bob smith", NormalizeUsername("Bob Smith"))
}

func TestPermissionRankOrdering(t *testing.T) {
	assert.Greater(t, PermissionOwner.Rank(), PermissionEdit.Rank())
	assert.Greater(t, PermissionEdit.Rank(), PermissionView.Rank())
	assert.Greater(t, PermissionView.Rank(), Permission("bogus").Rank())
}

func TestPermissionCanDraw(t *testing.T) {
	assert.True(t, PermissionOwner.CanDraw())
	assert.True(t, PermissionEdit.CanDraw())
	assert.False(t, PermissionView.CanDraw())
}

func TestPermissionValid(t *testing.T) {
	assert.True(t, PermissionOwner.Valid())
	assert.True(t, PermissionEdit.Valid())
	assert.True(t, PermissionView.Valid())
	assert.False(t, Permission("admin").Valid())
	assert.False(t, Permission("").Valid())
}

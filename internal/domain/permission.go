package domain

import "strings"

// Permission is the access tier a username holds inside a room.
type Permission string

const (
	PermissionOwner Permission = "owner"
	PermissionEdit  Permission = "edit"
	PermissionView  Permission = "view"
)

// Valid reports whether p is one of the three known tiers.
func (p Permission) Valid() bool {
	switch p {
	case PermissionOwner, PermissionEdit, PermissionView:
		return true
	}
	return false
}

// Rank orders the tiers for comparison: owner > edit > view.
// Unknown values rank below view.
func (p Permission) Rank() int {
	switch p {
	case PermissionOwner:
		return 3
	case PermissionEdit:
		return 2
	case PermissionView:
		return 1
	}
	return 0
}

// CanDraw reports whether the tier is allowed to draw and clear.
// Owner and edit are treated as equally capable; view is read-only.
func (p Permission) CanDraw() bool {
	return p == PermissionOwner || p == PermissionEdit
}

// NormalizeUsername maps a raw username to the key used in allow-lists and
// membership entries. Matching is case-insensitive by design.
func NormalizeUsername(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// AccessEntry is one allow-list row: a normalized username and its tier.
type AccessEntry struct {
	Username   string     `json:"username"`
	Permission Permission `json:"permission"`
}

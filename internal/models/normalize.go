package models

import (
	"encoding/json"
	"strings"
)

// Role is a normalized uppercase role name.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
	RoleMember    Role = "MEMBER"
)

// Legacy numeric role IDs kept in the persisted session for older readers.
const (
	RoleIDAdmin     = 1
	RoleIDModerator = 2
	RoleIDMember    = 3
)

// RoleID maps a role name to its legacy numeric ID.
func RoleID(role string) int {
	switch {
	case strings.EqualFold(role, "Admin"):
		return RoleIDAdmin
	case strings.EqualFold(role, "Moderator"):
		return RoleIDModerator
	default:
		return RoleIDMember
	}
}

// RoleSet is the resolved set of roles for a user, uppercased.
type RoleSet map[Role]struct{}

// NewRoleSet uppercases and collects the given role names, dropping blanks.
func NewRoleSet(names ...string) RoleSet {
	set := make(RoleSet, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		set[Role(strings.ToUpper(name))] = struct{}{}
	}
	return set
}

// HasStaff reports whether any role matches ADMIN or MODERATOR. Matching is
// substring-based because older backends returned values like "ROLE_ADMIN".
func (s RoleSet) HasStaff() bool {
	return s.contains("ADMIN") || s.contains("MODERATOR")
}

// HasAdmin reports whether any role matches ADMIN.
func (s RoleSet) HasAdmin() bool { return s.contains("ADMIN") }

// HasModerator reports whether any role matches MODERATOR.
func (s RoleSet) HasModerator() bool { return s.contains("MODERATOR") }

func (s RoleSet) contains(fragment string) bool {
	for role := range s {
		if strings.Contains(string(role), fragment) {
			return true
		}
	}
	return false
}

// Names returns the roles as a sorted-insensitive slice of strings.
func (s RoleSet) Names() []string {
	names := make([]string, 0, len(s))
	for role := range s {
		names = append(names, string(role))
	}
	return names
}

// NormalizeRoles resolves every historical role representation into a flat
// list of names: a plain string, an array of strings, a {roleName} or {name}
// object, or an array mixing all of the above.
func NormalizeRoles(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return []string{asString}
	}

	if name, ok := roleObjectName(raw); ok {
		return []string{name}
	}

	var asList []json.RawMessage
	if err := json.Unmarshal(raw, &asList); err == nil {
		names := make([]string, 0, len(asList))
		for _, item := range asList {
			var s string
			if err := json.Unmarshal(item, &s); err == nil {
				names = append(names, s)
				continue
			}
			if name, ok := roleObjectName(item); ok {
				names = append(names, name)
			}
		}
		return names
	}

	return nil
}

func roleObjectName(raw json.RawMessage) (string, bool) {
	var obj struct {
		RoleName string `json:"roleName"`
		Name     string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", false
	}
	if obj.RoleName != "" {
		return obj.RoleName, true
	}
	if obj.Name != "" {
		return obj.Name, true
	}
	return "", false
}

// UserRoles resolves a user's roles from whichever field the backend filled.
func UserRoles(u *User) []string {
	if u == nil {
		return nil
	}
	if names := NormalizeRoles(u.Roles); len(names) > 0 {
		return names
	}
	return NormalizeRoles(u.Role)
}

// IsStaff reports whether the user carries an admin or moderator role.
func IsStaff(u *User) bool {
	return NewRoleSet(UserRoles(u)...).HasStaff()
}

// ExtractArray unwraps the list shapes the backend has been known to return:
// a bare array, {content: [...]}, or {items: [...]}. Anything else yields an
// empty slice rather than an error.
func ExtractArray(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}

	var bare []json.RawMessage
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare
	}

	var envelope struct {
		Content []json.RawMessage `json:"content"`
		Items   []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Content != nil {
			return envelope.Content
		}
		if envelope.Items != nil {
			return envelope.Items
		}
	}
	return nil
}

// DecodeList unwraps a possibly-enveloped list payload into typed records.
// Elements that fail to decode are skipped, matching the tolerant reading
// the views always applied.
func DecodeList[T any](raw json.RawMessage) []T {
	elements := ExtractArray(raw)
	out := make([]T, 0, len(elements))
	for _, element := range elements {
		var item T
		if err := json.Unmarshal(element, &item); err == nil {
			out = append(out, item)
		}
	}
	return out
}

// CountFrom derives a count from any of the historical count shapes: a bare
// array's length, {totalElements}, {content}.length, {count}, or {total}.
// Nil input counts as zero.
func CountFrom(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}

	var bare []json.RawMessage
	if err := json.Unmarshal(raw, &bare); err == nil {
		return int64(len(bare))
	}

	var envelope struct {
		TotalElements *int64            `json:"totalElements"`
		Content       []json.RawMessage `json:"content"`
		Count         *int64            `json:"count"`
		Total         *int64            `json:"total"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return 0
	}
	switch {
	case envelope.TotalElements != nil:
		return *envelope.TotalElements
	case envelope.Content != nil:
		return int64(len(envelope.Content))
	case envelope.Count != nil:
		return *envelope.Count
	case envelope.Total != nil:
		return *envelope.Total
	}
	return 0
}

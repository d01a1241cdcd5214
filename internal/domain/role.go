package domain

import (
	"sort"
	"strings"
)

// Role is a closed set of capabilities an actor may hold. Raw role names
// are resolved into Roles once, at the request boundary.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleCoordinator Role = "COORDINATOR"
	RoleOperator    Role = "OPERATOR"
	RoleViewer      Role = "VIEWER"
	RoleUser        Role = "USER"
)

// roleAliases maps normalized upstream names onto roles. Upstream systems
// mix English and Portuguese identifiers and casing.
var roleAliases = map[string]Role{
	"ADMIN":         RoleAdmin,
	"ADMINISTRATOR": RoleAdmin,
	"ADMINISTRADOR": RoleAdmin,
	"COORDINATOR":   RoleCoordinator,
	"COORDENADOR":   RoleCoordinator,
	"OPERATOR":      RoleOperator,
	"OPERADOR":      RoleOperator,
	"VIEWER":        RoleViewer,
	"VISUALIZADOR":  RoleViewer,
	"USER":          RoleUser,
	"USUARIO":       RoleUser,
	"USUÁRIO":       RoleUser,
}

// ParseRole resolves a single upstream role name. The second result is
// false for names that map to no known role.
func ParseRole(raw string) (Role, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.TrimPrefix(key, "ROLE_")
	r, ok := roleAliases[key]
	return r, ok
}

// RoleSet is the resolved set of roles of an actor.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from already typed roles.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// ParseRoles resolves upstream role names. Unknown names are returned
// separately so the boundary can log them; they grant nothing.
func ParseRoles(raw []string) (RoleSet, []string) {
	s := make(RoleSet, len(raw))
	var unknown []string
	for _, name := range raw {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if r, ok := ParseRole(name); ok {
			s[r] = struct{}{}
			continue
		}
		unknown = append(unknown, name)
	}
	return s, unknown
}

// Has reports whether r is in the set.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// HasAny reports whether at least one of roles is in the set.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Slice returns the roles sorted by name.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the role names sorted.
func (s RoleSet) Strings() []string {
	roles := s.Slice()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// Actor is the authenticated caller of a use case.
type Actor struct {
	ID    int64
	Roles RoleSet
}

// IsAdmin reports whether the actor holds RoleAdmin.
func (a Actor) IsAdmin() bool { return a.Roles.Has(RoleAdmin) }

// SeesEverything reports whether the actor may read records it neither
// created nor handles.
func (a Actor) SeesEverything() bool {
	return a.Roles.HasAny(RoleAdmin, RoleCoordinator, RoleOperator, RoleViewer)
}

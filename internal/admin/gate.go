// Package admin gates the forced rollover behind a shared privileged alias.
// This is a capability check, not a security boundary.
package admin

import "errors"

// ErrDenied indicates the supplied identifier is not the privileged one.
var ErrDenied = errors.New("admin: denied")

// Gate compares a supplied identifier against the configured admin alias.
type Gate struct {
	adminAlias string
}

// NewGate builds the gate. An empty alias denies everyone.
func NewGate(adminAlias string) *Gate {
	return &Gate{adminAlias: adminAlias}
}

// Authorize permits the caller to force a rollover when the identifier
// matches.
func (g *Gate) Authorize(supplied string) error {
	if g.adminAlias == "" || supplied != g.adminAlias {
		return ErrDenied
	}
	return nil
}

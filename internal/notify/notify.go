// Package notify delivers reservation messages to users. Delivery is
// best-effort: the engine invokes it only after its transaction has
// committed, and a failed delivery is logged, never returned upstream.
package notify

import "context"

// Notifier pushes a message to one user.
type Notifier interface {
	Notify(ctx context.Context, userAlias, message string)
}

// Nop discards every message. Used in tests and -dev mode without Redis.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, string, string) {}

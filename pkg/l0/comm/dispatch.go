package comm

import (
	"context"
	"sync"

	"github.com/robotalks/mculink/pkg/l0/ring"
)

// Handler handles a command. args holds the payload after the
// command code and may be consumed by the handler.
type Handler interface {
	HandleCommand(ctx context.Context, code byte, args *ring.Buffer) error
}

// HandlerFunc is func type of Handler.
type HandlerFunc func(ctx context.Context, code byte, args *ring.Buffer) error

// HandleCommand implements Handler.
func (f HandlerFunc) HandleCommand(ctx context.Context, code byte, args *ring.Buffer) error {
	return f(ctx, code, args)
}

// Mux dispatches commands to handlers by command code.
type Mux struct {
	// Fallback handles codes without a registered handler.
	Fallback Handler

	handlers [256]Handler
	lock     sync.RWMutex
}

// NewMux creates a Mux.
func NewMux() *Mux {
	return &Mux{}
}

// Handle registers h for code, replacing any previous one.
// A nil h unregisters.
func (m *Mux) Handle(code byte, h Handler) *Mux {
	m.lock.Lock()
	m.handlers[code] = h
	m.lock.Unlock()
	return m
}

// HandleFunc registers a func for code.
func (m *Mux) HandleFunc(code byte, fn HandlerFunc) *Mux {
	return m.Handle(code, fn)
}

// Handler gets the handler for code.
func (m *Mux) Handler(code byte) Handler {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if h := m.handlers[code]; h != nil {
		return h
	}
	return m.Fallback
}

// HandleCommand implements Handler.
func (m *Mux) HandleCommand(ctx context.Context, code byte, args *ring.Buffer) error {
	if h := m.Handler(code); h != nil {
		return h.HandleCommand(ctx, code, args)
	}
	return &UnknownCommandError{Code: code}
}

// PrefixAction is called when a sub-command prefix matches.
// The prefix is already removed from args and the action may
// consume its own arguments from the front.
type PrefixAction func(ctx context.Context, args *ring.Buffer) error

// PrefixRule binds a sub-command prefix to an action.
type PrefixRule struct {
	Prefix []byte
	Action PrefixAction
}

// PrefixTable dispatches a sequence of sub-commands packed in
// one payload. Rules are tried in order and the first matching
// rule wins, so longer prefixes must come first.
type PrefixTable []PrefixRule

// Dispatch repeatedly matches the front of args against the rules
// until nothing matches. It stops at the first failing action.
func (t PrefixTable) Dispatch(ctx context.Context, args *ring.Buffer) (matched int, err error) {
	for args.Len() > 0 {
		rule := t.match(args)
		if rule == nil {
			return
		}
		args.RemoveFront(len(rule.Prefix))
		matched++
		if rule.Action != nil {
			if err = rule.Action(ctx, args); err != nil {
				return
			}
		}
	}
	return
}

// HandleCommand implements Handler. Unmatched trailing bytes are ignored.
func (t PrefixTable) HandleCommand(ctx context.Context, code byte, args *ring.Buffer) error {
	_, err := t.Dispatch(ctx, args)
	return err
}

func (t PrefixTable) match(args *ring.Buffer) *PrefixRule {
	for n := range t {
		if len(t[n].Prefix) > 0 && args.StartsWith(t[n].Prefix) {
			return &t[n]
		}
	}
	return nil
}

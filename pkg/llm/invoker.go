package llm

import (
	"context"
	"sync/atomic"
)

// Invoker answers a user message given the turns that precede it.
type Invoker interface {
	Chat(ctx context.Context, message, model string, history []Turn) Result
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, message, model string, history []Turn) Result

func (f InvokerFunc) Chat(ctx context.Context, message, model string, history []Turn) Result {
	return f(ctx, message, model, history)
}

// SwitchInvoker delegates to an Invoker that can be replaced while calls
// are in flight. Calls already running finish on the previous Invoker.
type SwitchInvoker struct {
	current atomic.Pointer[invokerBox]
}

type invokerBox struct {
	inv Invoker
}

// NewSwitchInvoker creates a SwitchInvoker starting with inv.
func NewSwitchInvoker(inv Invoker) *SwitchInvoker {
	s := &SwitchInvoker{}
	s.Set(inv)
	return s
}

// Set replaces the delegate.
func (s *SwitchInvoker) Set(inv Invoker) {
	s.current.Store(&invokerBox{inv: inv})
}

// Chat forwards to the current delegate. Without one the call fails as an
// unreachable backend would.
func (s *SwitchInvoker) Chat(ctx context.Context, message, model string, history []Turn) Result {
	box := s.current.Load()
	if box == nil || box.inv == nil {
		return RequestFailed(ErrNoInvoker)
	}
	return box.inv.Chat(ctx, message, model, history)
}

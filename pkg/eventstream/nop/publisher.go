// Package nop provides a publisher that drops every event.
package nop

import (
	"context"

	"github.com/papercomputeco/parley/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish validates input and otherwise does nothing.
func (p *Publisher) Publish(_ context.Context, event *eventstream.ExchangeEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return nil
}

func (p *Publisher) Close() error {
	return nil
}

package eventstream

import "context"

// Supported publisher providers, selected by the events.provider config key.
const (
	ProviderNone  = "none"
	ProviderKafka = "kafka"
)

// Publisher publishes exchange events to an event stream backend.
type Publisher interface {
	Publish(ctx context.Context, event *ExchangeEvent) error
	Close() error
}

// SupportedProviders returns the accepted events.provider values.
func SupportedProviders() []string {
	return []string{ProviderNone, ProviderKafka}
}

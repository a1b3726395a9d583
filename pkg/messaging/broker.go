package messaging

import (
	"context"
)

// Publisher defines the interface for publishing messages
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Broker defines the interface for message brokers
type Broker interface {
	Publisher
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type nopBroker struct{}

// NewNopBroker returns a broker that drops everything; used when no redis URL
// is configured.
func NewNopBroker() Broker {
	return nopBroker{}
}

func (nopBroker) Publish(context.Context, string, interface{}) error { return nil }

func (nopBroker) Subscribe(ctx context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (nopBroker) Close() error { return nil }

// internal/service/sender.go
package service

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"
)

// MockSender simulates delivery with a 90% success rate and a little
// latency. Swap for a real SMTP or provider-API sender in production.
type MockSender struct {
	rng *rand.Rand
}

func NewMockSender() *MockSender {
	return &MockSender{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

var errMockDelivery = errors.New("mock delivery failure")

func (m *MockSender) Send(ctx context.Context, to, toName, subject, body string) error {
	select {
	case <-time.After(time.Duration(50+m.rng.Intn(200)) * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	if m.rng.Intn(100) < 90 {
		log.Printf("📩 Sent to %s: %s", to, subject)
		return nil
	}
	return errMockDelivery
}

var _ Sender = (*MockSender)(nil)

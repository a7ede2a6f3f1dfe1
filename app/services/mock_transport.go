package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/partyline/utils"
	"github.com/google/uuid"
)

// SentRecord is a message accepted by MockTransport
type SentRecord struct {
	ID      string
	Message OutboundMessage
	SentAt  time.Time
}

// MockTransport implements MessageTransport in memory. It is used by the
// "mock" messaging provider and by tests.
type MockTransport struct {
	mu sync.Mutex

	// FailTo makes sends to these provider addresses fail with Err (or a rejected TransportError)
	FailTo map[string]bool
	// Err, when set and FailTo is empty, fails every send
	Err error

	sent []SentRecord
}

// NewMockTransport creates a mock transport that accepts everything
func NewMockTransport() *MockTransport {
	return &MockTransport{FailTo: map[string]bool{}}
}

// FailFor marks a provider address as failing
func (m *MockTransport) FailFor(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailTo == nil {
		m.FailTo = map[string]bool{}
	}
	m.FailTo[addr] = true
}

func (m *MockTransport) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &TransportError{Kind: TransportErrorTimeout, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailTo[msg.To] || (len(m.FailTo) == 0 && m.Err != nil) {
		if m.Err != nil {
			return "", m.Err
		}
		return "", &TransportError{Kind: TransportErrorRejected, StatusCode: 400, ProviderCode: "21211", Message: "invalid 'To' phone number"}
	}

	id := "SM" + strings.ReplaceAll(uuid.NewString(), "-", "")
	m.sent = append(m.sent, SentRecord{ID: id, Message: msg, SentAt: utils.UTCNow()})
	return id, nil
}

// Sent returns a copy of every accepted message in send order
func (m *MockTransport) Sent() []SentRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentRecord, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentTo returns the accepted messages addressed to addr
func (m *MockTransport) SentTo(addr string) []SentRecord {
	var out []SentRecord
	for _, r := range m.Sent() {
		if r.Message.To == addr {
			out = append(out, r)
		}
	}
	return out
}

// Reset drops recorded messages and failure rules
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.FailTo = map[string]bool{}
	m.Err = nil
}

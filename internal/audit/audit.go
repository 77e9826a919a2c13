// Package audit records security-relevant events (logins, token rotations,
// group changes). Publishing is fire-and-forget: an audit failure never
// blocks or fails the request that produced it.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/mssola/useragent"
)

// Actions recorded by the iam services.
const (
	ActionLogin           = "login"
	ActionTokenRefresh    = "token_refresh"
	ActionGroupAssigned   = "group_assigned"
	ActionGroupUnassigned = "group_unassigned"
)

// Event is one audit record.
type Event struct {
	Time      time.Time `json:"time"`
	Action    string    `json:"action"`
	UserID    int64     `json:"user_id"`
	RequestID string    `json:"request_id,omitempty"`
	Group     string    `json:"group,omitempty"`

	// Client fingerprint, parsed from the User-Agent header on login.
	Browser        string `json:"browser,omitempty"`
	BrowserVersion string `json:"browser_version,omitempty"`
	OS             string `json:"os,omitempty"`
	Mobile         bool   `json:"mobile,omitempty"`
}

// WithUserAgent enriches the event with a parsed client fingerprint.
func (e Event) WithUserAgent(raw string) Event {
	if raw == "" {
		return e
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	e.Browser = name
	e.BrowserVersion = version
	e.OS = ua.OS()
	e.Mobile = ua.Mobile()
	return e
}

// Publisher sinks audit events.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close()
}

// MemoryPublisher buffers events in memory for tests and broker-less dev
// deployments.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryPublisher constructs an empty in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

func (p *MemoryPublisher) Close() {}

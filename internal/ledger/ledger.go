package ledger

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/seanchatmangpt/sigil/internal/capability"
)

// Ledger is the append-only governance log: every authorization
// decision, grant, revocation, and violation lands here.
//
// Concurrency model: one writer lock per append; queries take a read
// lock and see a consistent point-in-time snapshot, so a replay can
// never observe a partially appended event. The durable mirror, when
// configured, is written inside the same critical section, so an event is
// either fully persisted and visible, or neither.
type Ledger struct {
	mu     sync.RWMutex
	events []Event
	clock  *idClock
	log    *Log
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithNow overrides the timestamp source. For tests.
func WithNow(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates an in-memory ledger with no durable mirror.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		clock:  newIDClock(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open creates a ledger backed by a durable log. Events already in the
// log are loaded into memory and id assignment resumes after the last
// persisted id.
func Open(path string, opts ...Option) (*Ledger, error) {
	log, events, err := OpenLog(path)
	if err != nil {
		return nil, err
	}
	l := New(opts...)
	l.log = log
	l.events = events
	l.clock = newIDClockAt(log.LastID())
	return l, nil
}

// Close closes the durable mirror, if any.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.log == nil {
		return nil
	}
	return l.log.Close()
}

// Append assigns the next monotonic id, persists the event if a durable
// mirror is configured, stores it in memory, and returns the assigned
// id. The caller's ID and Timestamp fields are overwritten.
func (l *Ledger) Append(e Event) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.ID = l.clock.Next()
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}

	if l.log != nil {
		if err := l.log.Append(e); err != nil {
			return 0, fmt.Errorf("append event: %w", err)
		}
	}
	l.events = append(l.events, e)

	l.logger.Debug("governance event appended",
		"id", e.ID,
		"type", string(e.Type),
		"agent", e.Agent,
		"tenant", e.Tenant,
	)
	return e.ID, nil
}

// Len returns the number of events in memory.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// LastID returns the most recently assigned event id.
func (l *Ledger) LastID() int64 {
	return l.clock.Current()
}

// snapshot copies the current event slice under the read lock.
func (l *Ledger) snapshot() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Convenience recorders. Each builds a typed event and appends it.

// RecordCapabilityGranted records a capability grant.
func (l *Ledger) RecordCapabilityGranted(agent, tenant string, id capability.ID) (int64, error) {
	return l.Append(Event{Type: EventCapabilityGranted, Agent: agent, Tenant: tenant, Capability: id})
}

// RecordCapabilityRevoked records a capability revocation.
func (l *Ledger) RecordCapabilityRevoked(agent, tenant string, id capability.ID, reason string) (int64, error) {
	return l.Append(Event{Type: EventCapabilityRevoked, Agent: agent, Tenant: tenant, Capability: id, Reason: reason})
}

// RecordPolicyDecision records one policy verdict on an invocation.
func (l *Ledger) RecordPolicyDecision(agent, tenant, correlationID string, id capability.ID, command, decision, reason string) (int64, error) {
	return l.Append(Event{
		Type:          EventPolicyDecision,
		Agent:         agent,
		Tenant:        tenant,
		CorrelationID: correlationID,
		Capability:    id,
		Command:       command,
		Decision:      decision,
		Reason:        reason,
	})
}

// RecordDelegationCreated records issuance of a delegation token.
func (l *Ledger) RecordDelegationCreated(agent, tenant, tokenID string) (int64, error) {
	return l.Append(Event{Type: EventDelegationCreated, Agent: agent, Tenant: tenant, TokenID: tokenID})
}

// RecordDelegationExpired records a token passing out of its window.
func (l *Ledger) RecordDelegationExpired(agent, tenant, tokenID string) (int64, error) {
	return l.Append(Event{Type: EventDelegationExpired, Agent: agent, Tenant: tenant, TokenID: tokenID})
}

// RecordPolicyChanged records a policy change.
func (l *Ledger) RecordPolicyChanged(agent, tenant, description string) (int64, error) {
	return l.Append(Event{Type: EventPolicyChanged, Agent: agent, Tenant: tenant, Reason: description})
}

// RecordModeChanged records a governance-mode switch.
func (l *Ledger) RecordModeChanged(agent, tenant, mode string) (int64, error) {
	return l.Append(Event{Type: EventModeChanged, Agent: agent, Tenant: tenant, Metadata: map[string]string{"mode": mode}})
}

// RecordSecurityViolation records a violation as an audit fact. It is
// not an error path: the caller appends and carries on.
func (l *Ledger) RecordSecurityViolation(agent, tenant, correlationID string, id capability.ID, detail string) (int64, error) {
	return l.Append(Event{
		Type:          EventSecurityViolation,
		Agent:         agent,
		Tenant:        tenant,
		CorrelationID: correlationID,
		Capability:    id,
		Reason:        detail,
	})
}

// RecordAuditCheckpoint records a point-in-time audit anchor.
func (l *Ledger) RecordAuditCheckpoint(agent, tenant, label string) (int64, error) {
	return l.Append(Event{Type: EventAuditCheckpoint, Agent: agent, Tenant: tenant, Metadata: map[string]string{"label": label}})
}

package ledger

import "time"

// Query is a filter builder over the ledger. Filters compose as a
// conjunction: every predicate added must hold for an event to match.
//
// Execute and Count take the read lock once and evaluate against a
// point-in-time snapshot.
type Query struct {
	ledger *Ledger

	hasRange     bool
	start, end   time.Time
	agent        *string
	tenant       *string
	correlation  *string
	eventTypes   []EventType
}

// Query starts a new filter builder.
func (l *Ledger) Query() *Query {
	return &Query{ledger: l}
}

// Between keeps events with start <= Timestamp <= end.
func (q *Query) Between(start, end time.Time) *Query {
	q.hasRange = true
	q.start = start
	q.end = end
	return q
}

// Agent keeps events recorded for the given agent.
func (q *Query) Agent(agent string) *Query {
	q.agent = &agent
	return q
}

// Tenant keeps events recorded for the given tenant.
func (q *Query) Tenant(tenant string) *Query {
	q.tenant = &tenant
	return q
}

// Correlation keeps events with the given correlation id.
func (q *Query) Correlation(id string) *Query {
	q.correlation = &id
	return q
}

// Types keeps events of any of the given types.
func (q *Query) Types(types ...EventType) *Query {
	q.eventTypes = append(q.eventTypes, types...)
	return q
}

// Execute returns all matching events in append order.
func (q *Query) Execute() []Event {
	snapshot := q.ledger.snapshot()
	var out []Event
	for _, e := range snapshot {
		if q.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of matching events.
func (q *Query) Count() int {
	snapshot := q.ledger.snapshot()
	count := 0
	for _, e := range snapshot {
		if q.matches(e) {
			count++
		}
	}
	return count
}

func (q *Query) matches(e Event) bool {
	if q.hasRange {
		if e.Timestamp.Before(q.start) || e.Timestamp.After(q.end) {
			return false
		}
	}
	if q.agent != nil && e.Agent != *q.agent {
		return false
	}
	if q.tenant != nil && e.Tenant != *q.tenant {
		return false
	}
	if q.correlation != nil && e.CorrelationID != *q.correlation {
		return false
	}
	if len(q.eventTypes) > 0 {
		found := false
		for _, t := range q.eventTypes {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/seanchatmangpt/sigil/internal/capability"
	"github.com/seanchatmangpt/sigil/internal/ledger"
)

// Filter restricts an archive query. Zero-value fields are ignored;
// non-zero fields compose as a conjunction, matching the in-memory
// ledger query semantics.
type Filter struct {
	Start         time.Time
	End           time.Time
	Agent         string
	Tenant        string
	CorrelationID string
	Type          ledger.EventType
}

// compile turns a filter into a parameterized WHERE clause. All values
// are parameterized, never interpolated, and every query orders by id
// so results are deterministic.
func (f Filter) compile() (string, []any) {
	var clauses []string
	var params []any

	if !f.Start.IsZero() {
		clauses = append(clauses, "timestamp >= ?")
		params = append(params, f.Start.UTC().Format(time.RFC3339Nano))
	}
	if !f.End.IsZero() {
		clauses = append(clauses, "timestamp <= ?")
		params = append(params, f.End.UTC().Format(time.RFC3339Nano))
	}
	if f.Agent != "" {
		clauses = append(clauses, "agent = ?")
		params = append(params, f.Agent)
	}
	if f.Tenant != "" {
		clauses = append(clauses, "tenant = ?")
		params = append(params, f.Tenant)
	}
	if f.CorrelationID != "" {
		clauses = append(clauses, "correlation_id = ?")
		params = append(params, f.CorrelationID)
	}
	if f.Type != "" {
		clauses = append(clauses, "type = ?")
		params = append(params, string(f.Type))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}
	return where, params
}

// Query returns all archived events matching the filter, in id order.
func (a *Archive) Query(ctx context.Context, f Filter) ([]ledger.Event, error) {
	where, params := f.compile()
	query := `
		SELECT id, timestamp, type, agent, tenant, correlation_id, capability, command, decision, reason, token_id, metadata
		FROM events` + where + `
		ORDER BY id`

	rows, err := a.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	var events []ledger.Event
	for rows.Next() {
		var e ledger.Event
		var timestamp, eventType, capabilityID, metadata string
		err := rows.Scan(
			&e.ID, &timestamp, &eventType, &e.Agent, &e.Tenant,
			&e.CorrelationID, &capabilityID, &e.Command, &e.Decision,
			&e.Reason, &e.TokenID, &metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("scan archived event: %w", err)
		}
		e.Type = ledger.EventType(eventType)
		e.Capability = capability.ID(capabilityID)
		e.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp of event %d: %w", e.ID, err)
		}
		if metadata != "" && metadata != "{}" {
			if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
				return nil, fmt.Errorf("parse metadata of event %d: %w", e.ID, err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	return events, nil
}

// CountWhere returns the number of archived events matching the filter.
func (a *Archive) CountWhere(ctx context.Context, f Filter) (int64, error) {
	where, params := f.compile()
	var count int64
	err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events"+where, params...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count archive: %w", err)
	}
	return count, nil
}

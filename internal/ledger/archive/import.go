package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/seanchatmangpt/sigil/internal/ledger"
)

// Import ingests a JSONL governance log into the archive. Events whose
// ids are already present are skipped (ON CONFLICT DO NOTHING), so
// importing the same log twice, or re-importing a log that has grown,
// archives each event exactly once. Returns the number of newly
// archived events.
func (a *Archive) Import(ctx context.Context, logPath string) (int64, error) {
	events, err := ledger.ReadLog(logPath)
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", logPath, err)
	}
	return a.ImportEvents(ctx, events)
}

// ImportEvents archives a slice of events inside one transaction.
func (a *Archive) ImportEvents(ctx context.Context, events []ledger.Event) (int64, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events
		(id, timestamp, type, agent, tenant, correlation_id, capability, command, decision, reason, token_id, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, e := range events {
		metadata := "{}"
		if len(e.Metadata) > 0 {
			data, err := json.Marshal(e.Metadata)
			if err != nil {
				return 0, fmt.Errorf("marshal metadata for event %d: %w", e.ID, err)
			}
			metadata = string(data)
		}
		result, err := stmt.ExecContext(ctx,
			e.ID,
			e.Timestamp.UTC().Format(time.RFC3339Nano),
			string(e.Type),
			e.Agent,
			e.Tenant,
			e.CorrelationID,
			string(e.Capability),
			e.Command,
			e.Decision,
			e.Reason,
			e.TokenID,
			metadata,
		)
		if err != nil {
			return 0, fmt.Errorf("archive event %d: %w", e.ID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("archive event %d: %w", e.ID, err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return inserted, nil
}

package repo

import (
	"context"
	"encoding/json"
	"fmt"
)

// InsertEvent appends a domain event row, usually inside the same
// transaction as the state change it describes.
func (q *Queries) InsertEvent(ctx context.Context, topic, aggregateID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	if _, err := q.db.Exec(ctx,
		`INSERT INTO domain_events (topic, aggregate_id, payload) VALUES ($1, $2, $3)`,
		topic, aggregateID, body); err != nil {
		return fmt.Errorf("insert domain event: %w", err)
	}
	return nil
}

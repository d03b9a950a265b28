package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/hubspot"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

// EventDirectory is a marketing-event directory kept in Postgres. It stores the
// same payloads the HubSpot store would receive and is scoped to one app id.
type EventDirectory struct {
	db     *DB
	mapper *hubspot.PayloadMapper
}

// NewEventDirectory creates a directory backed by db. A nil mapper uses the default app id.
func NewEventDirectory(db *DB, mapper *hubspot.PayloadMapper) *EventDirectory {
	if mapper == nil {
		mapper = hubspot.NewPayloadMapper("")
	}
	return &EventDirectory{db: db, mapper: mapper}
}

// AppID returns the organizer the directory is scoped to.
func (d *EventDirectory) AppID() string {
	return d.mapper.AppID
}

// List returns every event owned by the app id, oldest first.
func (d *EventDirectory) List(ctx context.Context) ([]types.MarketingEventRecord, error) {
	rows, err := d.db.pool.Query(ctx,
		`SELECT id, external_event_id, event_name, event_type, app_id, event_description
		 FROM marketing_events WHERE app_id = $1 ORDER BY created_at, id`,
		d.mapper.AppID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list marketing events: %w", err)
	}
	defer rows.Close()

	records := make([]types.MarketingEventRecord, 0)
	for rows.Next() {
		var id uuid.UUID
		var r types.MarketingEventRecord
		if err := rows.Scan(&id, &r.ExternalEventID, &r.EventName, &r.EventType, &r.EventOrganizer, &r.EventDescription); err != nil {
			return nil, fmt.Errorf("failed to scan marketing event: %w", err)
		}
		r.ID = id.String()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list marketing events: %w", err)
	}
	return records, nil
}

// Create inserts the payload for insight and returns the new row id.
func (d *EventDirectory) Create(ctx context.Context, insight types.QualifiedInsight) (string, error) {
	event := d.mapper.ToEvent(insight)
	props, err := encodeProperties(event.CustomProperties)
	if err != nil {
		return "", err
	}

	var id uuid.UUID
	err = d.db.pool.QueryRow(ctx,
		`INSERT INTO marketing_events (app_id, external_event_id, event_name, event_type,
		     event_description, start_date_time, end_date_time, custom_properties)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		event.EventOrganizer, event.ExternalEventID, event.EventName, event.EventType,
		event.EventDescription, event.StartDateTime, event.EndDateTime, props,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create marketing event %s: %w", insight.ID, err)
	}
	return id.String(), nil
}

// Update overwrites the row id with the payload for insight.
func (d *EventDirectory) Update(ctx context.Context, id string, insight types.QualifiedInsight) error {
	rowID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid marketing event id %q: %w", id, err)
	}
	event := d.mapper.ToEvent(insight)
	props, err := encodeProperties(event.CustomProperties)
	if err != nil {
		return err
	}

	result, err := d.db.pool.Exec(ctx,
		`UPDATE marketing_events
		 SET external_event_id = $1, event_name = $2, event_type = $3, event_description = $4,
		     start_date_time = $5, end_date_time = $6, custom_properties = $7, updated_at = NOW()
		 WHERE id = $8 AND app_id = $9`,
		event.ExternalEventID, event.EventName, event.EventType, event.EventDescription,
		event.StartDateTime, event.EndDateTime, props, rowID, event.EventOrganizer,
	)
	if err != nil {
		return fmt.Errorf("failed to update marketing event %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("marketing event not found: %s", id)
	}
	return nil
}

// Delete removes the row id.
func (d *EventDirectory) Delete(ctx context.Context, id string) error {
	rowID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid marketing event id %q: %w", id, err)
	}
	result, err := d.db.pool.Exec(ctx,
		`DELETE FROM marketing_events WHERE id = $1 AND app_id = $2`, rowID, d.mapper.AppID)
	if err != nil {
		return fmt.Errorf("failed to delete marketing event %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("marketing event not found: %s", id)
	}
	return nil
}

func encodeProperties(props map[string]string) ([]byte, error) {
	if props == nil {
		props = map[string]string{}
	}
	b, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal custom properties: %w", err)
	}
	return b, nil
}

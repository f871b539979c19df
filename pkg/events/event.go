package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CATALOG_SYNC_REQUESTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type codes published on the bus.
const (
	TypeCatalogSyncRequested = "CATALOG_SYNC_REQUESTED"
	TypeCatalogSyncCompleted = "CATALOG_SYNC_COMPLETED"
	TypeDocumentIngested     = "DOCUMENT_INGESTED"
)

// BaseEvent is the generic implementation used by publishers and the
// subscriber-side reconstruction.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewCatalogSyncRequested asks the background worker to (re)build catalog
// entries. An empty tableName requests a full sync.
func NewCatalogSyncRequested(tableName string, force bool) Event {
	return BaseEvent{
		Type: TypeCatalogSyncRequested,
		Data: map[string]interface{}{
			"table_name": tableName,
			"force":      force,
		},
		OccurredAt: time.Now(),
	}
}

// NewCatalogSyncCompleted reports a finished sync run.
func NewCatalogSyncCompleted(tableName string, synced int) Event {
	return BaseEvent{
		Type: TypeCatalogSyncCompleted,
		Data: map[string]interface{}{
			"table_name": tableName,
			"synced":     synced,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentIngested reports a document (or chunked batch) landing in the
// vector store.
func NewDocumentIngested(documentIds []string, chunks int) Event {
	ids := make([]interface{}, len(documentIds))
	for i, id := range documentIds {
		ids[i] = id
	}
	return BaseEvent{
		Type: TypeDocumentIngested,
		Data: map[string]interface{}{
			"document_ids": ids,
			"chunks":       chunks,
		},
		OccurredAt: time.Now(),
	}
}

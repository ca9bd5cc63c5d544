package domain

// ChangeEvent announces a committed store mutation to downstream consumers.
// It is an outbound notification only, the service never replays events.
type ChangeEvent struct {
	ID         string `json:"id"`
	EntityType string `json:"entityType"`
	Type       string `json:"type"`
	EntityID   int    `json:"entityId"`
	Timestamp  int64  `json:"timestamp"`
}

// Change event entity and operation names.
const (
	EntityTask     = "task"
	EntityCategory = "category"

	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

package domain

// Event is one CRM domain mutation offered to the dispatcher. Events carry
// no identity of their own and are never persisted; only the delivery log
// entries derived from them are.
type Event struct {
	EntityType    EntityType     `json:"entityType"`
	EventType     EventType      `json:"eventType"`
	EntityID      string         `json:"entityId"`
	Data          map[string]any `json:"data"`
	PreviousData  map[string]any `json:"previousData,omitempty"`
	ChangedFields []string       `json:"changedFields,omitempty"`
}

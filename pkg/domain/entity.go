package domain

import "encoding"

type EntityType string

const (
	EntityContact  EntityType = "contact"
	EntityCompany  EntityType = "company"
	EntityDeal     EntityType = "deal"
	EntityTask     EntityType = "task"
	EntityActivity EntityType = "activity"
)

type EventType string

const (
	EventCreated       EventType = "created"
	EventUpdated       EventType = "updated"
	EventDeleted       EventType = "deleted"
	EventStageChanged  EventType = "stage_changed"
	EventTagAdded      EventType = "tag_added"
	EventTagRemoved    EventType = "tag_removed"
	EventStatusChanged EventType = "status_changed"
	EventFieldChanged  EventType = "field_changed"
)

// EventName renders the composite dotted name carried in payloads,
// e.g. "deal.stage_changed".
func EventName(entity EntityType, event EventType) string {
	return string(entity) + "." + string(event)
}

func (e EntityType) Valid() bool {
	switch e {
	case EntityContact, EntityCompany, EntityDeal, EntityTask, EntityActivity:
		return true
	}
	return false
}

func (e EventType) Valid() bool {
	switch e {
	case EventCreated, EventUpdated, EventDeleted, EventStageChanged,
		EventTagAdded, EventTagRemoved, EventStatusChanged, EventFieldChanged:
		return true
	}
	return false
}

func EntityTypes() []EntityType {
	return []EntityType{EntityContact, EntityCompany, EntityDeal, EntityTask, EntityActivity}
}

func EventTypes() []EventType {
	return []EventType{
		EventCreated, EventUpdated, EventDeleted, EventStageChanged,
		EventTagAdded, EventTagRemoved, EventStatusChanged, EventFieldChanged,
	}
}

var (
	_ encoding.BinaryMarshaler = EntityType("")
	_ encoding.TextMarshaler   = EntityType("")
	_ encoding.BinaryMarshaler = EventType("")
	_ encoding.TextMarshaler   = EventType("")
)

func (e EntityType) MarshalBinary() ([]byte, error) { return []byte(string(e)), nil }
func (e EntityType) MarshalText() ([]byte, error)   { return []byte(string(e)), nil }

func (e EventType) MarshalBinary() ([]byte, error) { return []byte(string(e)), nil }
func (e EventType) MarshalText() ([]byte, error)   { return []byte(string(e)), nil }

package preset

import (
	"encoding/json"

	"computegate/internal/db"
	"computegate/internal/events"
)

const AggregateType = "preset"

const (
	TypeCreated = "PresetCreated"
	TypeDeleted = "PresetDeleted"
)

// Event is the closed set of preset event payloads.
type Event interface {
	EventType() string
	presetEvent()
}

type Created struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Config      json.RawMessage `json:"config"`
	IsPublic    bool            `json:"is_public"`
	CreatedBy   string          `json:"created_by"`
}

type Deleted struct {
	DeletedBy string `json:"deleted_by"`
	Reason    string `json:"reason"`
}

type Unknown struct {
	Type string
	Data json.RawMessage
}

func (Created) EventType() string   { return TypeCreated }
func (Deleted) EventType() string   { return TypeDeleted }
func (u Unknown) EventType() string { return u.Type }

func (Created) presetEvent() {}
func (Deleted) presetEvent() {}
func (Unknown) presetEvent() {}

func pending(e Event) events.Pending {
	return events.Pending{AggregateType: AggregateType, Type: e.EventType(), Data: e}
}

func decode(ev db.Event) (Event, error) {
	switch ev.Type {
	case TypeCreated:
		return decodeAs[Created](ev)
	case TypeDeleted:
		return decodeAs[Deleted](ev)
	default:
		return Unknown{Type: ev.Type, Data: json.RawMessage(ev.Data)}, nil
	}
}

func decodeAs[T Event](ev db.Event) (Event, error) {
	v, err := events.Decode[T](ev)
	if err != nil {
		return nil, err
	}
	return v, nil
}

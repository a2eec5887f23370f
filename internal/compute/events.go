package compute

import (
	"encoding/json"

	"computegate/internal/db"
	"computegate/internal/events"
)

const AggregateType = "compute"

const (
	TypeCreated   = "ComputeCreated"
	TypeDestroyed = "ComputeDestroyed"
)

// Event is the closed set of compute event payloads.
type Event interface {
	EventType() string
	computeEvent()
}

type Created struct {
	Provider  string         `json:"provider"`
	SandboxID string         `json:"sandbox_id"`
	Runtime   string         `json:"runtime,omitempty"`
	Metadata  map[string]any `json:"metadata"`
	CreatedBy string         `json:"created_by"`
}

type Destroyed struct {
	DestroyedBy string `json:"destroyed_by"`
	Reason      string `json:"reason"`
}

type Unknown struct {
	Type string
	Data json.RawMessage
}

func (Created) EventType() string   { return TypeCreated }
func (Destroyed) EventType() string { return TypeDestroyed }
func (u Unknown) EventType() string { return u.Type }

func (Created) computeEvent()   {}
func (Destroyed) computeEvent() {}
func (Unknown) computeEvent()   {}

func pending(e Event) events.Pending {
	return events.Pending{AggregateType: AggregateType, Type: e.EventType(), Data: e}
}

func decode(ev db.Event) (Event, error) {
	switch ev.Type {
	case TypeCreated:
		return decodeAs[Created](ev)
	case TypeDestroyed:
		return decodeAs[Destroyed](ev)
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

package session

import (
	"encoding/json"

	"computegate/internal/db"
	"computegate/internal/events"
)

const AggregateType = "session"

const (
	TypeCreated  = "SessionCreated"
	TypeActivity = "SessionActivity"
	TypeClosed   = "SessionClosed"
)

// Event is the closed set of session event payloads.
type Event interface {
	EventType() string
	sessionEvent()
}

type Created struct {
	ComputeID string         `json:"compute_id"`
	CreatedBy string         `json:"created_by"`
	Metadata  map[string]any `json:"metadata"`
}

// Activity marks the session as used at the event timestamp.
type Activity struct{}

type Closed struct {
	ClosedBy string `json:"closed_by"`
	Reason   string `json:"reason"`
}

type Unknown struct {
	Type string
	Data json.RawMessage
}

func (Created) EventType() string   { return TypeCreated }
func (Activity) EventType() string  { return TypeActivity }
func (Closed) EventType() string    { return TypeClosed }
func (u Unknown) EventType() string { return u.Type }

func (Created) sessionEvent()  {}
func (Activity) sessionEvent() {}
func (Closed) sessionEvent()   {}
func (Unknown) sessionEvent()  {}

func pending(e Event) events.Pending {
	return events.Pending{AggregateType: AggregateType, Type: e.EventType(), Data: e}
}

func decode(ev db.Event) (Event, error) {
	switch ev.Type {
	case TypeCreated:
		return decodeAs[Created](ev)
	case TypeActivity:
		return Activity{}, nil
	case TypeClosed:
		return decodeAs[Closed](ev)
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

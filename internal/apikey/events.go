package apikey

import (
	"encoding/json"
	"time"

	"computegate/internal/db"
	"computegate/internal/events"
)

// AggregateType tags every API key event in the log.
const AggregateType = "api_key"

const (
	TypeCreated = "APIKeyCreated"
	TypeRevoked = "APIKeyRevoked"
	TypeUsed    = "APIKeyUsed"
)

// Event is the closed set of API key event payloads.
type Event interface {
	EventType() string
	apiKeyEvent()
}

// Created starts a key's stream. KeyHash is the bcrypt hash of the key's
// SHA-256 digest; the plaintext key is never recorded.
type Created struct {
	Name        string         `json:"name"`
	KeyHash     string         `json:"key_hash"`
	KeyPrefix   string         `json:"key_prefix"`
	Permissions []string       `json:"permissions"`
	Metadata    map[string]any `json:"metadata"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
}

// Revoked ends a key's life.
type Revoked struct {
	Reason string `json:"reason"`
}

// Used records one successful authentication. The event timestamp is the
// time of use.
type Used struct{}

// Unknown carries an event type this version does not understand.
type Unknown struct {
	Type string
	Data json.RawMessage
}

func (Created) EventType() string   { return TypeCreated }
func (Revoked) EventType() string   { return TypeRevoked }
func (Used) EventType() string      { return TypeUsed }
func (u Unknown) EventType() string { return u.Type }

func (Created) apiKeyEvent() {}
func (Revoked) apiKeyEvent() {}
func (Used) apiKeyEvent()    {}
func (Unknown) apiKeyEvent() {}

func pending(e Event) events.Pending {
	return events.Pending{AggregateType: AggregateType, Type: e.EventType(), Data: e}
}

func decode(ev db.Event) (Event, error) {
	switch ev.Type {
	case TypeCreated:
		return decodeAs[Created](ev)
	case TypeRevoked:
		return decodeAs[Revoked](ev)
	case TypeUsed:
		return Used{}, nil
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

package events

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/solecart-backend/pkg/enums"
	"github.com/google/uuid"
)

const envelopeVersion = 1

// ActorRef identifies who triggered the event.
type ActorRef struct {
	Email  string     `json:"email"`
	UserID *uuid.UUID `json:"userId,omitempty"`
}

// Envelope is the stable payload published for every domain event.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  enums.EventType `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      ActorRef        `json:"actor"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Event is what services hand to the Emitter after a commit.
type Event struct {
	Type   enums.EventType
	Email  string
	UserID *uuid.UUID
	Data   any
}

func newEnvelope(evt Event, now time.Time) (Envelope, error) {
	env := Envelope{
		Version:    envelopeVersion,
		EventID:    uuid.NewString(),
		EventType:  evt.Type,
		OccurredAt: now.UTC(),
		Actor:      ActorRef{Email: evt.Email, UserID: evt.UserID},
	}
	if evt.Data != nil {
		raw, err := json.Marshal(evt.Data)
		if err != nil {
			return Envelope{}, err
		}
		env.Data = raw
	}
	return env, nil
}

// CartData is the payload of every cart.* event.
type CartData struct {
	CartID     uuid.UUID `json:"cartId"`
	UniqueID   uuid.UUID `json:"uniqueId"`
	ItemIDs    []string  `json:"itemIds,omitempty"`
	ItemCount  int       `json:"itemCount"`
	TotalPrice string    `json:"totalPrice"`
}

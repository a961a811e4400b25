package enums

import "fmt"

// EventType names a domain event published after a committed change.
type EventType string

const (
	EventCartCreated             EventType = "cart.created"
	EventCartItemAdded           EventType = "cart.item_added"
	EventCartItemsRemoved        EventType = "cart.items_removed"
	EventCartItemRemoved         EventType = "cart.item_removed"
	EventCartItemQuantityUpdated EventType = "cart.item_quantity_updated"
	EventCartUncheckedRemoved    EventType = "cart.unchecked_removed"

	EventUserRegistered         EventType = "auth.user_registered"
	EventPasswordResetRequested EventType = "auth.password_reset_requested"
	EventPasswordResetCompleted EventType = "auth.password_reset_completed"
	EventOAuthUserCreated       EventType = "auth.oauth_user_created"
)

var validEventTypes = []EventType{
	EventCartCreated,
	EventCartItemAdded,
	EventCartItemsRemoved,
	EventCartItemRemoved,
	EventCartItemQuantityUpdated,
	EventCartUncheckedRemoved,
	EventUserRegistered,
	EventPasswordResetRequested,
	EventPasswordResetCompleted,
	EventOAuthUserCreated,
}

// String implements fmt.Stringer.
func (e EventType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EventType.
func (e EventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// IsCartEvent reports whether the event belongs to the cart topic.
func (e EventType) IsCartEvent() bool {
	switch e {
	case EventCartCreated, EventCartItemAdded, EventCartItemsRemoved,
		EventCartItemRemoved, EventCartItemQuantityUpdated, EventCartUncheckedRemoved:
		return true
	}
	return false
}

// ParseEventType converts raw input into an EventType.
func ParseEventType(value string) (EventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

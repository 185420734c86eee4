// Package events publishes booking audit events.
package events

import (
	"context"
	"time"
)

const (
	BookingCreated = "booking.created"
	BookingUpdated = "booking.updated"
	BookingDeleted = "booking.deleted"
)

// BookingEvent records a change in the booking ledger.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  uint      `json:"booking_id"`
	RoomID     uint      `json:"room_id"`
	UserID     uint      `json:"user_id"`
	Date       string    `json:"date"`
	ActorID    uint      `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev BookingEvent) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, BookingEvent) error { return nil }
func (NopPublisher) Close() error                               { return nil }

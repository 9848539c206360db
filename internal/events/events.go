// Package events fans out generation status changes to live subscribers.
package events

import (
	"context"
	"time"
)

// Event types
const (
	TypeStatus    = "status"
	TypeProgress  = "progress"
	TypeCompleted = "completed"
	TypeFailed    = "failed"
)

// Event is one status change of a generation, iteration or deployment
type Event struct {
	Type         string    `json:"type"`
	GenerationID string    `json:"generationId"`
	IterationID  string    `json:"iterationId,omitempty"`
	Status       string    `json:"status,omitempty"`
	Message      string    `json:"message,omitempty"`
	Time         time.Time `json:"time"`
}

// Bus delivers events for a generation id to everyone subscribed to it.
// Delivery is best effort: slow subscribers drop events instead of blocking publishers.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe returns a channel of events and a function that ends the subscription.
	// The channel is closed once the subscription ends or ctx is done.
	Subscribe(ctx context.Context, generationID string) (<-chan Event, func())
	Close() error
}

const subscriberBuffer = 16

package broker

import (
	"context"
)

// Event defines the message event interface
type Event interface {
	// Topic returns the queue or topic the event was received from
	Topic() string

	// Message returns the message associated with the event
	Message() *Message
	// RawMessage returns the original/raw message
	RawMessage() any

	// Ack acknowledges the message. It is the only way to remove a queued
	// message and is never retried.
	Ack() error

	// Error returns any error associated with the event
	Error() error
}

// Handler defines the handler invoked by listeners
type Handler func(ctx context.Context, evt Event) error

// MiddlewareFunc defines the middleware for handlers
type MiddlewareFunc func(Handler) Handler

// ChainMiddleware wraps h so that the first middleware runs outermost.
func ChainMiddleware(h Handler, mws ...MiddlewareFunc) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Package runtime defines the seams between channel transports and the
// orchestrator, and the dispatcher that serializes turns.
package runtime

import "context"

// Message is an inbound user message delivered by a channel transport.
type Message struct {
	Text string
}

// ResponseWriter sends assistant responses back to the active channel.
type ResponseWriter interface {
	WriteMessage(ctx context.Context, text string) error
}

// Handler processes one inbound message and writes the response.
type Handler interface {
	HandleMessage(ctx context.Context, w ResponseWriter, msg *Message) error
}

// Listener receives channel input and dispatches it to a Handler.
type Listener interface {
	Listen(ctx context.Context, handler Handler) error
}

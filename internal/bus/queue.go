package bus

import (
	"context"
	"log/slog"
	"sync"
)

// OutboundHandler is a callback for outbound messages on a specific channel.
type OutboundHandler func(ctx context.Context, msg *OutboundMessage) error

// MessageBus decouples chat channels from the download pipeline using Go
// channels.
type MessageBus struct {
	Inbound  chan *InboundMessage
	Outbound chan *OutboundMessage

	mu          sync.RWMutex
	subscribers map[string][]OutboundHandler
}

// NewMessageBus creates a new message bus with buffered channels.
func NewMessageBus() *MessageBus {
	return &MessageBus{
		Inbound:     make(chan *InboundMessage, 64),
		Outbound:    make(chan *OutboundMessage, 64),
		subscribers: make(map[string][]OutboundHandler),
	}
}

// PublishInbound sends a request from a channel to the pipeline.
func (b *MessageBus) PublishInbound(msg *InboundMessage) {
	b.Inbound <- msg
}

// PublishOutbound sends a reply from the pipeline to channels.
func (b *MessageBus) PublishOutbound(msg *OutboundMessage) {
	b.Outbound <- msg
}

// PublishOutboundWait sends a reply and blocks until the dispatcher has
// finished delivering it (or ctx is cancelled). Required for file uploads:
// the file lives in the request's scratch directory, which the caller
// removes as soon as it returns.
func (b *MessageBus) PublishOutboundWait(ctx context.Context, msg *OutboundMessage) {
	msg.done = make(chan struct{})
	b.Outbound <- msg
	select {
	case <-msg.done:
	case <-ctx.Done():
	}
}

// Subscribe registers a handler for outbound messages on a specific channel.
func (b *MessageBus) Subscribe(channel string, handler OutboundHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[channel] = append(b.subscribers[channel], handler)
}

// DispatchOutbound reads from the outbound queue and dispatches to
// subscribers. Blocks until ctx is cancelled.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.Outbound:
			b.mu.RLock()
			handlers := b.subscribers[msg.Channel]
			b.mu.RUnlock()
			for _, h := range handlers {
				if err := h(ctx, msg); err != nil {
					slog.Warn("dispatch outbound failed, attempting recovery", "channel", msg.Channel, "err", err)
					b.recoverSend(ctx, h, msg, err)
				}
			}
			if msg.done != nil {
				close(msg.done)
			}
		}
	}
}

// recoverSend tries fallback strategies when an outbound message fails to
// send. It degrades to progressively simpler messages and, as a last resort,
// sends a short error notification so the user knows something went wrong.
func (b *MessageBus) recoverSend(ctx context.Context, h OutboundHandler, original *OutboundMessage, originalErr error) {
	// Strategy 1: a file upload may be rejected (size caps, transient API
	// faults) — retry as plain text so the user at least gets the title.
	if original.FilePath != "" {
		noFile := &OutboundMessage{
			Channel: original.Channel,
			ChatID:  original.ChatID,
			Text:    "Upload failed. " + original.Caption,
		}
		if err := h(ctx, noFile); err == nil {
			slog.Info("recovery: sent without file attachment", "channel", original.Channel)
			return
		}
	}

	// Strategy 2: retry with truncated content.
	if len(original.Text) > 1500 {
		truncated := &OutboundMessage{
			Channel: original.Channel,
			ChatID:  original.ChatID,
			Text:    original.Text[:1500] + "\n\n[message truncated]",
		}
		if err := h(ctx, truncated); err == nil {
			slog.Info("recovery: sent truncated message", "channel", original.Channel)
			return
		}
	}

	// Strategy 3: a brief error notification.
	fallback := &OutboundMessage{
		Channel: original.Channel,
		ChatID:  original.ChatID,
		Text:    "Sorry, I ran into a technical issue and couldn't deliver the result. Please try again.",
	}
	if err := h(ctx, fallback); err != nil {
		slog.Error("recovery: all strategies failed, unable to notify user", "channel", original.Channel, "err", err)
	}
}

package bus

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime/debug"

	"github.com/ThreeDotsLabs/watermill/message"
)

// DomainHandler is the functional signature bus listeners implement.
type DomainHandler[T any] func(ctx context.Context, payload *T) error

// Bind connects Watermill to a typed listener, handling panic recovery and
// poison-pill protection. Decode failures are acked (a malformed message is
// a terminal state); listener errors are nacked to trigger the retry policy.
func Bind[T any](logger *slog.Logger, fn DomainHandler[T]) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("bus handler panic recovered",
					"err", r,
					"stack", string(debug.Stack()),
					"msg_id", msg.UUID)
			}
		}()

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.Error("bus message decode failed", "err", err, "msg_id", msg.UUID)
			return nil
		}

		return fn(msg.Context(), payload)
	}
}

package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface guard
var _ message.Subscriber = (*failingSubscriber)(nil)

// failingSubscriber stands in for a broker that is unreachable at startup.
type failingSubscriber struct{}

func (failingSubscriber) Subscribe(context.Context, string) (<-chan *message.Message, error) {
	return nil, errors.New("broker unreachable")
}

func (failingSubscriber) Close() error { return nil }

func TestStartRouterReportsRunning(t *testing.T) {
	router, err := NewRouter(watermill.NopLogger{})
	require.NoError(t, err)

	goch := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	router.AddNoPublisherHandler("noop", "some.topic", goch,
		func(*message.Message) error { return nil })

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, startRouter(context.Background(), router, runCtx))
	require.NoError(t, router.Close())
}

func TestStartRouterSurfacesEarlyRunFailure(t *testing.T) {
	router, err := NewRouter(watermill.NopLogger{})
	require.NoError(t, err)

	router.AddNoPublisherHandler("broken", "some.topic", failingSubscriber{},
		func(*message.Message) error { return nil })

	start := time.Now()
	err = startRouter(context.Background(), router, context.Background())

	require.Error(t, err)
	assert.ErrorContains(t, err, "router run")
	assert.ErrorContains(t, err, "broker unreachable")
	// The failure arrives promptly, not after a lifecycle timeout.
	assert.Less(t, time.Since(start), 5*time.Second)
}

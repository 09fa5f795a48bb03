package pubsub

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/opsboard/dashboard-stream-service/config"
)

// PubSub bundles the transport pair the bus router and the dispatcher use.
// With no broker configured both sides ride the in-process channel Pub/Sub,
// which keeps the single-node deployment free of external infrastructure.
type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

func NewPubSub(cfg *config.Config, wmLogger watermill.LoggerAdapter) (*PubSub, error) {
	if cfg.Bus.AMQPURL == "" {
		goch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, wmLogger)

		return &PubSub{Publisher: goch, Subscriber: goch}, nil
	}

	amqpConfig := amqp.NewDurablePubSubConfig(cfg.Bus.AMQPURL, amqp.GenerateQueueNameTopicNameWithSuffix("dashboard-stream"))

	pub, err := amqp.NewPublisher(amqpConfig, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("pubsub: amqp publisher: %w", err)
	}

	sub, err := amqp.NewSubscriber(amqpConfig, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("pubsub: amqp subscriber: %w", err)
	}

	return &PubSub{Publisher: pub, Subscriber: sub}, nil
}

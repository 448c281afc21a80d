package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"
)

// PubSubSender publishes notifications to the dispatch topic consumed by the
// mail worker.
type PubSubSender struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubSender constructs a Pub/Sub backed notification sender.
func NewPubSubSender(topic *pubsub.Topic) (*PubSubSender, error) {
	if topic == nil {
		return nil, errors.New("pubsub sender: topic is required")
	}
	return &PubSubSender{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// Send enqueues the rendered notification on the configured topic.
func (s *PubSubSender) Send(ctx context.Context, msg Message) error {
	if s == nil || s.topic == nil {
		return errors.New("pubsub sender: not initialised")
	}

	data, err := s.marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "userRef", msg.UserRef)
	setAttr(attrs, "referenceCode", msg.ReferenceCode)
	setAttr(attrs, "orderStatus", msg.OrderStatus)

	result := s.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func setAttr(attrs map[string]string, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}

var _ Sender = (*PubSubSender)(nil)

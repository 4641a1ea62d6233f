package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/greengate/backoffice/internal/services"
)

// PubSubMailPublisher publishes outbound mail to a Pub/Sub topic consumed by
// the delivery worker.
type PubSubMailPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubMailPublisher constructs a Pub/Sub backed mail publisher.
func NewPubSubMailPublisher(topic *pubsub.Topic) (*PubSubMailPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub mail publisher: topic is required")
	}
	return &PubSubMailPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishMail enqueues a mail message on the configured topic and returns the
// server-assigned message id.
func (p *PubSubMailPublisher) PublishMail(ctx context.Context, message services.MailMessage) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub mail publisher: not initialised")
	}
	if strings.TrimSpace(message.Recipient) == "" {
		return "", errors.New("pubsub mail publisher: recipient is required")
	}

	data, err := p.marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal mail message: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "recipient", message.Recipient)
	setAttr(attrs, "subject", message.Subject)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish mail message: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}

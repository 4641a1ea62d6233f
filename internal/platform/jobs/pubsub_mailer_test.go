package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/greengate/backoffice/internal/services"
)

func TestPubSubMailPublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "mail-dispatch")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubMailPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubMailPublisher: %v", err)
	}

	msg := services.MailMessage{
		Recipient: "shop@example.com",
		Subject:   "Price list: Summer 2025",
		HTMLBody:  "<h2>Summer 2025</h2>",
	}

	id, err := publisher.PublishMail(ctx, msg)
	if err != nil {
		t.Fatalf("PublishMail: %v", err)
	}
	if id == "" {
		t.Fatalf("expected a message id")
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload services.MailMessage
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Recipient != msg.Recipient || payload.HTMLBody != msg.HTMLBody {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["recipient"]; attr != "shop@example.com" {
		t.Fatalf("expected recipient attribute, got %q", attr)
	}
}

func TestPubSubMailPublisherRejectsEmptyRecipient(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "mail-dispatch")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubMailPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubMailPublisher: %v", err)
	}

	if _, err := publisher.PublishMail(ctx, services.MailMessage{Subject: "x"}); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
	if len(srv.Messages()) != 0 {
		t.Fatalf("no message may be published for invalid input")
	}
}

package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/slack-go/slack"

	"github.com/avezina/shiplift/internal/logging"
)

func TestDeployFinishedPostsAttachment(t *testing.T) {
	var gotURL string
	var gotMsg *slack.WebhookMessage

	n := New("https://hooks.slack.com/services/T/B/X", logging.DefaultLogger())
	n.post = func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
		gotURL = url
		gotMsg = msg
		return nil
	}

	ev := Event{
		Service:  "shop",
		Status:   "succeeded",
		ImageRef: "123.dkr.ecr.eu-west-1.amazonaws.com/shop:v3",
		Revision: "feedface",
		URL:      "https://shop.example.com/",
		Duration: 95 * time.Second,
	}
	if err := n.DeployFinished(context.Background(), ev); err != nil {
		t.Fatalf("DeployFinished: %v", err)
	}

	if gotURL != "https://hooks.slack.com/services/T/B/X" {
		t.Errorf("url = %q", gotURL)
	}
	if len(gotMsg.Attachments) != 1 {
		t.Fatalf("attachments = %d", len(gotMsg.Attachments))
	}
	att := gotMsg.Attachments[0]
	if att.Color != "good" || !strings.Contains(att.Title, "succeeded") {
		t.Errorf("attachment = color %q title %q", att.Color, att.Title)
	}
	var haveURL bool
	for _, f := range att.Fields {
		if f.Title == "URL" && f.Value == ev.URL {
			haveURL = true
		}
	}
	if !haveURL {
		t.Errorf("URL field missing: %+v", att.Fields)
	}
}

func TestDeployFinishedFailureUsesDangerColor(t *testing.T) {
	var gotMsg *slack.WebhookMessage
	n := New("https://hooks.example/x", logging.DefaultLogger())
	n.post = func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
		gotMsg = msg
		return nil
	}

	ev := Event{Service: "shop", Status: "failed", Error: "step push: registry unreachable"}
	if err := n.DeployFinished(context.Background(), ev); err != nil {
		t.Fatalf("DeployFinished: %v", err)
	}
	att := gotMsg.Attachments[0]
	if att.Color != "danger" || !strings.Contains(att.Title, "failed") {
		t.Errorf("attachment = color %q title %q", att.Color, att.Title)
	}
}

func TestDeployFinishedNoWebhookIsNoop(t *testing.T) {
	n := New("", logging.DefaultLogger())
	n.post = func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
		t.Fatal("post must not be called without a webhook")
		return nil
	}
	if err := n.DeployFinished(context.Background(), Event{Service: "shop"}); err != nil {
		t.Fatalf("DeployFinished: %v", err)
	}
}

func TestDeployFinishedPropagatesPostError(t *testing.T) {
	n := New("https://hooks.example/x", logging.DefaultLogger())
	n.post = func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
		return errors.New("429 rate limited")
	}
	if err := n.DeployFinished(context.Background(), Event{Service: "shop"}); err == nil {
		t.Fatal("expected post error to propagate")
	}
}

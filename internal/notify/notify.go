// Package notify posts deployment outcomes to a Slack incoming webhook.
// Notification failures are reported to the caller but are not a reason to
// fail a deploy.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/slack-go/slack"

	"github.com/avezina/shiplift/internal/logging"
)

// Event is one finished deployment, success or failure.
type Event struct {
	Service  string
	Status   string
	ImageRef string
	Revision string
	URL      string
	Error    string
	Duration time.Duration
}

// poster abstracts the webhook call, enabling test fakes.
type poster func(ctx context.Context, url string, msg *slack.WebhookMessage) error

type Notifier struct {
	webhookURL string
	post       poster
	log        logging.Logger
}

func New(webhookURL string, log logging.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		post:       slack.PostWebhookContext,
		log:        log.WithName("notify"),
	}
}

// DeployFinished posts the outcome. Without a configured webhook it is a
// no-op.
func (n *Notifier) DeployFinished(ctx context.Context, ev Event) error {
	if n.webhookURL == "" {
		return nil
	}

	color := "good"
	title := fmt.Sprintf("Deploy succeeded: %s", ev.Service)
	if ev.Error != "" {
		color = "danger"
		title = fmt.Sprintf("Deploy failed: %s", ev.Service)
	}

	fields := []slack.AttachmentField{
		{Title: "Image", Value: ev.ImageRef, Short: false},
		{Title: "Revision", Value: ev.Revision, Short: true},
		{Title: "Duration", Value: ev.Duration.Round(time.Second).String(), Short: true},
	}
	if ev.URL != "" {
		fields = append(fields, slack.AttachmentField{Title: "URL", Value: ev.URL, Short: false})
	}
	if ev.Error != "" {
		fields = append(fields, slack.AttachmentField{Title: "Error", Value: ev.Error, Short: false})
	}

	msg := &slack.WebhookMessage{
		Attachments: []slack.Attachment{{
			Color:  color,
			Title:  title,
			Fields: fields,
		}},
	}

	if err := n.post(ctx, n.webhookURL, msg); err != nil {
		return fmt.Errorf("notify: post webhook: %w", err)
	}
	n.log.Info("deployment notification sent", "service", ev.Service, "status", ev.Status)
	return nil
}

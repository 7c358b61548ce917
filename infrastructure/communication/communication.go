package communication

import (
	"fmt"

	"github.com/slack-go/slack"
)

// Notifier posts operational messages for the team.
type Notifier interface {
	Info(message string) error
	Error(message string) error
}

type Slack struct {
	client  *slack.Client
	options SlackOption
}

type SlackOption struct {
	InfoChannelID  string
	ErrorChannelID string
}

// ConnectSlack returns a Slack notifier, or a no-op one when no token is configured.
func ConnectSlack(token string, options SlackOption) Notifier {
	if token == "" {
		return NopNotifier{}
	}
	return NewSlack(token, options)
}

func NewSlack(token string, options SlackOption, opts ...slack.Option) *Slack {
	client := slack.New(token, opts...)
	return &Slack{client: client, options: options}
}

func (s *Slack) postMessage(channelID, message string) error {
	if channelID == "" {
		return nil
	}
	_, _, err := s.client.PostMessage(
		channelID,
		slack.MsgOptionText(message, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return fmt.Errorf("failed to post message to Slack: %w", err)
	}
	return nil
}

func (s *Slack) Info(message string) error {
	return s.postMessage(s.options.InfoChannelID, message)
}

func (s *Slack) Error(message string) error {
	return s.postMessage(s.options.ErrorChannelID, message)
}

type NopNotifier struct{}

func (NopNotifier) Info(string) error  { return nil }
func (NopNotifier) Error(string) error { return nil }

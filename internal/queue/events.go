package queue

import (
	"encoding/json"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/lantern-kg/lantern/pkg/activity"
	"github.com/lantern-kg/lantern/pkg/logger"
)

// Event topics on the events exchange.
const (
	TopicActivityAdded   = "activity.added"
	TopicActivityRemoved = "activity.removed"
	TopicNotification    = "notification"
)

// ActivityEvent mirrors one tracker signal.
type ActivityEvent struct {
	Label string    `json:"label"`
	At    time.Time `json:"at"`
}

// Notification is a user-visible notice from a background job.
type Notification struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Relay is a Tracker that forwards every signal to an inner tracker and
// mirrors it onto the events exchange. Publishing is fire-and-forget: a
// broken channel degrades to local-only tracking.
type Relay struct {
	inner activity.Tracker
	ch    *amqp091.Channel
}

var _ activity.Tracker = (*Relay)(nil)

// NewRelay wraps inner with event publishing over ch.
func NewRelay(inner activity.Tracker, ch *amqp091.Channel) *Relay {
	return &Relay{inner: inner, ch: ch}
}

func (r *Relay) Add(label string) {
	r.inner.Add(label)
	publishEvent(r.ch, TopicActivityAdded, ActivityEvent{Label: label, At: time.Now().UTC()})
}

func (r *Relay) Remove(label string) {
	r.inner.Remove(label)
	publishEvent(r.ch, TopicActivityRemoved, ActivityEvent{Label: label, At: time.Now().UTC()})
}

// PublishNotification sends a user-visible notice to the events
// exchange. Failures are logged and swallowed.
func PublishNotification(ch *amqp091.Channel, level string, message string) {
	publishEvent(ch, TopicNotification, Notification{
		Level:   level,
		Message: message,
		At:      time.Now().UTC(),
	})
}

func publishEvent(ch *amqp091.Channel, topic string, payload any) {
	if ch == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("[Queue] Failed to marshal event", "topic", topic, "err", err)
		return
	}
	if err := PublishTopic(ch, topic, data); err != nil {
		logger.Error("[Queue] Failed to publish event", "topic", topic, "err", err)
	}
}

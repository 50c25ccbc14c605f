// notify/notify.go
package notify

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/ponghub/matchserver/logger"
)

// Event types delivered through the platform's notification channel.
const (
	EventInviteCustomGame = "INVITE_CUSTOM_GAME"
	EventDeclinedInvite   = "DECLINED_INVITE"
	EventLeftGame         = "LEFT_GAME"
)

// Notifier delivers a per-user event. Best effort: delivery is not
// guaranteed and must never block match logic.
type Notifier interface {
	NotifyUser(userID int64, eventType string, payload interface{})
}

type message struct {
	Type    string      `json:"type"`
	UserID  int64       `json:"user_id"`
	Payload interface{} `json:"payload,omitempty"`
}

// NATSNotifier publishes notification events to notify.user.<id>; the
// platform's notification gateway subscribes and forwards them to the
// user's sockets.
type NATSNotifier struct {
	conn *nats.Conn
}

func NewNATSNotifier(url string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url, nats.Name("matchserver"))
	if err != nil {
		return nil, fmt.Errorf("nats connect failed: %w", err)
	}
	return &NATSNotifier{conn: conn}, nil
}

func (n *NATSNotifier) NotifyUser(userID int64, eventType string, payload interface{}) {
	data, err := json.Marshal(message{Type: eventType, UserID: userID, Payload: payload})
	if err != nil {
		logger.Log.Errorf("notify: failed to marshal %s for user %d: %v", eventType, userID, err)
		return
	}
	subject := fmt.Sprintf("notify.user.%d", userID)
	if err := n.conn.Publish(subject, data); err != nil {
		logger.Log.Warnf("notify: publish %s to %s failed: %v", eventType, subject, err)
	}
}

func (n *NATSNotifier) Close() {
	n.conn.Drain()
}

package messaging

import (
	"fmt"
)

// SessionSubject is the subject a session's battle log lines are published on.
func SessionSubject(sessionID string) string {
	return fmt.Sprintf("session-%s", sessionID)
}

// NatsPublisher publishes battle log lines to per-session NATS subjects.
type NatsPublisher struct {
	server *NatsServer
}

func NewNatsPublisher(server *NatsServer) *NatsPublisher {
	return &NatsPublisher{server: server}
}

func (p *NatsPublisher) PublishToSession(sessionID string, data []byte) error {
	return p.server.Publish(SessionSubject(sessionID), data)
}

// SubscribeSession delivers every line published for sessionID to handler.
func (p *NatsPublisher) SubscribeSession(sessionID string, handler func(data []byte)) (func(), error) {
	return p.server.Subscribe(SessionSubject(sessionID), handler)
}

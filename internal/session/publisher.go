package session

// Publisher delivers rendered battle log lines to whoever is watching a session.
type Publisher interface {
	PublishToSession(sessionID string, data []byte) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(sessionID string, data []byte) error

func (f PublisherFunc) PublishToSession(sessionID string, data []byte) error {
	return f(sessionID, data)
}

type nopPublisher struct{}

func (nopPublisher) PublishToSession(string, []byte) error { return nil }

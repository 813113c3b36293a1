package transport

// Handler processes a message delivered on a topic.
type Handler func(payload []byte)

// Transport is the message channel between the two nodes: reliable and
// ordered within a topic, asynchronous, fire-and-forget from the sender's
// perspective.
type Transport interface {
	// OnMessage registers the handler for a topic, replacing any previous
	// registration for that topic.
	OnMessage(topic string, handler Handler) error

	// Send publishes a payload on a topic. A returned error reports a local
	// publish failure only; there is no delivery acknowledgement.
	Send(topic string, payload []byte) error
}

package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/geolink/edge-locator/pkg/file"
)

// MQTTClient defines the subset of the paho client used by the transport.
type MQTTClient interface {
	Connect() MQTT.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) MQTT.Token
	Subscribe(topic string, qos byte, callback MQTT.MessageHandler) MQTT.Token
	Unsubscribe(topics ...string) MQTT.Token
	Disconnect(quiesce uint)
}

// MQTTTransport implements Transport over an MQTT broker connection.
type MQTTTransport struct {
	client     MQTTClient
	fileClient file.FileOperations
	qos        byte
	handlers   cmap.ConcurrentMap[string, Handler]
	logger     zerolog.Logger
}

// NewMQTTTransport creates an unconnected MQTT transport.
func NewMQTTTransport(qos byte, fileClient file.FileOperations, logger zerolog.Logger) *MQTTTransport {
	return &MQTTTransport{
		fileClient: fileClient,
		qos:        qos,
		handlers:   cmap.New[Handler](),
		logger:     logger,
	}
}

// Initialize sets up the MQTT client and connects to the broker. When
// caCertPath is non-empty the connection uses TLS with that CA.
func (t *MQTTTransport) Initialize(broker, clientID, caCertPath string) error {
	opts := MQTT.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetOrderMatters(true)

	if caCertPath != "" {
		caCert, err := t.fileClient.ReadFileRaw(caCertPath)
		if err != nil {
			return fmt.Errorf("failed to read CA certificate: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return fmt.Errorf("failed to append CA certificate")
		}
		opts.SetTLSConfig(&tls.Config{RootCAs: caCertPool})
	}

	t.client = MQTT.NewClient(opts)

	token := t.client.Connect()
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}

	t.logger.Info().Str("broker", broker).Str("client_id", clientID).Msg("MQTT transport connected")
	return nil
}

// SetClient injects a pre-built client. Used by tests.
func (t *MQTTTransport) SetClient(client MQTTClient) {
	t.client = client
}

// OnMessage registers the handler for a topic and subscribes to it. The
// handler for a topic can be replaced without resubscribing.
func (t *MQTTTransport) OnMessage(topic string, handler Handler) error {
	_, alreadySubscribed := t.handlers.Get(topic)
	t.handlers.Set(topic, handler)

	if alreadySubscribed {
		return nil
	}

	token := t.client.Subscribe(topic, t.qos, func(_ MQTT.Client, msg MQTT.Message) {
		h, ok := t.handlers.Get(msg.Topic())
		if !ok {
			t.logger.Warn().Str("topic", msg.Topic()).Msg("Message received on topic with no handler")
			return
		}
		h(msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, token.Error())
	}

	t.logger.Debug().Str("topic", topic).Msg("Subscribed to topic")
	return nil
}

// Send publishes the payload on the topic.
func (t *MQTTTransport) Send(topic string, payload []byte) error {
	token := t.client.Publish(topic, t.qos, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}
	return nil
}

// Disconnect gracefully closes the broker connection.
func (t *MQTTTransport) Disconnect(quiesce uint) {
	if t.client != nil {
		t.client.Disconnect(quiesce)
	}
}

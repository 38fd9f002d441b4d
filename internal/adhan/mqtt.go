package adhan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// MQTTNotifier publishes events as JSON to an MQTT topic.
type MQTTNotifier struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

// NewMQTTNotifier connects to broker (e.g. "tcp://localhost:1883").
func NewMQTTNotifier(broker, topic, clientID string, logger zerolog.Logger) (*MQTTNotifier, error) {
	log := logger.With().Str("component", "mqtt").Logger()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", broker).Msg("connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return newMQTTNotifier(client, topic), nil
}

func newMQTTNotifier(client mqtt.Client, topic string) *MQTTNotifier {
	return &MQTTNotifier{client: client, topic: topic, timeout: 5 * time.Second}
}

// Notify implements Notifier.
func (n *MQTTNotifier) Notify(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	token := n.client.Publish(n.topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(n.timeout):
		return fmt.Errorf("mqtt publish to %s timed out", n.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() error {
	n.client.Disconnect(250)
	return nil
}

// Package publish forwards temperature extremes to an MQTT broker.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"

	"github.com/i474232898/smhi-observations/internal/weather"
)

// Message is the JSON document published for each run.
type Message struct {
	Timestamp time.Time                      `json:"timestamp"`
	Stations  int                            `json:"stations"`
	Highest   weather.TemperatureObservation `json:"highest"`
	Lowest    weather.TemperatureObservation `json:"lowest"`
}

// NewMessage builds the payload for ext at time ts.
func NewMessage(ext weather.Extremes, ts time.Time) Message {
	return Message{
		Timestamp: ts.UTC(),
		Stations:  ext.Stations,
		Highest:   ext.Highest,
		Lowest:    ext.Lowest,
	}
}

// MQTTConfig names the broker, client id and topic to publish to.
type MQTTConfig struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
	Topic    string
}

// MQTTPublisher publishes extremes with QoS 1, not retained.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger
	now    func() time.Time
}

// NewMQTTPublisher configures a client; call Connect before publishing.
func NewMQTTPublisher(cfg MQTTConfig, logger *slog.Logger) *MQTTPublisher {
	if logger == nil {
		logger = slog.Default()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("mqtt connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "err", err)
	})

	return &MQTTPublisher{
		client: mqtt.NewClient(opts),
		topic:  cfg.Topic,
		logger: logger,
		now:    time.Now,
	}
}

// Connect waits for the initial broker connection, honouring ctx.
func (p *MQTTPublisher) Connect(ctx context.Context) error {
	if p.client.IsConnected() {
		return nil
	}
	return wait(ctx, p.client.Connect(), "mqtt connect")
}

// Publish sends ext to the configured topic.
func (p *MQTTPublisher) Publish(ctx context.Context, ext weather.Extremes) error {
	payload, err := json.Marshal(NewMessage(ext, p.now()))
	if err != nil {
		return fmt.Errorf("encode extremes: %w", err)
	}

	if err := wait(ctx, p.client.Publish(p.topic, 1, false, payload), "mqtt publish"); err != nil {
		return err
	}
	p.logger.Debug("published extremes", "topic", p.topic, "bytes", len(payload))
	return nil
}

// Close disconnects, allowing in-flight messages a short grace period.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

func wait(ctx context.Context, token mqtt.Token, op string) error {
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

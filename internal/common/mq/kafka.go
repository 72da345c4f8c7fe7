package mq

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	headerID          = "x-message-id"
	headerTimestamp   = "x-message-ts"
	headerContentType = "content-type"
)

// KafkaConfig defines configuration for the Kafka connector.
type KafkaConfig struct {
	Brokers  []string `yaml:"brokers"`
	ClientID string   `yaml:"clientId"`
	Topic    string   `yaml:"topic"`

	// Producer settings
	RequiredAcks kafka.RequiredAcks `yaml:"requiredAcks"`
	BatchTimeout time.Duration      `yaml:"batchTimeout"`

	// Dialer settings
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// KafkaConnector publishes to a single topic. Connect dials a broker to
// verify reachability before handing out a writer.
type KafkaConnector struct {
	config KafkaConfig
	dialer *kafka.Dialer
}

// NewKafkaConnector validates cfg and applies defaults.
func NewKafkaConnector(cfg KafkaConfig) (*KafkaConnector, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic is required")
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.RequiredAcks == 0 {
		cfg.RequiredAcks = kafka.RequireOne
	}

	return &KafkaConnector{
		config: cfg,
		dialer: &kafka.Dialer{
			ClientID:  cfg.ClientID,
			Timeout:   cfg.DialTimeout,
			DualStack: true,
		},
	}, nil
}

// Name implements Connector.
func (k *KafkaConnector) Name() string {
	return "kafka:" + k.config.Topic
}

// Connect implements Connector.
func (k *KafkaConnector) Connect(ctx context.Context) (Channel, error) {
	var lastErr error
	reachable := false
	for _, broker := range k.config.Brokers {
		conn, err := k.dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		_ = conn.Close()
		reachable = true
		break
	}
	if !reachable {
		return nil, fmt.Errorf("dial kafka failed: %w", lastErr)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(k.config.Brokers...),
		Topic:        k.config.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: k.config.RequiredAcks,
		BatchSize:    1,
		BatchTimeout: k.config.BatchTimeout,
		WriteTimeout: k.config.WriteTimeout,
		Transport: &kafka.Transport{
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				return k.dialer.DialContext(ctx, network, address)
			},
			ClientID: k.config.ClientID,
		},
	}
	return &kafkaChannel{writer: writer}, nil
}

type kafkaChannel struct {
	writer *kafka.Writer
}

func (c *kafkaChannel) Publish(ctx context.Context, message *Message) error {
	if message == nil {
		return errors.New("message is nil")
	}
	return c.writer.WriteMessages(ctx, toKafkaMessage(message))
}

func (c *kafkaChannel) Close() error {
	return c.writer.Close()
}

func toKafkaMessage(message *Message) kafka.Message {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	headers := make([]kafka.Header, 0, len(message.Headers)+3)
	for k, v := range message.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	if message.ID != "" {
		headers = append(headers, kafka.Header{Key: headerID, Value: []byte(message.ID)})
	}
	if message.ContentType != "" {
		headers = append(headers, kafka.Header{Key: headerContentType, Value: []byte(message.ContentType)})
	}
	headers = append(headers, kafka.Header{Key: headerTimestamp, Value: []byte(message.Timestamp.Format(time.RFC3339Nano))})

	return kafka.Message{
		Key:     []byte(message.ID),
		Value:   message.Body,
		Headers: headers,
		Time:    message.Timestamp,
	}
}

package mq

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPConfig defines configuration for the RabbitMQ connector.
type AMQPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Vhost    string `yaml:"vhost"`

	Exchange     string `yaml:"exchange"`
	ExchangeType string `yaml:"exchangeType"`
	Queue        string `yaml:"queue"`
	RoutingKey   string `yaml:"routingKey"`

	DialTimeout time.Duration `yaml:"dialTimeout"`
}

// AMQPConnector declares a durable exchange and a durable queue bound to it,
// then publishes persistent messages with the configured routing key.
type AMQPConnector struct {
	config AMQPConfig
	uri    string
}

// NewAMQPConnector validates cfg and applies defaults.
func NewAMQPConnector(cfg AMQPConfig) (*AMQPConnector, error) {
	if cfg.Host == "" {
		return nil, errors.New("broker host is required")
	}
	if cfg.Queue == "" {
		return nil, errors.New("queue is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 5672
	}
	if cfg.User == "" {
		cfg.User = "guest"
		cfg.Password = "guest"
	}
	if cfg.ExchangeType == "" {
		cfg.ExchangeType = amqp.ExchangeDirect
	}
	if cfg.RoutingKey == "" {
		cfg.RoutingKey = cfg.Queue
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	return &AMQPConnector{
		config: cfg,
		uri:    buildMQURI(cfg.Host, cfg.User, cfg.Password, cfg.Vhost, cfg.Port),
	}, nil
}

func buildMQURI(host, user, password, vhost string, port int) string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(user, password),
		Host:   fmt.Sprintf("%s:%d", host, port),
		Path:   "/" + vhost,
	}
	return u.String()
}

// Name implements Connector.
func (c *AMQPConnector) Name() string {
	return "rabbitmq:" + c.config.Queue
}

// Connect implements Connector.
func (c *AMQPConnector) Connect(ctx context.Context) (Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := amqp.DialConfig(c.uri, amqp.Config{
		Dial: amqp.DefaultDial(c.config.DialTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("dial broker failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel failed: %w", err)
	}

	if c.config.Exchange != "" {
		if err := ch.ExchangeDeclare(
			c.config.Exchange,     // name
			c.config.ExchangeType, // kind
			true,                  // durable
			false,                 // auto-deleted
			false,                 // internal
			false,                 // noWait
			nil,                   // arguments
		); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("declare exchange failed: %w", err)
		}
	}
	if _, err := ch.QueueDeclare(
		c.config.Queue, // name
		true,           // durable
		false,          // auto-deleted
		false,          // exclusive
		false,          // noWait
		nil,            // arguments
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue failed: %w", err)
	}
	if c.config.Exchange != "" {
		if err := ch.QueueBind(c.config.Queue, c.config.RoutingKey, c.config.Exchange, false, nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("bind queue failed: %w", err)
		}
	}

	return &amqpChannel{
		conn:       conn,
		ch:         ch,
		exchange:   c.config.Exchange,
		routingKey: c.config.RoutingKey,
	}, nil
}

type amqpChannel struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	exchange   string
	routingKey string
}

func (a *amqpChannel) Publish(ctx context.Context, message *Message) error {
	if message == nil {
		return errors.New("message is nil")
	}
	if a.conn.IsClosed() {
		return amqp.ErrClosed
	}
	return a.ch.PublishWithContext(
		ctx,
		a.exchange,
		a.routingKey,
		false, // mandatory
		false, // immediate
		toAMQPPublishing(message),
	)
}

func (a *amqpChannel) Close() error {
	chErr := a.ch.Close()
	connErr := a.conn.Close()
	if errors.Is(chErr, amqp.ErrClosed) {
		chErr = nil
	}
	if errors.Is(connErr, amqp.ErrClosed) {
		connErr = nil
	}
	return errors.Join(chErr, connErr)
}

func toAMQPPublishing(message *Message) amqp.Publishing {
	headers := amqp.Table{}
	for k, v := range message.Headers {
		headers[k] = v
	}
	return amqp.Publishing{
		Headers:         headers,
		ContentType:     message.ContentType,
		ContentEncoding: "UTF-8",
		DeliveryMode:    amqp.Persistent,
		MessageId:       message.ID,
		Timestamp:       message.Timestamp,
		Body:            message.Body,
	}
}

package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// AMQPMailer publishes messages to a durable outbox queue drained by the external
// transactional email sender.
type AMQPMailer struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  zerolog.Logger
}

// NewAMQPMailer dials the broker and declares the outbox queue.
func NewAMQPMailer(url, queue string, logger zerolog.Logger) (*AMQPMailer, error) {
	if url == "" {
		return nil, fmt.Errorf("amqp url must not be empty")
	}
	if queue == "" {
		return nil, fmt.Errorf("amqp queue must not be empty")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to amqp broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}

	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare outbox queue: %w", err)
	}

	return &AMQPMailer{
		conn:    conn,
		channel: channel,
		queue:   queue,
		logger:  logger.With().Str("component", "amqp_mailer").Logger(),
	}, nil
}

// Send publishes msg as a persistent JSON message.
func (m *AMQPMailer) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: encode message: %v", ErrPermanent, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = m.channel.PublishWithContext(publishCtx, "", m.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         msg.TemplateName,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish email to outbox: %w", err)
	}

	m.logger.Debug().Str("template", msg.TemplateName).Msg("email queued")
	return nil
}

// Close releases the channel and connection.
func (m *AMQPMailer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.channel.Close(); err != nil {
		_ = m.conn.Close()
		return err
	}
	return m.conn.Close()
}

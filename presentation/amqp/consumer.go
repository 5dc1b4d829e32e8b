package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/glekoz/grayscale_image/internal/models"
)

const prefetchCount = 4

type AppAPI interface {
	ProcessedConvert(ctx context.Context, m models.ConvertImageMessage) error
}

// Consumer reads ConvertImageMessages off the convert queue and feeds
// them to the application. One consumer per process is enough, the
// prefetch window is what bounds concurrent deliveries.
type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	app  AppAPI
	log  *slog.Logger
}

func NewConsumer(url string, app AppAPI, log *slog.Logger) (*Consumer, error) {
	loc := "Consumer.NewConsumer"
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, models.NewError(loc, url, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, models.NewError(loc, "channel", err)
	}
	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		conn.Close()
		return nil, models.NewError(loc, "qos", err)
	}
	if _, err := ch.QueueDeclare(models.QueueConvert, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, models.NewError(loc, models.QueueConvert, err)
	}
	return &Consumer{conn: conn, ch: ch, app: app, log: log}, nil
}

// Run blocks until ctx is cancelled or the channel dies.
func (c *Consumer) Run(ctx context.Context) error {
	loc := "Consumer.Run"
	deliveries, err := c.ch.Consume(models.QueueConvert, "", false, false, false, false, nil)
	if err != nil {
		return models.NewError(loc, models.QueueConvert, err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return models.NewError(loc, "deliveries channel closed", models.ErrNetworkAction)
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var m models.ConvertImageMessage
	if err := json.Unmarshal(d.Body, &m); err != nil {
		c.log.Warn("dropping malformed message", "err", err)
		d.Nack(false, false)
		return
	}
	err := c.app.ProcessedConvert(ctx, m)
	switch {
	case err == nil:
		d.Ack(false)
	case errors.Is(err, models.ErrDoNotRetry):
		c.log.Error("conversion failed, not retrying", "image", m.ImageID, "err", err)
		d.Nack(false, false)
	case errors.Is(err, models.ErrDoRetry),
		errors.Is(err, models.ErrNetworkAction),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		// transient or shutdown, let another consumer pick it up
		d.Nack(false, true)
	default:
		c.log.Error("conversion failed", "image", m.ImageID, "err", err)
		d.Nack(false, false)
	}
}

func (c *Consumer) Close() error {
	return c.conn.Close()
}

package amqp

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/glekoz/grayscale_image/internal/models"
)

// Publisher pushes JSON messages to named durable queues. It satisfies
// the application's QueueAPI.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	loc := "Publisher.NewPublisher"
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, models.NewError(loc, url, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, models.NewError(loc, "channel", err)
	}
	for _, queue := range []string{models.QueueConvert, models.QueueEvents} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			conn.Close()
			return nil, models.NewError(loc, queue, err)
		}
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

func (p *Publisher) Publish(ctx context.Context, queue string, body []byte) error {
	loc := "Publisher.Publish"
	err := p.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return models.NewError(loc, queue, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}

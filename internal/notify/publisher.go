package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher fans a notification out beyond the ledger.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
	Close() error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Notification) error { return nil }
func (nopPublisher) Close() error { return nil }

func NopPublisher() Publisher { return nopPublisher{} }

// AMQPPublisher sends each notification to a topic exchange with routing key
// "result.<teacherID>".
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
}

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// NewAMQPPublisher dials url and declares the exchange. An empty url yields
// the no-op publisher.
func NewAMQPPublisher(url, exchange string) (Publisher, error) {
	if url == "" {
		log.Println("notify: AMQP_URL empty, result publishing disabled")
		return NopPublisher(), nil
	}
	if exchange == "" {
		exchange = "quiz.results"
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	log.Printf("notify: publishing results to exchange %s", exchange)
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func RoutingKey(n Notification) string { return "result." + n.TeacherID }

func (p *AMQPPublisher) Publish(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx, p.exchange, RoutingKey(n), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.UnixMilli(n.Timestamp),
		MessageId:    n.ID,
		Body:         body,
		Headers: amqp.Table{
			"teacher_id": n.TeacherID,
			"student_id": n.StudentID,
		},
	})
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

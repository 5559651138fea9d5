package rabbitmq

import (
	"github.com/streadway/amqp"
)

const exchange = "messages"

// RabbitMQ feeds push requests published by other services into this
// process. Every instance binds its own exclusive queue to the exchange.
type RabbitMQ struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	q    amqp.Queue
}

func New(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, err
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = ch.QueueBind(q.Name, "", exchange, false, nil)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &RabbitMQ{conn: conn, ch: ch, q: q}, nil
}

func (r *RabbitMQ) Consume() (<-chan amqp.Delivery, error) {
	return r.ch.Consume(r.q.Name, "", false, true, false, false, nil)
}

func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}

package queue

import (
	"fmt"
	"time"

	"docgraph/internal/util"
	"docgraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// IngestQueue is the work queue consumed by ingestion workers.
const IngestQueue = "ingest_queue"

const (
	retryTTLMs  = 10000
	maxRetries  = 3
	retrySuffix = "_retry"
	dlqSuffix   = "_dlq"
)

// Init connects to RabbitMQ using the connection settings from the
// environment. Missing settings are fatal.
func Init() *amqp091.Connection {
	user := util.MustGetEnv("RABBITMQ_USER")
	pass := util.MustGetEnv("RABBITMQ_PASSWORD")
	host := util.MustGetEnv("RABBITMQ_HOST")
	port := util.MustGetEnv("RABBITMQ_PORT")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// SetupQueues declares the ingest queue with its retry and dead-letter
// companions. The retry queue dead-letters back into the work queue after
// a fixed TTL; messages that exhaust their retries land in the DLQ.
func SetupQueues(ch *amqp091.Channel) error {
	queues := []string{IngestQueue}
	for _, name := range queues {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", name, "err", err)
		}

		dlqName := name + dlqSuffix
		_, err = ch.QueueDeclare(
			dlqName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", dlqName, "err", err)
		}

		retryName := name + retrySuffix
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(retryTTLMs),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", retryName, "err", err)
		}
	}

	return nil
}

// PublishFIFO publishes a persistent message directly to the named queue.
func PublishFIFO(ch *amqp091.Channel, queueName string, data []byte) error {
	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	err = ch.Publish(
		"",
		q.Name,
		false,
		false,
		publishing,
	)
	if err != nil {
		return err
	}

	return nil
}

// RetryOrDeadLetter routes a failed message: back through the retry queue
// while attempts remain, to the DLQ once they are exhausted. The retry
// count travels in a message header.
func RetryOrDeadLetter(ch *amqp091.Channel, queueName string, msg amqp091.Delivery) error {
	retries := int32(0)
	if raw, ok := msg.Headers["x-retry-count"]; ok {
		if count, ok := raw.(int32); ok {
			retries = count
		}
	}

	target := queueName + retrySuffix
	if retries >= maxRetries {
		target = queueName + dlqSuffix
		logger.Warn("[Queue] Message exhausted retries", "queue", queueName, "retries", retries)
	}

	publishing := amqp091.Publishing{
		ContentType:  msg.ContentType,
		Body:         msg.Body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Headers: amqp091.Table{
			"x-retry-count": retries + 1,
		},
	}

	return ch.Publish("", target, false, false, publishing)
}

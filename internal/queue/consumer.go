package queue

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const auditLogPath = "logs/reservations.log"

// StartReservationConsumer connects to RabbitMQ, declares the durable
// reservation.events queue, and consumes messages indefinitely. Each event
// is appended to logs/reservations.log as a single human-readable line.
// The function runs a reconnect loop with exponential backoff and never
// returns under normal operation; processing errors are logged and the
// offending message rejected without requeue so the consumer keeps going.
func StartReservationConsumer() error {
	url := brokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("reservation-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("reservation-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("reservation-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(eventsQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(eventsQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("reservation-consumer: handle message failed: %v", err)
			_ = d.Reject(false)
			continue
		}
		_ = d.Ack(false)
	}
	return fmt.Errorf("delivery channel closed")
}

// handleMessage decodes one envelope and appends a log line for it.
func handleMessage(body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	var line string
	switch env.Kind {
	case "reservation.booked":
		var evt ReservationBookedEvent
		if err := json.Unmarshal(env.Payload, &evt); err != nil {
			return fmt.Errorf("decode booked event: %w", err)
		}
		line = fmt.Sprintf("%s booked reservation=%d user=%d seat=%d date=%s slot=%s-%s",
			evt.BookedAt, evt.ReservationID, evt.UserID, evt.SeatID,
			evt.ReservedDate, evt.StartTime, evt.EndTime)
	case "reservation.canceled":
		var evt ReservationCanceledEvent
		if err := json.Unmarshal(env.Payload, &evt); err != nil {
			return fmt.Errorf("decode canceled event: %w", err)
		}
		line = fmt.Sprintf("%s canceled reservation=%d", evt.CanceledAt, evt.ReservationID)
	default:
		return fmt.Errorf("unknown event kind %q", env.Kind)
	}
	return appendAuditLine(line)
}

func appendAuditLine(line string) error {
	if err := os.MkdirAll(filepath.Dir(auditLogPath), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(auditLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write log line: %w", err)
	}
	return nil
}

package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// StartActivityConsumer connects to RabbitMQ, declares the
// entry.tracked and entry.removed queues (durable), and starts
// consuming messages. Each message is appended to logs/activity.log
// in a single-line, human-friendly format. The function runs a
// reconnect loop; it keeps running and logs any processing errors
// while rejecting the offending message so the server continues
// operating.
func StartActivityConsumer() error {
    url := brokerURL()

    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("activity-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn); err != nil {
            log.Printf("activity-consumer: consume loop ended: %v; reconnecting", err)
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
        log.Printf("activity-consumer: set QoS failed: %v", err)
    }

    for _, name := range []string{trackedQueueName, removedQueueName} {
        if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", name, err)
        }
    }

    tracked, err := ch.Consume(trackedQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("consume %s: %w", trackedQueueName, err)
    }
    removed, err := ch.Consume(removedQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("consume %s: %w", removedQueueName, err)
    }

    for {
        select {
        case d, ok := <-tracked:
            if !ok {
                return errors.New("tracked deliveries channel closed")
            }
            handleDelivery(d, handleTracked)
        case d, ok := <-removed:
            if !ok {
                return errors.New("removed deliveries channel closed")
            }
            handleDelivery(d, handleRemoved)
        }
    }
}

func handleDelivery(d amqp.Delivery, handle func([]byte) error) {
    if err := handle(d.Body); err != nil {
        log.Printf("activity-consumer: handle message failed: %v", err)
        _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
        return
    }
    _ = d.Ack(false)
}

func handleTracked(body []byte) error {
    var ev EntryTrackedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    line := fmt.Sprintf("[%s] Entry tracked | user_id=%d | tmdb_id=%d | type=%s | title=%q | status=%s\n",
        ev.TrackedAt, ev.UserID, ev.TMDBID, ev.MediaType, ev.Title, ev.Status)
    return appendActivity(line)
}

func handleRemoved(body []byte) error {
    var ev EntryRemovedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    line := fmt.Sprintf("[%s] Entry removed | user_id=%d | tmdb_id=%d | type=%s | purged_lists=%d\n",
        ev.RemovedAt, ev.UserID, ev.TMDBID, ev.MediaType, len(ev.PurgedLists))
    return appendActivity(line)
}

func appendActivity(line string) error {
    if err := os.MkdirAll("logs", 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    fpath := filepath.Join("logs", "activity.log")
    f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

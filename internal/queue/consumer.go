package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"
)

// RegistrationLogFile is the file the consumer appends to inside its log
// directory.
const RegistrationLogFile = "registrations.log"

// Consumer reads registration events from RabbitMQ and appends one line
// per event to <LogDir>/registrations.log.
type Consumer struct {
    URL    string
    Queue  string
    LogDir string
    Log    *log.Logger
}

// NewConsumer returns a Consumer for the given broker URL and queue.
func NewConsumer(url, queue, logDir string, logger *log.Logger) *Consumer {
    return &Consumer{URL: url, Queue: queue, LogDir: logDir, Log: logger}
}

// Run connects to the broker, declares the queue (durable) and consumes
// until ctx is cancelled.  Broken connections are redialled with
// exponential backoff capped at 30s.  Messages that cannot be handled are
// rejected without requeue so a bad payload cannot stall the queue.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.Warnj(log.JSON{"msg": "consumer dial failed", "error": err.Error(), "retry_in": backoff.String()})
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.Warnj(log.JSON{"msg": "consume loop ended, reconnecting", "error": fmt.Sprint(err)})
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.Warnj(log.JSON{"msg": "set QoS failed", "error": err.Error()})
    }
    if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handleMessage(d.Body); err != nil {
                c.Log.Errorj(log.JSON{"msg": "handle message failed", "error": err.Error()})
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handleMessage(body []byte) error {
    var ev RegistrationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.RegistrationID == 0 {
        return errors.New("event is missing type or registration id")
    }
    if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", c.LogDir, err)
    }
    f, err := os.OpenFile(filepath.Join(c.LogDir, RegistrationLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders ev as a single human-readable log line.
func FormatLine(ev RegistrationEvent) string {
    return fmt.Sprintf("[%s] %s | registration_id=%d | status=%s | participants=%d | email=%s | course_id=%d | course=%q | seats=%d/%d | course_status=%s\n",
        ev.OccurredAt, ev.Type, ev.RegistrationID, ev.RegistrationStatus, ev.Participants, ev.Email,
        ev.CourseID, ev.CourseTitle, ev.CurrentRegistrations, ev.MaxSpots, ev.CourseStatus)
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

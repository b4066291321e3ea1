package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends registration events to a durable RabbitMQ queue.  It
// dials per publish; registration traffic is low and this keeps the
// request path free of long-lived connection state.
type Publisher struct {
    URL   string
    Queue string
    Log   *log.Logger
}

// NewPublisher returns a Publisher for the given broker URL and queue.
func NewPublisher(url, queue string, logger *log.Logger) *Publisher {
    return &Publisher{URL: url, Queue: queue, Log: logger}
}

// defaultDialTimeout bounds the broker dial when ctx carries no deadline.
const defaultDialTimeout = 5 * time.Second

// dialTimeout derives the dial budget from ctx.  amqp.Dial does not take
// a context, so the deadline has to be handed to the dialer instead.
func dialTimeout(ctx context.Context) (time.Duration, error) {
    if err := ctx.Err(); err != nil {
        return 0, err
    }
    deadline, ok := ctx.Deadline()
    if !ok {
        return defaultDialTimeout, nil
    }
    left := time.Until(deadline)
    if left <= 0 {
        return 0, context.DeadlineExceeded
    }
    return left, nil
}

// Publish sends ev to the queue as a persistent JSON message.  The dial,
// handshake and publish are all bounded by ctx.  Errors are returned to
// the caller, which decides how to log them.
func (p *Publisher) Publish(ctx context.Context, ev RegistrationEvent) error {
    timeout, err := dialTimeout(ctx)
    if err != nil {
        return err
    }
    conn, err := amqp.DialConfig(p.URL, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(timeout),
    })
    if err != nil {
        return fmt.Errorf("rabbitmq dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("rabbitmq channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        p.Queue, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        return fmt.Errorf("rabbitmq declare %s: %w", p.Queue, err)
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        MessageId:    ev.EventID,
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",      // default exchange
        p.Queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        pub,
    ); err != nil {
        return fmt.Errorf("rabbitmq publish: %w", err)
    }
    p.Log.Debugj(log.JSON{"msg": "event published", "event_id": ev.EventID, "type": ev.Type})
    return nil
}

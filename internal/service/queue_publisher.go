// Package queue_publisher forwards global auction events to RabbitMQ.
// Publishing never blocks the request path: events are queued in memory
// and a single worker publishes them in order.  Failures are logged and
// the event is dropped; the WebSocket broadcast is unaffected.
package queue_publisher

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    log "github.com/sirupsen/logrus"

    q "github.com/iliyamo/realtime-auction/internal/queue"
)

const (
    publishTimeout = 5 * time.Second
    backlogSize    = 256
)

// Publisher is an auction.Broadcaster that writes global events to the
// auction.events fanout exchange.  Room events stay local to the hub and
// are ignored.
type Publisher struct {
    url     string
    backlog chan q.AuctionEvent
    now     func() time.Time

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewPublisher returns a Publisher for the broker at url.  The connection
// is opened lazily on first publish and reopened after failures.
func NewPublisher(url string) *Publisher {
    return &Publisher{
        url:     url,
        backlog: make(chan q.AuctionEvent, backlogSize),
        now:     func() time.Time { return time.Now().UTC() },
    }
}

// Run publishes queued events until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
    defer p.Close()
    for {
        select {
        case <-ctx.Done():
            return
        case ev := <-p.backlog:
            pctx, cancel := context.WithTimeout(ctx, publishTimeout)
            if err := p.Publish(pctx, ev); err != nil {
                log.WithFields(log.Fields{"event": ev.Event, "auction_id": ev.AuctionID, "error": err}).Warn("rabbitmq: publish failed")
            }
            cancel()
        }
    }
}

// EmitToAuction is a no-op: only global events go to the broker.
func (p *Publisher) EmitToAuction(string, string, any) {}

// EmitGlobal queues the event for publishing.  When the backlog is full
// the event is dropped and logged.
func (p *Publisher) EmitGlobal(event string, payload any) {
    ev, err := p.envelope(event, payload)
    if err != nil {
        log.WithFields(log.Fields{"event": event, "error": err}).Error("rabbitmq: encode event failed")
        return
    }
    select {
    case p.backlog <- ev:
    default:
        log.WithFields(log.Fields{"event": event, "auction_id": ev.AuctionID}).Warn("rabbitmq: backlog full, event dropped")
    }
}

func (p *Publisher) envelope(event string, payload any) (q.AuctionEvent, error) {
    body, err := json.Marshal(payload)
    if err != nil {
        return q.AuctionEvent{}, err
    }
    var ref struct {
        AuctionID string `json:"auctionId"`
    }
    _ = json.Unmarshal(body, &ref)
    return q.AuctionEvent{Event: event, AuctionID: ref.AuctionID, Payload: body, PublishedAt: p.now()}, nil
}

// Publish sends one event synchronously as a persistent message.
func (p *Publisher) Publish(ctx context.Context, ev q.AuctionEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    ch, err := p.channel()
    if err != nil {
        return err
    }
    err = ch.PublishWithContext(ctx,
        q.ExchangeName, // exchange
        "",             // routing key, ignored by fanout
        false,          // mandatory
        false,          // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            Timestamp:    ev.PublishedAt,
            Type:         ev.Event,
            Body:         body,
        })
    if err != nil {
        p.reset()
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}

// channel returns the open channel, dialing and declaring the topology
// when there is none.
func (p *Publisher) channel() (*amqp.Channel, error) {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    if p.conn == nil || p.conn.IsClosed() {
        conn, err := amqp.Dial(p.url)
        if err != nil {
            return nil, fmt.Errorf("dial: %w", err)
        }
        p.conn = conn
    }
    ch, err := p.conn.Channel()
    if err != nil {
        return nil, fmt.Errorf("channel open: %w", err)
    }
    if err := q.DeclareTopology(ch); err != nil {
        _ = ch.Close()
        return nil, err
    }
    p.ch = ch
    return ch, nil
}

func (p *Publisher) reset() {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
}

// Close releases the broker connection.
func (p *Publisher) Close() {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}

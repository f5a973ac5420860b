package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    log "github.com/sirupsen/logrus"

    "github.com/iliyamo/realtime-auction/internal/auction"
)

// StartAuctionConsumer connects to RabbitMQ, declares the exchange and the
// durable log queue, and appends one line per event to logs/auction.log.
// It runs a reconnect loop forever and is meant to be started in its own
// goroutine.  Messages that cannot be handled are rejected without requeue
// so the loop never spins on a poison message.
func StartAuctionConsumer(url string) {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.WithFields(log.Fields{"error": err, "retry_in": backoff.String()}).Warn("auction-consumer: dial failed")
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        if err := consumeLoop(conn, "logs"); err != nil {
            log.WithFields(log.Fields{"error": err}).Warn("auction-consumer: consume loop ended, reconnecting")
        }
        _ = conn.Close()
        time.Sleep(2 * time.Second)
    }
}

// DeclareTopology declares the fanout exchange and the log queue bound to
// it.  Both the publisher and the consumer call it; declarations are
// idempotent.
func DeclareTopology(ch *amqp.Channel) error {
    if err := ch.ExchangeDeclare(ExchangeName, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
        return fmt.Errorf("exchange declare: %w", err)
    }
    if _, err := ch.QueueDeclare(LogQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    if err := ch.QueueBind(LogQueueName, "", ExchangeName, false, nil); err != nil {
        return fmt.Errorf("queue bind: %w", err)
    }
    return nil
}

func consumeLoop(conn *amqp.Connection, dir string) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.WithFields(log.Fields{"error": err}).Warn("auction-consumer: set QoS failed")
    }
    if err := DeclareTopology(ch); err != nil {
        return err
    }
    msgs, err := ch.Consume(LogQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    for d := range msgs {
        if err := handleMessage(d.Body, dir); err != nil {
            log.WithFields(log.Fields{"error": err}).Error("auction-consumer: handle message failed")
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, dir string) error {
    var ev AuctionEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    line, err := formatLine(ev)
    if err != nil {
        return err
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(dir, "auction.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func formatLine(ev AuctionEvent) (string, error) {
    at := ev.PublishedAt.UTC().Format(time.RFC3339)
    switch ev.Event {
    case auction.EventAuctionEnded:
        var p auction.AuctionEndedPayload
        if err := json.Unmarshal(ev.Payload, &p); err != nil {
            return "", fmt.Errorf("unmarshal %s payload: %w", ev.Event, err)
        }
        return fmt.Sprintf("[%s] Auction settled | auction_id=%s | title=%q | winner=%q | amount=%s\n",
            at, p.AuctionID, p.AuctionTitle, p.Winner.Username, p.WinningBid.StringFixed(2)), nil
    case auction.EventBidUpdate:
        var p auction.BidUpdatePayload
        if err := json.Unmarshal(ev.Payload, &p); err != nil {
            return "", fmt.Errorf("unmarshal %s payload: %w", ev.Event, err)
        }
        return fmt.Sprintf("[%s] Bid placed | auction_id=%s | bid_id=%s | bidder=%q | amount=%s | previous=%s | bids=%d\n",
            at, p.AuctionID, p.ID, p.Bidder.Username, p.CurrentPrice.StringFixed(2), p.PreviousPrice.StringFixed(2), p.BidCount), nil
    default:
        return fmt.Sprintf("[%s] %s | auction_id=%s\n", at, ev.Event, ev.AuctionID), nil
    }
}

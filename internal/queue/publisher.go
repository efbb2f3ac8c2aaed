package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// ErrNotConnected is returned by Publish while the broker connection is
// down; a background goroutine is redialing.
var ErrNotConnected = errors.New("rabbitmq publisher not connected")

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("rabbitmq publisher closed")

const (
	defaultDialTimeout = 3 * time.Second
	maxReconnectDelay  = 30 * time.Second
)

// Publisher sends BookingEvents to the booking.events queue over a single
// long-lived connection. Messages are marked as persistent.
//
// Publish never dials. When the connection drops, a goroutine watching
// NotifyClose redials with exponential backoff and Publish fails fast with
// ErrNotConnected until it succeeds.
type Publisher struct {
	url         string
	log         zerolog.Logger
	dialTimeout time.Duration
	retryDelay  time.Duration

	mu           sync.Mutex
	conn         *amqp.Connection
	ch           *amqp.Channel
	reconnecting bool
	closed       bool
	done         chan struct{}
}

func newPublisher(url string, log zerolog.Logger) *Publisher {
	return &Publisher{
		url:         url,
		log:         log.With().Str("component", "publisher").Logger(),
		dialTimeout: defaultDialTimeout,
		retryDelay:  time.Second,
		done:        make(chan struct{}),
	}
}

// DialPublisher connects to the broker and declares the queue. Callers
// typically fall back to NopPublisher when this fails.
func DialPublisher(url string, log zerolog.Logger) (*Publisher, error) {
	p := newPublisher(url, log)
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(BookingEventsQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	return conn, ch, nil
}

// connect dials without holding the lock, installs the connection and
// starts watching it.
func (p *Publisher) connect() error {
	conn, ch, err := p.dial()
	if err != nil {
		return err
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		closeQuietly(ch, conn)
		return ErrPublisherClosed
	}
	p.conn, p.ch = conn, ch
	p.reconnecting = false
	p.mu.Unlock()

	go p.watch(conn)
	return nil
}

func (p *Publisher) watch(conn *amqp.Connection) {
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	select {
	case <-p.done:
		return
	case amqpErr := <-closed:
		if amqpErr != nil {
			p.log.Warn().Str("reason", amqpErr.Reason).Int("code", amqpErr.Code).Msg("broker connection lost")
		}
	}
	p.mu.Lock()
	if p.conn == conn {
		p.conn, p.ch = nil, nil
	}
	p.mu.Unlock()
	p.reconnect()
}

// reconnect starts the redial loop unless one is running or the publisher
// is closed.
func (p *Publisher) reconnect() {
	p.mu.Lock()
	if p.closed || p.reconnecting {
		p.mu.Unlock()
		return
	}
	p.reconnecting = true
	p.mu.Unlock()

	go func() {
		delay := p.retryDelay
		for {
			select {
			case <-p.done:
				return
			case <-time.After(delay):
			}
			err := p.connect()
			if err == nil {
				p.log.Info().Msg("broker connection restored")
				return
			}
			if errors.Is(err, ErrPublisherClosed) {
				return
			}
			p.log.Warn().Err(err).Dur("retry_in", delay).Msg("broker redial failed")
			if delay *= 2; delay > maxReconnectDelay {
				delay = maxReconnectDelay
			}
		}
	}()
}

// Publish serialises ev and sends it to the default exchange.
func (p *Publisher) Publish(ctx context.Context, ev BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}

	p.mu.Lock()
	ch, closed := p.ch, p.closed
	p.mu.Unlock()
	if closed {
		return ErrPublisherClosed
	}
	if ch == nil {
		p.reconnect()
		return ErrNotConnected
	}

	if err := ch.PublishWithContext(ctx, "", BookingEventsQueue, false, false, msg); err != nil {
		p.log.Warn().Err(err).Str("event", ev.Type).Msg("publish failed, dropping connection")
		p.mu.Lock()
		var conn *amqp.Connection
		if p.ch == ch {
			conn = p.conn
			p.conn, p.ch = nil, nil
		}
		p.mu.Unlock()
		if conn != nil {
			go closeQuietly(ch, conn)
		}
		p.reconnect()
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// Close stops reconnecting and releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	ch, conn := p.ch, p.conn
	p.ch, p.conn = nil, nil
	p.mu.Unlock()

	closeQuietly(ch, conn)
	return nil
}

func closeQuietly(ch *amqp.Channel, conn *amqp.Connection) {
	if ch != nil {
		_ = ch.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

// NopPublisher discards events. It is used when no broker is reachable.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, BookingEvent) error { return nil }
func (NopPublisher) Close() error                                { return nil }

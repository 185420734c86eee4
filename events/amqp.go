package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultDialTimeout = 2 * time.Second
	defaultRetryDelay  = 5 * time.Second
)

// ErrNotConnected is returned by Publish while the broker connection is
// down. The event is dropped; a background redial restores the connection.
var ErrNotConnected = errors.New("rabbitmq: not connected")

// AMQPPublisher sends events as persistent JSON messages to a durable queue
// through the default exchange. Publish never dials: a lost connection is
// re-established by a single background goroutine.
type AMQPPublisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
	retryDelay  time.Duration

	mu           sync.Mutex
	conn         *amqp.Connection
	ch           *amqp.Channel
	reconnecting bool
	closed       bool
	done         chan struct{}
	wg           sync.WaitGroup
}

// NewAMQPPublisher connects and declares the queue.
func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	p, err := newAMQPPublisher(url, queue, defaultDialTimeout, defaultRetryDelay)
	if err != nil {
		return nil, err
	}
	conn, ch, err := p.open()
	if err != nil {
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return p, nil
}

func newAMQPPublisher(url, queue string, dialTimeout, retryDelay time.Duration) (*AMQPPublisher, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		queue = "booking.events"
	}
	return &AMQPPublisher{
		url:         url,
		queue:       queue,
		dialTimeout: dialTimeout,
		retryDelay:  retryDelay,
		done:        make(chan struct{}),
	}, nil
}

// open dials with a bounded handshake and declares the queue.
func (p *AMQPPublisher) open() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Dial:   amqp.DefaultDial(p.dialTimeout),
		Locale: "en_US",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: declare queue %s: %w", p.queue, err)
	}
	return conn, ch, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev BookingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrNotConnected
	}
	if p.conn == nil || p.conn.IsClosed() || p.ch == nil || p.ch.IsClosed() {
		p.startRedialLocked()
		return ErrNotConnected
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// startRedialLocked launches the redial loop unless one is running.
// p.mu must be held.
func (p *AMQPPublisher) startRedialLocked() {
	if p.reconnecting || p.closed {
		return
	}
	p.reconnecting = true
	p.wg.Add(1)
	go p.redial()
}

func (p *AMQPPublisher) redial() {
	defer p.wg.Done()
	for {
		conn, ch, err := p.open()

		p.mu.Lock()
		if p.closed {
			p.reconnecting = false
			p.mu.Unlock()
			if err == nil {
				_ = ch.Close()
				_ = conn.Close()
			}
			return
		}
		if err == nil {
			if p.conn != nil {
				_ = p.conn.Close()
			}
			p.conn, p.ch = conn, ch
			p.reconnecting = false
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		select {
		case <-p.done:
			p.mu.Lock()
			p.reconnecting = false
			p.mu.Unlock()
			return
		case <-time.After(p.retryDelay):
		}
	}
}

// Close stops any redial in progress and closes the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	var errs []error
	if p.ch != nil && !p.ch.IsClosed() {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	p.ch, p.conn = nil, nil
	p.mu.Unlock()

	p.wg.Wait()
	return errors.Join(errs...)
}

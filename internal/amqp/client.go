// Package amqp publishes ledger change notifications to a RabbitMQ exchange.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"fintrack/internal/app"
	"fintrack/internal/log"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
	outboxSize     = 64
)

// Client publishes to a durable direct exchange. A queue named after the
// routing key is declared and bound so messages survive until a consumer
// shows up. Broken connections are redialed lazily on the next publish.
//
// Hook only enqueues; a single goroutine drains the outbox so a slow broker
// never holds up a commit.
type Client struct {
	url          string
	exchangeName string
	queueName    string
	logger       *log.Logger

	outbox    chan *LedgerChangedMessage
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64
	state        int32
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	client := newClient(url, exchangeName, queueName, logger)
	if err := client.connect(); err != nil {
		return nil, err
	}
	client.start()
	return client, nil
}

func newClient(url, exchangeName, queueName string, logger *log.Logger) *Client {
	return &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(log.ComponentAMQP),
		outbox:       make(chan *LedgerChangedMessage, outboxSize),
	}
}

// start launches the goroutine that publishes queued messages in order.
func (c *Client) start() {
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		for msg := range c.outbox {
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			if err := c.Publish(ctx, msg); err != nil {
				c.logger.WarnContext(ctx, "Failed to publish ledger change",
					log.FieldChange, msg.Change,
					log.FieldOperation, log.OpPublish,
					log.FieldError, err)
			}
			cancel()
		}
	}()
}

// DialWithRetry calls NewClient until it succeeds, attempts run out or ctx
// is done, sleeping with exponential backoff in between.
func DialWithRetry(ctx context.Context, url, exchangeName, queueName string, attempts int, logger *log.Logger) (*Client, error) {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		client, err := NewClient(url, exchangeName, queueName, logger)
		if err == nil {
			return client, nil
		}
		lastErr = err
		if logger != nil {
			logger.WarnContext(ctx, "AMQP connection failed, retrying", "attempt", attempt+1, log.FieldError, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(exponentialBackoff(attempt)):
		}
	}
	return nil, fmt.Errorf("connect AMQP after %d attempts: %w", attempts, lastErr)
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.conn = conn
	c.channel = channel

	if err := c.setup(); err != nil {
		c.closeLocked()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	return nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Publish sends msg as a persistent JSON message. It fails fast while the
// circuit is open.
func (c *Client) Publish(ctx context.Context, msg *LedgerChangedMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("circuit breaker is open, skipping publish")
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil || c.channel.IsClosed() {
		c.closeLocked()
		if err := c.connectLocked(); err != nil {
			c.recordFailure()
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    msg.Timestamp,
			Type:         MessageType,
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.closeLocked()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	c.logger.DebugContext(ctx, "Published ledger change",
		log.FieldChange, msg.Change,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// Hook queues a LedgerChangedMessage for every commit and returns at once.
// When the outbox is full the message is dropped and logged.
func (c *Client) Hook(ctx context.Context, change app.Change, snap app.Snapshot) {
	select {
	case c.outbox <- NewLedgerChangedMessage(change, snap):
	default:
		c.logger.WarnContext(ctx, "AMQP outbox full, dropping ledger change",
			log.FieldChange, change.String(),
			log.FieldOperation, log.OpPublish)
	}
}

func (c *Client) isCircuitOpen() bool {
	switch atomic.LoadInt32(&c.state) {
	case StateOpen:
		c.mu.Lock()
		last := c.lastFailure
		c.mu.Unlock()
		if time.Since(last) > openTimeout {
			atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
			return false
		}
		return true
	default:
		return false
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

// recordFailure must be called with c.mu held or before the client is
// shared.
func (c *Client) recordFailure() {
	c.lastFailure = time.Now()
	n := atomic.AddInt64(&c.failureCount, 1)
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		if atomic.SwapInt32(&c.state, StateOpen) != StateOpen && c.logger != nil {
			c.logger.Warn("AMQP circuit breaker opened", "failures", n)
		}
	}
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Duration(1<<attempt) * time.Second
	return min(d, maxBackoff)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection refused", "connection closed", "EOF", "broken pipe", "use of closed network connection"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Close flushes the outbox, then closes the connection. Hook must not be
// called after Close.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.outbox)
		if c.done != nil {
			<-c.done
		}
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}

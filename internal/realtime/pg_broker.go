package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres rejects NOTIFY payloads of 8000 bytes or more.
const maxNotifyPayload = 7999

const publishTimeout = 5 * time.Second

var (
	ErrPayloadTooLarge = errors.New("change payload exceeds NOTIFY limit")
	ErrListenerLost    = errors.New("listener connection lost")
)

type listenCmd struct {
	sql   string
	reply chan error
}

// PGBroker publishes with pg_notify and listens on one dedicated connection.
// Notifications are fanned out to subscribers through an in-process Hub, so
// the number of open subscriptions does not touch the pool size.
type PGBroker struct {
	pool *pgxpool.Pool

	mu        sync.Mutex
	hub       *Hub
	listening map[string]bool
	cmds      chan listenCmd
	interrupt context.CancelFunc
	stop      context.CancelFunc
	done      chan struct{}
	closed    bool
}

func NewPGBroker(pool *pgxpool.Pool) *PGBroker {
	return &PGBroker{
		pool:      pool,
		hub:       NewHub(),
		listening: make(map[string]bool),
	}
}

// ConnectPG opens a small pgx pool for NOTIFY traffic plus the listener.
func ConnectPG(ctx context.Context, url string) (*PGBroker, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listener dsn: %w", err)
	}
	cfg.MaxConns = 4
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open listener pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping listener pool: %w", err)
	}
	return NewPGBroker(pool), nil
}

func (b *PGBroker) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	if len(payload) > maxNotifyPayload {
		return ErrPayloadTooLarge
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if _, err := b.pool.Exec(ctx, "SELECT pg_notify($1, $2)", ChannelName(change.Table), string(payload)); err != nil {
		return fmt.Errorf("pg_notify failed: %w", err)
	}
	return nil
}

// Subscribe registers with the hub first and then makes sure the listener
// connection has issued LISTEN for the table's channel.
func (b *PGBroker) Subscribe(ctx context.Context, table string) (Subscription, error) {
	hub, cmds, done, err := b.ensureListener(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := hub.Subscribe(ctx, table)
	if err != nil {
		return nil, err
	}

	channel := ChannelName(table)
	b.mu.Lock()
	listening := b.listening[channel]
	b.mu.Unlock()
	if listening {
		return sub, nil
	}

	// A repeated LISTEN on the same channel is a no-op in Postgres.
	if err := b.send(ctx, cmds, done, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		sub.Close()
		return nil, fmt.Errorf("LISTEN %s failed: %w", channel, err)
	}
	b.mu.Lock()
	if b.hub == hub {
		b.listening[channel] = true
	}
	b.mu.Unlock()
	return sub, nil
}

func (b *PGBroker) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

func (b *PGBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	stop, done := b.stop, b.done
	b.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
	b.hub.Close()
	b.pool.Close()
	return nil
}

// ensureListener acquires the listener connection and starts its loop on
// first use, or again after the previous connection was lost.
func (b *PGBroker) ensureListener(ctx context.Context) (*Hub, chan listenCmd, chan struct{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, nil, nil, ErrBrokerClosed
	}
	if b.done != nil {
		return b.hub, b.cmds, b.done, nil
	}

	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to acquire listener connection: %w", err)
	}

	loopCtx, stop := context.WithCancel(context.Background())
	b.cmds = make(chan listenCmd, 16)
	b.stop = stop
	b.done = make(chan struct{})
	go b.listenLoop(loopCtx, conn, b.hub, b.cmds, b.done)
	return b.hub, b.cmds, b.done, nil
}

// send hands a command to the listener loop and waits for its result.
func (b *PGBroker) send(ctx context.Context, cmds chan listenCmd, done chan struct{}, sql string) error {
	cmd := listenCmd{sql: sql, reply: make(chan error, 1)}
	select {
	case cmds <- cmd:
	case <-done:
		return ErrListenerLost
	case <-ctx.Done():
		return ctx.Err()
	}

	b.mu.Lock()
	if b.interrupt != nil {
		b.interrupt()
	}
	b.mu.Unlock()

	select {
	case err := <-cmd.reply:
		return err
	case <-done:
		return ErrListenerLost
	case <-ctx.Done():
		return ctx.Err()
	}
}

// arm installs the cancel func for the next wait. Commands queued before
// the wait began cancel it straight away.
func (b *PGBroker) arm(cmds chan listenCmd, cancel context.CancelFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.interrupt = cancel
	if len(cmds) > 0 {
		cancel()
	}
}

// listenLoop owns the listener connection. It alternates between running
// queued LISTEN commands and waiting for notifications.
func (b *PGBroker) listenLoop(ctx context.Context, conn *pgxpool.Conn, hub *Hub, cmds chan listenCmd, done chan struct{}) {
	defer func() {
		b.mu.Lock()
		b.interrupt = nil
		lost := !b.closed
		if lost {
			// Subscribers see their channel close and stop being live.
			b.hub = NewHub()
			b.listening = make(map[string]bool)
			b.done = nil
		}
		b.mu.Unlock()

		if lost {
			hub.Close()
		}
		conn.Release()
		close(done)
	}()

	for {
		for drained := false; !drained; {
			select {
			case <-ctx.Done():
				return
			case cmd := <-cmds:
				_, err := conn.Exec(ctx, cmd.sql)
				cmd.reply <- err
			default:
				drained = true
			}
		}

		waitCtx, cancel := context.WithCancel(ctx)
		b.arm(cmds, cancel)
		n, err := conn.Conn().WaitForNotification(waitCtx)
		interrupted := waitCtx.Err() != nil
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if interrupted && !conn.Conn().IsClosed() {
				continue
			}
			slog.Error("listener connection lost", "error", err)
			// The connection may be mid-protocol and must not return to the pool.
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 2*time.Second)
			conn.Conn().Close(closeCtx)
			closeCancel()
			return
		}

		dispatch(hub, n.Channel, n.Payload)
	}
}

// dispatch decodes a notification payload and hands it to the hub.
func dispatch(hub *Hub, channel, payload string) {
	var change Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		slog.Warn("dropping malformed notification", "channel", channel, "error", err)
		return
	}
	if ChannelName(change.Table) != channel {
		slog.Warn("dropping notification for another channel",
			"channel", channel, "table", change.Table)
		return
	}
	if err := hub.Publish(context.Background(), change); err != nil {
		slog.Warn("dropping notification", "channel", channel, "error", err)
	}
}

var _ Broker = (*PGBroker)(nil)

package pgxcasbin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/persist"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

const defaultChannel = "phonefactor_casbin_watcher"

// Watcher propagates policy reloads across instances using Postgres
// listen/notify.
type Watcher struct {
	mu         sync.RWMutex
	pool       *pgxpool.Pool
	channel    string
	localID    string
	notifySelf bool
	callback   func(string)
	cancel     context.CancelFunc
}

var _ persist.Watcher = (*Watcher)(nil)

// WatcherOptions configures a Watcher instance.
type WatcherOptions struct {
	// Channel sets the Postgres listen channel.
	Channel string
	// LocalID identifies this watcher instance. Defaults to a random UUID.
	LocalID string
	// NotifySelf makes the watcher react to its own notifications.
	NotifySelf bool
}

type watcherMessage struct {
	ID string `json:"id"`
}

// NewWatcher starts listening for policy change notifications on the
// provided pool. The listener reconnects with fibonacci backoff until
// the context is canceled or Close is called.
func NewWatcher(ctx context.Context, pool *pgxpool.Pool, opts WatcherOptions) (*Watcher, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, errors.Join(ErrPing, err)
	}

	if opts.Channel == "" {
		opts.Channel = defaultChannel
	}
	if opts.LocalID == "" {
		opts.LocalID = uuid.NewString()
	}

	listenCtx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		pool:       pool,
		channel:    opts.Channel,
		localID:    opts.LocalID,
		notifySelf: opts.NotifySelf,
		cancel:     cancel,
	}

	go func() {
		backoff := retry.WithCappedDuration(5*time.Second, retry.NewFibonacci(200*time.Millisecond))
		err := retry.Do(listenCtx, backoff, func(ctx context.Context) error {
			if err := w.listen(ctx); errors.Is(err, context.Canceled) {
				return nil
			} else if err != nil {
				slog.ErrorContext(ctx, "casbin watcher listen failed", "error", err)
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil {
			slog.Error("casbin watcher stopped", "error", err)
		}
	}()

	return w, nil
}

// ReloadCallback returns a callback that reloads the enforcer policy
// whenever another instance publishes a change.
func ReloadCallback(e casbin.IEnforcer) func(string) {
	return func(string) {
		if err := e.LoadPolicy(); err != nil {
			slog.Error("casbin watcher policy reload failed", "error", err)
		}
	}
}

// SetUpdateCallback registers the handler invoked on update messages.
func (w *Watcher) SetUpdateCallback(callback func(string)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callback = callback
	return nil
}

// Update notifies all listeners that the policy changed.
func (w *Watcher) Update() error {
	payload, err := json.Marshal(watcherMessage{ID: w.localID})
	if err != nil {
		return err
	}
	if _, err := w.pool.Exec(context.Background(), "select pg_notify($1, $2)", w.channel, string(payload)); err != nil {
		return errors.Join(ErrNotify, err)
	}
	return nil
}

// Close stops the watcher listener.
func (w *Watcher) Close() {
	w.cancel()
}

func (w *Watcher) listen(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "listen "+w.channel); err != nil {
		return errors.Join(ErrListen, err)
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var msg watcherMessage
		if err := json.Unmarshal([]byte(notification.Payload), &msg); err != nil {
			slog.WarnContext(ctx, "casbin watcher bad payload", "payload", notification.Payload, "error", err)
			continue
		}
		if msg.ID == w.localID && !w.notifySelf {
			continue
		}

		w.mu.RLock()
		callback := w.callback
		w.mu.RUnlock()
		if callback != nil {
			callback(notification.Payload)
		}
	}
}

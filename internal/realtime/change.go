// Package realtime carries row change events between writers and live
// collection caches.
//
// Three brokers are provided:
//   - Hub: in-process fan-out, used in tests and single-instance deployments
//   - PGBroker: Postgres LISTEN/NOTIFY over one shared listener connection
//   - RedisBroker: Redis PUBLISH/SUBSCRIBE
//
// All of them deliver the same Change envelope on a per-table channel.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"

	// Auth state events travel on the AuthChannel table name.
	EventSignedIn  EventType = "SIGNED_IN"
	EventSignedOut EventType = "SIGNED_OUT"
)

// AuthChannel is the pseudo-table carrying auth state changes.
const AuthChannel = "auth"

var ErrBrokerClosed = errors.New("realtime broker closed")

// Change is one row mutation. New is set for INSERT and UPDATE, Old for DELETE.
type Change struct {
	Table string          `json:"table"`
	Type  EventType       `json:"type"`
	New   json.RawMessage `json:"new,omitempty"`
	Old   json.RawMessage `json:"old,omitempty"`
	At    time.Time       `json:"at"`
}

// NewChange marshals row into the side of the envelope that matches t.
func NewChange(table string, t EventType, row any) (Change, error) {
	b, err := json.Marshal(row)
	if err != nil {
		return Change{}, err
	}
	c := Change{Table: table, Type: t, At: time.Now().UTC()}
	if t == EventDelete {
		c.Old = b
	} else {
		c.New = b
	}
	return c, nil
}

// Row returns the payload carrying the affected row.
func (c Change) Row() json.RawMessage {
	if c.Type == EventDelete {
		return c.Old
	}
	return c.New
}

type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, table string) (Subscription, error)
}

type Broker interface {
	Publisher
	Subscriber
	Ping(ctx context.Context) error
	Close() error
}

// Subscription delivers changes for one table until closed.
// The Changes channel is closed when the subscription ends.
type Subscription interface {
	Changes() <-chan Change
	Close() error
}

// ChannelName maps a table to its notification channel.
func ChannelName(table string) string {
	return "tumbuh_" + table
}

package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func recv(t *testing.T, sub Subscription) Change {
	t.Helper()
	select {
	case c, ok := <-sub.Changes():
		require.True(t, ok, "subscription closed")
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change")
	}
	return Change{}
}

func TestNewChange_DeleteUsesOld(t *testing.T) {
	c, err := NewChange("farm_data", EventDelete, row{ID: "a"})
	require.NoError(t, err)

	assert.Nil(t, c.New)
	assert.JSONEq(t, `{"id":"a","name":""}`, string(c.Old))
	assert.Equal(t, c.Old, c.Row())
}

func TestHub_DeliversPerTable(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	ctx := context.Background()

	reports, err := hub.Subscribe(ctx, "farm_data")
	require.NoError(t, err)
	warnings, err := hub.Subscribe(ctx, "warnings")
	require.NoError(t, err)

	c, _ := NewChange("farm_data", EventInsert, row{ID: "1", Name: "padi"})
	require.NoError(t, hub.Publish(ctx, c))

	got := recv(t, reports)
	assert.Equal(t, EventInsert, got.Type)
	var r row
	require.NoError(t, json.Unmarshal(got.Row(), &r))
	assert.Equal(t, "padi", r.Name)

	select {
	case <-warnings.Changes():
		t.Fatal("warnings subscriber received a farm_data change")
	default:
	}
}

func TestHub_FanOutAndUnsubscribe(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	ctx := context.Background()

	a, _ := hub.Subscribe(ctx, "warnings")
	b, _ := hub.Subscribe(ctx, "warnings")

	c, _ := NewChange("warnings", EventUpdate, row{ID: "w"})
	require.NoError(t, hub.Publish(ctx, c))
	recv(t, a)
	recv(t, b)

	require.NoError(t, a.Close())
	_, ok := <-a.Changes()
	assert.False(t, ok)

	require.NoError(t, hub.Publish(ctx, c))
	recv(t, b)
}

func TestHub_FullBufferDropsWithoutBlocking(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	ctx := context.Background()

	sub, _ := hub.Subscribe(ctx, "farm_data")
	c, _ := NewChange("farm_data", EventInsert, row{ID: "x"})

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			_ = hub.Publish(ctx, c)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Len(t, sub.Changes(), subscriberBuffer)
}

func TestHub_CloseEndsSubscriptions(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	sub, _ := hub.Subscribe(ctx, "profiles")
	require.NoError(t, hub.Ping(ctx))
	require.NoError(t, hub.Close())
	assert.ErrorIs(t, hub.Ping(ctx), ErrBrokerClosed)

	_, ok := <-sub.Changes()
	assert.False(t, ok)
	assert.NoError(t, sub.Close())

	_, err := hub.Subscribe(ctx, "profiles")
	assert.ErrorIs(t, err, ErrBrokerClosed)
	assert.ErrorIs(t, hub.Publish(ctx, Change{Table: "profiles"}), ErrBrokerClosed)
}

func TestChannelName(t *testing.T) {
	assert.Equal(t, "tumbuh_crop_predictions", ChannelName("crop_predictions"))
}

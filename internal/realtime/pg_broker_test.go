package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_FansOneNotificationOutToEverySubscriber(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	ctx := context.Background()

	subs := make([]Subscription, 0, 20)
	for i := 0; i < 20; i++ {
		sub, err := hub.Subscribe(ctx, "farm_data")
		require.NoError(t, err)
		subs = append(subs, sub)
	}
	other, err := hub.Subscribe(ctx, "warnings")
	require.NoError(t, err)

	c, _ := NewChange("farm_data", EventInsert, row{ID: "1", Name: "jagung"})
	payload, err := json.Marshal(c)
	require.NoError(t, err)

	dispatch(hub, ChannelName("farm_data"), string(payload))

	for _, sub := range subs {
		got := recv(t, sub)
		assert.Equal(t, EventInsert, got.Type)
		assert.Equal(t, "farm_data", got.Table)
	}
	assert.Len(t, other.Changes(), 0)
}

func TestDispatch_DropsMalformedAndMismatchedPayloads(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), "farm_data")
	require.NoError(t, err)

	dispatch(hub, ChannelName("farm_data"), "not json")

	c, _ := NewChange("farm_data", EventDelete, row{ID: "1"})
	payload, _ := json.Marshal(c)
	dispatch(hub, ChannelName("warnings"), string(payload))

	assert.Len(t, sub.Changes(), 0)
}

func TestPGBroker_ArmCancelsWaitWhenCommandIsQueued(t *testing.T) {
	b := NewPGBroker(nil)
	cmds := make(chan listenCmd, 1)

	idle, cancelIdle := context.WithCancel(context.Background())
	defer cancelIdle()
	b.arm(cmds, cancelIdle)
	assert.NoError(t, idle.Err())

	cmds <- listenCmd{sql: "LISTEN x", reply: make(chan error, 1)}
	queued, cancelQueued := context.WithCancel(context.Background())
	defer cancelQueued()
	b.arm(cmds, cancelQueued)
	assert.ErrorIs(t, queued.Err(), context.Canceled)
}

func TestPGBroker_PublishRejectsOversizedPayload(t *testing.T) {
	b := NewPGBroker(nil)

	c, err := NewChange("farm_data", EventInsert, row{ID: "big", Name: strings.Repeat("x", maxNotifyPayload)})
	require.NoError(t, err)

	assert.ErrorIs(t, b.Publish(context.Background(), c), ErrPayloadTooLarge)
}

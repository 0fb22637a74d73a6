package msg

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, ParseBrokers(""))
}

func TestLoadConfig_DisabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	cfg := LoadConfig()
	assert.False(t, cfg.Enabled())
	assert.Equal(t, TopicOrderLifecycle, cfg.Topic)

	t.Setenv("KAFKA_BROKERS", "127.0.0.1:9092")
	assert.True(t, LoadConfig().Enabled())
}

func TestRecord_LifecycleEvent(t *testing.T) {
	ev := LifecycleEventMsg{
		EventID:   "e1",
		ClOrdID:   "1700000000",
		OrderID:   "55667",
		FromState: "cancel_requested",
		ToState:   "cancelled",
	}
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	got, err := Record{Topic: TopicOrderLifecycle, Value: raw}.LifecycleEvent()
	require.NoError(t, err)
	assert.Equal(t, ev, got)
	assert.True(t, got.Final())

	_, err = Record{Value: []byte("{")}.LifecycleEvent()
	assert.Error(t, err)
}

func TestLifecycleEventMsg_Final(t *testing.T) {
	assert.False(t, LifecycleEventMsg{ToState: "awaiting_confirmation"}.Final())
	assert.False(t, LifecycleEventMsg{ToState: "cancel_requested"}.Final())
	assert.True(t, LifecycleEventMsg{ToState: "confirmed_new"}.Final())
	assert.True(t, LifecycleEventMsg{ToState: "timed_out"}.Final())
}

func TestTally_ReportsUnfinishedOrders(t *testing.T) {
	tally := NewTally()
	tally.Add(LifecycleEventMsg{EventID: "e1", ClOrdID: "a", ToState: "sent", TsUnixMillis: 1})
	tally.Add(LifecycleEventMsg{EventID: "e2", ClOrdID: "a", ToState: "confirmed_new", TsUnixMillis: 2})
	tally.Add(LifecycleEventMsg{EventID: "e3", ClOrdID: "b", ToState: "cancel_requested", TsUnixMillis: 3})
	tally.Add(LifecycleEventMsg{EventID: "e2", ClOrdID: "a", ToState: "confirmed_new", TsUnixMillis: 2})
	// Out of order delivery does not roll the state back.
	tally.Add(LifecycleEventMsg{EventID: "e0", ClOrdID: "a", ToState: "awaiting_confirmation", TsUnixMillis: 1})

	assert.Equal(t, 4, tally.Events())
	assert.Equal(t, 2, tally.Orders())
	assert.Equal(t, 1, tally.Repeated)

	unfinished := tally.Unfinished()
	require.Len(t, unfinished, 1)
	assert.Equal(t, "b", unfinished[0].ClOrdID)
}

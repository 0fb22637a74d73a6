package chaos

import (
	"context"
	"testing"
	"time"

	"github.com/ismaiel54/fix-order-client/internal/fixtest"
	"github.com/ismaiel54/fix-order-client/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfile(t *testing.T) {
	drop, lo, hi, err := ParseProfile("drop-pct=30,delay=50-250")
	require.NoError(t, err)
	assert.Equal(t, 30, drop)
	assert.Equal(t, 50, lo)
	assert.Equal(t, 250, hi)

	_, lo, hi, err = ParseProfile("delay=75")
	require.NoError(t, err)
	assert.Equal(t, 75, lo)
	assert.Equal(t, 75, hi)

	_, _, _, err = ParseProfile("drop-pct=abc")
	assert.Error(t, err)

	_, _, _, err = ParseProfile("delay=300-100")
	assert.Error(t, err)

	_, _, _, err = ParseProfile("partition=1")
	assert.Error(t, err)
}

func TestMaybeDrop_DeterministicBySeed(t *testing.T) {
	pattern := func() []bool {
		c := New(&Config{Enabled: true, DropPct: 50, Seed: 42}, nil)
		out := make([]bool, 20)
		for i := range out {
			out[i] = c.MaybeDrop(OpRead)
		}
		return out
	}
	assert.Equal(t, pattern(), pattern())
}

func TestEnabledFor_TargetOpAndWindow(t *testing.T) {
	c := New(&Config{Enabled: true, TargetOp: OpWrite, WindowMs: 1000}, nil)
	assert.True(t, c.EnabledFor(OpWrite))
	assert.False(t, c.EnabledFor(OpRead))

	c.now = func() time.Time { return c.start.Add(2 * time.Second) }
	assert.False(t, c.EnabledFor(OpWrite))

	var disabled *Chaos
	assert.False(t, disabled.EnabledFor(OpRead))
}

func TestMaybeDelay_UsesBounds(t *testing.T) {
	c := New(&Config{Enabled: true, Profile: "delay=100-100"}, nil)
	var waited time.Duration
	c.after = func(d time.Duration) <-chan time.Time {
		waited = d
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}

	require.NoError(t, c.MaybeDelay(context.Background(), OpWrite))
	assert.Equal(t, 100*time.Millisecond, waited)
}

func TestTransport_DroppedReadIsRetryable(t *testing.T) {
	inner := fixtest.NewTransport(fixtest.Step{Data: fixtest.Heartbeat()})
	tr := Wrap(inner, New(&Config{Enabled: true, DropPct: 100, TargetOp: OpRead}, nil))

	n, err := tr.Read(make([]byte, 512))
	assert.Zero(t, n)
	assert.True(t, session.IsRetryable(err))
	assert.Zero(t, inner.Reads())

	_, err = tr.Write([]byte("x"))
	require.NoError(t, err)
	assert.Len(t, inner.Writes(), 1)
}

func TestTransport_DroppedWriteNeverReachesWire(t *testing.T) {
	inner := fixtest.NewTransport()
	tr := Wrap(inner, New(&Config{Enabled: true, DropPct: 100, TargetOp: OpWrite}, nil))

	n, err := tr.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, inner.Writes())
}

func TestTransport_DisabledPassesThrough(t *testing.T) {
	inner := fixtest.NewTransport(fixtest.Step{Data: []byte("hello")})
	tr := Wrap(inner, New(&Config{Enabled: false, DropPct: 100}, nil))

	buf := make([]byte, 16)
	n, err := tr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
	require.NoError(t, tr.Close())
}

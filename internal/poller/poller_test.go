package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parsascontentcorner/discordlite/internal/session"
)

const tick = 10 * time.Millisecond

func ticket(channel snowflake.ID, epoch uint64) session.Ticket {
	return session.Ticket{ChannelID: channel, Epoch: epoch}
}

func TestStart_TicksRepeatedly(t *testing.T) {
	p := New(tick, zap.NewNop())
	defer p.Stop()

	var count atomic.Int32
	p.Start(ticket(1, 1), func(context.Context, session.Ticket) { count.Add(1) })

	assert.Eventually(t, func() bool { return count.Load() >= 3 }, time.Second, tick)
	assert.Equal(t, 1, p.Alive())
}

func TestStart_FirstTickAfterInterval(t *testing.T) {
	p := New(200*time.Millisecond, zap.NewNop())
	defer p.Stop()

	var count atomic.Int32
	p.Start(ticket(1, 1), func(context.Context, session.Ticket) { count.Add(1) })

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), count.Load(), "no tick should run before the first interval")
}

func TestStart_ReplacesPreviousHandle(t *testing.T) {
	p := New(tick, zap.NewNop())
	defer p.Stop()

	seen := make(chan session.Ticket, 100)
	record := func(_ context.Context, tk session.Ticket) {
		select {
		case seen <- tk:
		default:
		}
	}

	firstID := p.Start(ticket(1, 1), record)
	secondID := p.Start(ticket(2, 2), record)

	assert.NotEqual(t, firstID, secondID)
	assert.Equal(t, 1, p.Alive(), "exactly one handle must be alive")

	// Drain anything queued before the switch, then every new tick must be
	// for the second ticket.
	for len(seen) > 0 {
		<-seen
	}
	for i := 0; i < 3; i++ {
		select {
		case tk := <-seen:
			assert.Equal(t, ticket(2, 2), tk)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for tick")
		}
	}

	id, current, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, secondID, id)
	assert.Equal(t, ticket(2, 2), current)
}

func TestStart_WaitsForRunningTick(t *testing.T) {
	p := New(tick, zap.NewNop())
	defer p.Stop()

	started := make(chan struct{}, 1)
	var running atomic.Int32
	var overlap atomic.Bool

	slow := func(ctx context.Context, _ session.Ticket) {
		if running.Add(1) > 1 {
			overlap.Store(true)
		}
		defer running.Add(-1)
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
	}

	p.Start(ticket(1, 1), slow)
	<-started

	p.Start(ticket(2, 2), slow)
	// The first tick has returned by the time Start does
	assert.LessOrEqual(t, running.Load(), int32(1))

	<-started
	assert.False(t, overlap.Load(), "ticks of different handles must never overlap")
}

func TestStop(t *testing.T) {
	p := New(tick, zap.NewNop())

	var count atomic.Int32
	p.Start(ticket(1, 1), func(context.Context, session.Ticket) { count.Add(1) })
	assert.Eventually(t, func() bool { return count.Load() >= 1 }, time.Second, tick)

	p.Stop()

	assert.Equal(t, 0, p.Alive())
	_, _, ok := p.Current()
	assert.False(t, ok)

	after := count.Load()
	time.Sleep(5 * tick)
	assert.Equal(t, after, count.Load(), "no tick may run after Stop returns")

	// Stopping twice is fine
	p.Stop()
}

func TestConcurrentStarts_LeaveOneHandle(t *testing.T) {
	p := New(tick, zap.NewNop())
	defer p.Stop()

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p.Start(ticket(snowflake.ID(n), uint64(n)), func(context.Context, session.Ticket) {})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, p.Alive())
	_, _, ok := p.Current()
	assert.True(t, ok)
}

func TestInterval(t *testing.T) {
	assert.Equal(t, 3*time.Second, New(3*time.Second, zap.NewNop()).Interval())
}

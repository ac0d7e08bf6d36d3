package sched

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type trace struct {
	calls []string
}

func (tr *trace) task(name string) Task {
	return TaskFunc(func(ctx TickContext) error {
		tr.calls = append(tr.calls, name)
		return nil
	})
}

func TestLoopPriorityOrder(t *testing.T) {
	tr := &trace{}
	l := NewLoop(time.Millisecond)
	l.AddTask(PrLvTelemetry, 1, tr.task("telemetry"))
	l.AddTask(PrLvTop, 1, tr.task("mark"))
	l.AddTask(PrLvReceive, 1, tr.task("link1"), tr.task("link2"))
	l.Step(context.Background())
	require.Equal(t, []string{"mark", "link1", "link2", "telemetry"}, tr.calls)
}

func TestLoopDivider(t *testing.T) {
	tr := &trace{}
	l := NewLoop(time.Millisecond)
	l.AddTask(PrLvNormal, 0, tr.task("every"))
	l.AddTask(PrLvNormal, 3, tr.task("third"))
	for i := 0; i < 6; i++ {
		l.Step(context.Background())
	}
	require.Equal(t, []string{
		"every", "every", "every", "third",
		"every", "every", "every", "third",
	}, tr.calls)

	tr.calls = nil
	// extra iterations skip divided tasks and do not advance the count
	l.runIteration(context.Background(), false)
	l.runIteration(context.Background(), false)
	l.runIteration(context.Background(), false)
	require.Equal(t, []string{"every", "every", "every"}, tr.calls)
	require.Equal(t, uint64(6), l.count)
}

func TestLoopTickContext(t *testing.T) {
	var got []uint64
	l := NewLoop(time.Millisecond)
	l.AddTask(PrLvLow, 1, TaskFunc(func(ctx TickContext) error {
		got = append(got, ctx.Count())
		require.Equal(t, PrLvLow, ctx.PriorityLevel())
		require.False(t, ctx.Time().IsZero())
		return errors.New("ignored")
	}))
	l.Step(context.Background())
	l.Step(context.Background())
	require.Equal(t, []uint64{1, 2}, got)
}

func TestLoopRun(t *testing.T) {
	ticks := make(chan uint64, 100)
	l := NewLoop(time.Millisecond)
	l.AddTask(PrLvNormal, 1, TaskFunc(func(ctx TickContext) error {
		select {
		case ticks <- ctx.Count():
		default:
		}
		return nil
	}))
	started := make(chan struct{})
	l.AddRunnable(RunFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	<-started
	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("no tick")
	}
	cancel()
	require.Equal(t, context.Canceled, <-done)
}

package sched

import (
	"context"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the tick interval of a zero Loop.
const DefaultInterval = 10 * time.Millisecond

// Loop runs tasks in priority order at a fixed interval.
// All tasks run on the goroutine calling Run.
type Loop struct {
	Interval time.Duration

	tasks   [PriorityLevels][]scheduledTask
	runners []Runnable
	count   uint64

	wakeUpCh chan struct{}
}

type scheduledTask struct {
	task    Task
	divider uint64
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type iteration struct {
	*Loop
	ctx           context.Context
	time          time.Time
	count         uint64
	priorityLevel int
}

// NewLoop creates a Loop.
func NewLoop(interval time.Duration) *Loop {
	return &Loop{Interval: interval, wakeUpCh: make(chan struct{}, 1)}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddTask registers tasks at priorityLevel. A task runs on every
// divider-th tick, 0 and 1 both mean every tick.
func (l *Loop) AddTask(priorityLevel int, divider uint64, tasks ...Task) *Loop {
	if divider == 0 {
		divider = 1
	}
	for _, t := range tasks {
		l.tasks[priorityLevel] = append(l.tasks[priorityLevel], scheduledTask{task: t, divider: divider})
		if runner, ok := t.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds background runners started by Run.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	runner := NewRunnerWith(ctx)
	runner.Go(l.runners...)
	defer runner.Wait()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Step(ctx)
		case <-l.wakeUpCh:
			l.runIteration(ctx, false)
		}
	}
}

// Step runs one timer tick.
func (l *Loop) Step(ctx context.Context) {
	l.runIteration(ctx, true)
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

func (l *Loop) runIteration(ctx context.Context, tick bool) {
	if tick {
		l.count++
	}
	iter := &iteration{Loop: l, ctx: ctx, time: time.Now(), count: l.count}
	for i := 0; i < PriorityLevels; i++ {
		iter.priorityLevel = i
		for _, st := range l.tasks[i] {
			if st.divider > 1 && (!tick || l.count%st.divider != 0) {
				continue
			}
			if err := st.task.Tick(iter); err != nil {
				glog.Errorf("task error at level %d: %v", i, err)
			}
		}
	}
}

func (t *iteration) Context() context.Context { return t.ctx }
func (t *iteration) Time() time.Time          { return t.time }
func (t *iteration) Count() uint64            { return t.count }
func (t *iteration) PriorityLevel() int       { return t.priorityLevel }

// Package sched runs the periodic tasks of the flight controller on a
// single goroutine and supervises the background runners feeding it.
package sched

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Task is the work done in a loop iteration.
type Task interface {
	Tick(TickContext) error
}

// TaskFunc is the func form of Task.
type TaskFunc func(TickContext) error

// Tick implements Task.
func (f TaskFunc) Tick(ctx TickContext) error {
	return f(ctx)
}

// TickContext describes the current iteration.
type TickContext interface {
	// Context retrieves context.Context.
	Context() context.Context
	// Time is when the iteration started.
	Time() time.Time
	// Count is the number of timer ticks so far, starting at 1.
	Count() uint64
	// PriorityLevel gets the current priority level.
	PriorityLevel() int

	LoopControl
}

// LoopControl exposes access to the loop.
type LoopControl interface {
	// TriggerNext schedules an extra iteration right after the current one.
	// Only tasks without a divider run in extra iterations.
	TriggerNext()
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 16

// Predefined priority levels, lower runs first.
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvReceive is for draining the links.
	PrLvReceive = PrLvHigh
	// PrLvProcess is for work on received data.
	PrLvProcess = PrLvNormal
	// PrLvTelemetry is for outgoing periodic messages.
	PrLvTelemetry = PrLvLow
)

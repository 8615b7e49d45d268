package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRunInvokesSweepOnCadence(t *testing.T) {
	sched := New(Options{Interval: 10 * time.Millisecond}, zerolog.Nop())

	ticks := make(chan time.Time, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sched.Run(ctx, func(ctx context.Context, tick time.Time) error {
			ticks <- tick
			return nil
		})
	}()

	for i := 0; i < 3; i++ {
		select {
		case tick := <-ticks:
			if tick.IsZero() {
				t.Fatal("tick 时间不应为零值")
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("tick %d 未在预期时间内触发", i+1)
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run 应返回 context.Canceled, 实际 %v", err)
	}
}

func TestRunSurvivesSweepErrors(t *testing.T) {
	sched := New(Options{Interval: 10 * time.Millisecond}, zerolog.Nop())

	calls := make(chan struct{}, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = sched.Run(ctx, func(ctx context.Context, tick time.Time) error {
			calls <- struct{}{}
			return errors.New("sweep exploded")
		})
	}()

	// A failing sweep must not stop the loop.
	for i := 0; i < 3; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("循环在第 %d 次失败后停止了", i)
		}
	}
}

func TestRunHonoursStartupDelay(t *testing.T) {
	sched := New(Options{Interval: time.Hour, StartupDelay: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sched.Run(ctx, func(ctx context.Context, tick time.Time) error {
		t.Error("延迟期间不应执行 sweep")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("应返回 context.Canceled, 实际 %v", err)
	}
}

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("非法 interval 应 panic")
		}
	}()
	New(Options{Interval: 0}, zerolog.Nop())
}

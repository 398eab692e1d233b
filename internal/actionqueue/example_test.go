package actionqueue_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Iron-Ham/actionqueue/internal/actionqueue"
)

func Example() {
	q := actionqueue.New(actionqueue.WithConcurrency(2))

	handles := make([]*actionqueue.Handle, 3)
	for i := range handles {
		handles[i] = q.Enqueue(func(ctx context.Context) (any, error) {
			time.Sleep(time.Duration(3-i) * 10 * time.Millisecond)
			return fmt.Sprintf("Action %d", i), nil
		})
	}

	for _, h := range handles {
		v, err := h.Result()
		fmt.Println(v, err)
	}
	// Output:
	// Action 0 <nil>
	// Action 1 <nil>
	// Action 2 <nil>
}

func ExampleQueue_Clear() {
	q := actionqueue.New(actionqueue.WithStartPaused(true))

	h := q.Enqueue(func(ctx context.Context) (any, error) { return "never", nil })
	q.Clear()

	_, err := h.Result()
	fmt.Println(errors.Is(err, actionqueue.ErrCleared), q.QueueSize())
	// Output: true 0
}

func ExampleQueue_SubscribeIdle() {
	q := actionqueue.New(actionqueue.WithStartPaused(true))

	done := make(chan struct{})
	busy := false
	cancel := q.SubscribeIdle(func(idle bool) {
		fmt.Println("idle:", idle)
		if !idle {
			busy = true
		} else if busy {
			close(done)
		}
	})
	defer cancel()

	q.Enqueue(func(ctx context.Context) (any, error) { return nil, nil })
	q.Resume()
	<-done
	// Output:
	// idle: true
	// idle: false
	// idle: true
}

func ExampleQueue_UpdateConcurrency() {
	q := actionqueue.New()

	err := q.UpdateConcurrency(0)
	fmt.Println(errors.Is(err, actionqueue.ErrInvalidConcurrency), q.Concurrency())

	_ = q.UpdateConcurrency(4)
	fmt.Println(q.Concurrency())
	// Output:
	// true 1
	// 4
}

func ExampleSubmit() {
	q := actionqueue.New()

	f := actionqueue.Submit(q, func(ctx context.Context) (int, error) {
		return 6 * 7, nil
	})
	n, err := f.Await(context.Background())
	fmt.Println(n, err)
	// Output: 42 <nil>
}

func ExampleValues() {
	q := actionqueue.New()

	h := q.Enqueue(func(ctx context.Context) (any, error) {
		return actionqueue.Values("first", "second"), nil
	})
	v, _ := h.Result()
	fmt.Println(v)
	// Output: first
}

package workerpool

import (
	"errors"
	"sync"
	"testing"
)

func TestSingleWorkerKeepsOrder(t *testing.T) {
	pool := NewWorkerPool(1, 8)
	defer pool.Close()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 20; i++ {
		i := i
		if err := pool.Submit(Task{Fn: func() (any, error) {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil, nil
		}}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	pool.Wait()

	if len(got) != 20 {
		t.Fatalf("expected 20 tasks to run, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("expected task %d at position %d, got %d", i, i, v)
		}
	}
}

func TestResultChannel(t *testing.T) {
	pool := NewWorkerPool(2, 1)
	defer pool.Close()

	boom := errors.New("boom")
	resCh := make(chan Result, 1)
	if err := pool.Submit(Task{Fn: func() (any, error) { return 42, boom }, ResultC: resCh}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	res := <-resCh
	if res.Value != 42 || !errors.Is(res.Err, boom) {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(1, 1)
	pool.Close()
	pool.Close()

	if err := pool.Submit(Task{Fn: func() (any, error) { return nil, nil }}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

package state

import (
	"errors"
	"sync"
	"testing"
)

func TestApplySerializes(t *testing.T) {
	// 50 goroutines each increment a plain (unsynchronized) counter through
	// Apply. Without mutual exclusion the read-modify-write races and the
	// final count comes up short; with it, every increment lands.
	counter := 0
	c := NewContainer(&counter)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Apply(func(state any) (any, error) {
				n := state.(*int)
				*n++
				return nil, nil
			})
		}()
	}
	wg.Wait()

	got, _ := c.Apply(func(state any) (any, error) {
		return *state.(*int), nil
	})
	if got != 50 {
		t.Errorf("counter = %v, want 50", got)
	}
}

func TestApplyErrorKeepsMutation(t *testing.T) {
	names := &[]string{}
	c := NewContainer(names)

	_, err := c.Apply(func(state any) (any, error) {
		s := state.(*[]string)
		*s = append(*s, "Gaspode")
		return nil, errors.New("failed after mutating")
	})
	if err == nil {
		t.Fatal("expected error from fn, got nil")
	}

	// The mutation is not rolled back: the next Apply sees it.
	got, _ := c.Apply(func(state any) (any, error) {
		return len(*state.(*[]string)), nil
	})
	if got != 1 {
		t.Errorf("len(names) = %v, want 1 (mutation must survive the error)", got)
	}
}

func TestApplyReleasesLockOnPanic(t *testing.T) {
	c := NewContainer(0)

	func() {
		defer func() { recover() }()
		c.Apply(func(state any) (any, error) {
			panic("handler bug")
		})
	}()

	// If the panic leaked the lock, this Apply would deadlock and the test
	// would time out.
	done := make(chan struct{})
	go func() {
		c.Apply(func(state any) (any, error) { return nil, nil })
		close(done)
	}()
	<-done
}

package browsing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsInOrder(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		loop.Dispatch(func() { got = append(got, i) })
	}

	var snapshot []int
	require.True(t, loop.Call(func() { snapshot = append(snapshot, got...) }))
	require.Len(t, snapshot, 100)
	for i, v := range snapshot {
		assert.Equal(t, i, v)
	}
}

func TestLoopDispatchFromInside(t *testing.T) {
	loop := NewLoop()
	go func() { _ = loop.Run(context.Background()) }()
	defer loop.Stop()

	var order []string
	require.True(t, loop.Call(func() {
		order = append(order, "outer")
		loop.Dispatch(func() { order = append(order, "inner") })
	}))
	require.True(t, loop.Call(func() {}))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestLoopConcurrentDispatch(t *testing.T) {
	loop := NewLoop()
	go func() { _ = loop.Run(context.Background()) }()
	defer loop.Stop()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				loop.Call(func() { counter++ })
			}
		}()
	}
	wg.Wait()

	var final int
	loop.Call(func() { final = counter })
	assert.Equal(t, 400, final)
}

func TestLoopStop(t *testing.T) {
	loop := NewLoop()
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(context.Background()) }()

	loop.Stop()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}

	assert.False(t, loop.Call(func() {}), "calls after stop are dropped")
	loop.Stop()
}

func TestLoopContextCancel(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	<-loop.Done()
}

func TestImmediate(t *testing.T) {
	ran := false
	Immediate.Dispatch(func() { ran = true })
	assert.True(t, ran)
}

package events

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type E1 struct{ A int }
type E2 struct{ S string }

func TestBus_SubscribePublish_TypeIsolation(t *testing.T) {
	var c1 int32

	cancel := Subscribe(func(ev E1) {
		atomic.AddInt32(&c1, int32(ev.A))
	})
	defer cancel()

	Publish(E1{A: 1})
	Publish(E1{A: 2})
	Publish(E2{S: "noop"})

	assert.Equal(t, int32(3), atomic.LoadInt32(&c1))
}

func TestBus_Cancel_Unsubscribe(t *testing.T) {
	var hits int32

	cancel := Subscribe(func(E1) { atomic.AddInt32(&hits, 1) })
	cancel()

	Publish(E1{A: 1})
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
	assert.Equal(t, 0, Count[E1]())
}

func TestBus_CancelOutOfOrderKeepsOthers(t *testing.T) {
	var a, b, c int32
	ca := Subscribe(func(E2) { atomic.AddInt32(&a, 1) })
	cb := Subscribe(func(E2) { atomic.AddInt32(&b, 1) })
	cc := Subscribe(func(E2) { atomic.AddInt32(&c, 1) })
	defer cc()

	ca()
	cb()
	Publish(E2{})

	assert.Equal(t, int32(0), atomic.LoadInt32(&a))
	assert.Equal(t, int32(0), atomic.LoadInt32(&b))
	assert.Equal(t, int32(1), atomic.LoadInt32(&c))
}

func TestBus_PanickingSubscriberDoesNotStopOthers(t *testing.T) {
	var hits int32
	c1 := Subscribe(func(E1) { panic("boom") })
	defer c1()
	c2 := Subscribe(func(E1) { atomic.AddInt32(&hits, 1) })
	defer c2()

	assert.NotPanics(t, func() { Publish(E1{A: 1}) })
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestBus_Concurrency_NoRaces(t *testing.T) {
	var hits int32

	cancel := Subscribe(func(E1) { atomic.AddInt32(&hits, 1) })
	defer cancel()

	const G = 50
	const N = 100
	var wg sync.WaitGroup
	wg.Add(G)
	for g := 0; g < G; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < N; i++ {
				Publish(E1{A: 1})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(G*N), atomic.LoadInt32(&hits))
}

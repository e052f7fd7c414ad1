package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type box struct{ id string }

func TestRegistry_GetCreatesOnce(t *testing.T) {
	created := 0
	r := NewRegistry(func(id string) *box {
		created++
		return &box{id: id}
	})

	a := r.Get("s1")
	b := r.Get("s1")

	assert.Same(t, a, b)
	assert.Equal(t, "s1", a.id)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	r := NewRegistry(func(id string) *box { return &box{id: id} })

	assert.NotSame(t, r.Get("a"), r.Get("b"))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_PeekDoesNotCreate(t *testing.T) {
	r := NewRegistry(func(id string) *box { return &box{id: id} })

	_, ok := r.Peek("x")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())

	r.Get("x")
	v, ok := r.Peek("x")
	assert.True(t, ok)
	assert.Equal(t, "x", v.id)
}

func TestRegistry_Delete(t *testing.T) {
	r := NewRegistry(func(id string) *box { return &box{id: id} })
	first := r.Get("x")

	r.Delete("x")
	r.Delete("missing")

	assert.Equal(t, 0, r.Len())
	assert.NotSame(t, first, r.Get("x"))
}

func TestRegistry_ConcurrentGet(t *testing.T) {
	var created int32
	r := NewRegistry(func(id string) *box {
		atomic.AddInt32(&created, 1)
		return &box{id: id}
	})

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Get("shared")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&created))
}

func TestRegistry_SweepDropsIdle(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(func(id string) *box { return &box{id: id} })
	r.now = func() time.Time { return clock }

	r.Get("old")
	r.Get("peeked")
	clock = clock.Add(30 * time.Minute)
	r.Get("fresh")
	_, _ = r.Peek("peeked")
	clock = clock.Add(45 * time.Minute)

	dropped := r.Sweep(time.Hour)

	assert.Equal(t, 1, dropped)
	assert.Equal(t, 2, r.Len())
	_, ok := r.Peek("old")
	assert.False(t, ok)
	_, ok = r.Peek("fresh")
	assert.True(t, ok)
	_, ok = r.Peek("peeked")
	assert.True(t, ok)
}

func TestRegistry_SweepKeepsActive(t *testing.T) {
	r := NewRegistry(func(id string) *box { return &box{id: id} })
	r.Get("a")

	assert.Equal(t, 0, r.Sweep(time.Hour))
	assert.Equal(t, 1, r.Len())
}

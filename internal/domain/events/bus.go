// Package events is a small in-process typed pub/sub used to tell the chat
// layer what the draft engine did.
package events

import (
	"reflect"
	"sync"

	"github.com/rs/zerolog/log"
)

type subscriber struct {
	id int
	fn func(any)
}

var (
	mu     sync.RWMutex
	nextID int
	subs   = map[string][]subscriber{} // type name -> subscribers
)

func typeNameOf[T any]() string {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	return rt.PkgPath() + "." + rt.Name()
}

// Subscribe registers fn for events of type T and returns its cancel func.
func Subscribe[T any](fn func(T)) func() {
	name := typeNameOf[T]()

	mu.Lock()
	nextID++
	id := nextID
	subs[name] = append(subs[name], subscriber{id: id, fn: func(v any) {
		if ev, ok := v.(T); ok {
			fn(ev)
		}
	}})
	mu.Unlock()

	return func() {
		mu.Lock()
		defer mu.Unlock()
		ss := subs[name]
		for i, s := range ss {
			if s.id == id {
				subs[name] = append(ss[:i:i], ss[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev synchronously to every subscriber of T. A panicking
// subscriber is logged and skipped.
func Publish[T any](ev T) {
	name := typeNameOf[T]()
	mu.RLock()
	ss := append([]subscriber(nil), subs[name]...)
	mu.RUnlock()

	for _, s := range ss {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("component", "bus").Str("event", name).Interface("panic", r).Msg("subscriber panic")
				}
			}()
			s.fn(ev)
		}()
	}
}

// Count returns how many subscribers T currently has.
func Count[T any]() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(subs[typeNameOf[T]()])
}

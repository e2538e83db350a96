package route

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	defaultDebounce   = 600 * time.Millisecond
	defaultMinAddrLen = 4
)

// Watcher drives reactive resolution while a user is still typing addresses.
// Each Update supersedes any pending or in-flight resolution: a generation
// counter is bumped and results belonging to an older generation are
// discarded on arrival. Resolution starts only after the addresses have been
// stable for the debounce window and both exceed the minimum length.
type Watcher struct {
	resolver *Resolver
	debounce time.Duration
	minLen   int

	onResult func(*RouteResult)
	onError  func(error)

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

// NewWatcher builds a watcher delivering outcomes through the two callbacks.
// Callbacks run on the resolution goroutine and are never invoked for a
// superseded trigger.
func NewWatcher(resolver *Resolver, onResult func(*RouteResult), onError func(error)) *Watcher {
	return &Watcher{
		resolver: resolver,
		debounce: defaultDebounce,
		minLen:   defaultMinAddrLen,
		onResult: onResult,
		onError:  onError,
	}
}

// Update records the latest address pair. Any earlier trigger is superseded
// immediately, even when the new pair is too short to resolve.
func (w *Watcher) Update(ctx context.Context, fromAddress, toAddress string) {
	from := strings.TrimSpace(fromAddress)
	to := strings.TrimSpace(toAddress)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.gen++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	if len(from) < w.minLen || len(to) < w.minLen {
		return
	}

	gen := w.gen
	w.timer = time.AfterFunc(w.debounce, func() {
		w.resolve(ctx, gen, from, to)
	})
}

func (w *Watcher) resolve(ctx context.Context, gen uint64, from, to string) {
	if w.stale(gen) {
		return
	}

	result, err := w.resolver.Resolve(ctx, from, to)

	// A newer trigger may have arrived while the resolution was in flight.
	if w.stale(gen) {
		return
	}

	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	if w.onResult != nil {
		w.onResult(result)
	}
}

func (w *Watcher) stale(gen uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return gen != w.gen
}

package watcher

import "time"

// Timer exposes the debounce timer type.
type Timer = timer

// SetAfterFunc replaces the debounce timer factory.
func (w *Watcher) SetAfterFunc(fn func(d time.Duration, f func()) Timer) { w.afterFunc = fn }

// Schedule starts or restarts the debounce for path.
func (w *Watcher) Schedule(path string) { w.schedule(path) }

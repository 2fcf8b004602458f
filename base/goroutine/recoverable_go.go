// Package goroutine runs functions with panic recovery so a bad event or
// background job never takes the process down.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/x-xyz/goledger/base/log"
)

// PanicEvent is a recovered panic with the stack of the panicking goroutine
type PanicEvent struct {
	Name  string
	Panic interface{}
	Stack []byte
}

func (e *PanicEvent) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("panic: %v", e.Panic)
	}
	return fmt.Sprintf("panic in %s: %v", e.Name, e.Panic)
}

type hooks struct {
	name    string
	logger  log.Logger
	onPanic []func(*PanicEvent)
}

type Option func(*hooks)

// Named tags the log line and PanicEvent with name
func Named(name string) Option {
	return func(h *hooks) {
		h.name = name
	}
}

// WithLogger reports the panic on l, e.g. a request scoped ctx.Ctx logger
func WithLogger(l log.Logger) Option {
	return func(h *hooks) {
		h.logger = l
	}
}

// OnPanic runs f after the panic is recovered and logged. Hooks run in the order given.
func OnPanic(f func(*PanicEvent)) Option {
	return func(h *hooks) {
		h.onPanic = append(h.onPanic, f)
	}
}

// Recoverable runs f on the calling goroutine. A panic is logged and returned
// as a PanicEvent, nil means f returned normally.
func Recoverable(f func(), opts ...Option) (event *PanicEvent) {
	h := hooks{logger: log.Log()}
	for _, o := range opts {
		o(&h)
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		event = &PanicEvent{Name: h.name, Panic: p, Stack: debug.Stack()}
		h.logger.WithFields(log.Fields{
			"err":   p,
			"name":  h.name,
			"stack": string(event.Stack),
		}).Error("panic recovered")
		for _, f := range h.onPanic {
			f(event)
		}
	}()

	f()
	return nil
}

// RecoverableGo runs f on a new goroutine. The returned channel yields the
// PanicEvent if f panics and is closed either way.
func RecoverableGo(f func(), opts ...Option) <-chan *PanicEvent {
	done := make(chan *PanicEvent, 1)
	go func() {
		defer close(done)
		if event := Recoverable(f, opts...); event != nil {
			done <- event
		}
	}()
	return done
}

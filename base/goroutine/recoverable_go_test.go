package goroutine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverableGo(t *testing.T) {
	res := []string{}

	ev := <-RecoverableGo(
		func() {
			res = append(res, "run task")
			panic("boom")
		},
		Named("job"),
		OnPanic(func(e *PanicEvent) {
			res = append(res, "first hook", e.Panic.(string))
		}),
		OnPanic(func(*PanicEvent) {
			res = append(res, "second hook")
		}),
	)

	assert.Equal(t, []string{"run task", "first hook", "boom", "second hook"}, res)
	if assert.NotNil(t, ev) {
		assert.Equal(t, "job", ev.Name)
		assert.EqualError(t, ev, "panic in job: boom")
	}
}

func TestRecoverableGoNoPanic(t *testing.T) {
	ran := false
	ev, ok := <-RecoverableGo(func() { ran = true })
	assert.True(t, ran)
	assert.False(t, ok)
	assert.Nil(t, ev)
}

func TestRecoverable(t *testing.T) {
	ev := Recoverable(func() { panic("boom") })
	if assert.NotNil(t, ev) {
		assert.Equal(t, "boom", ev.Panic)
		assert.NotEmpty(t, ev.Stack)
		assert.EqualError(t, ev, "panic: boom")
	}
	assert.Nil(t, Recoverable(func() {}))
}

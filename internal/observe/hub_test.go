package observe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_PublishInOrder(t *testing.T) {
	var h Hub[int]
	var got []string

	h.Subscribe(func(v int) { got = append(got, "a") })
	h.Subscribe(func(v int) { got = append(got, "b") })

	h.Publish(1)

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestHub_Cancel(t *testing.T) {
	var h Hub[string]
	var got []string

	cancel := h.Subscribe(func(v string) { got = append(got, v) })
	h.Publish("first")
	cancel()
	cancel()
	h.Publish("second")

	assert.Equal(t, []string{"first"}, got)
	assert.Equal(t, 0, h.Len())
}

func TestHub_SubscriberMayUnsubscribe(t *testing.T) {
	var h Hub[int]
	calls := 0

	var cancel func()
	cancel = h.Subscribe(func(int) {
		calls++
		cancel()
	})

	h.Publish(1)
	h.Publish(2)

	assert.Equal(t, 1, calls)
}

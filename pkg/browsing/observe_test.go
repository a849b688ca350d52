package browsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryPublishOrder(t *testing.T) {
	var r Registry[int]
	var got []string

	r.Subscribe(func(v int) { got = append(got, "a") })
	r.Subscribe(func(v int) { got = append(got, "b") })
	r.Publish(1)

	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryUnsubscribe(t *testing.T) {
	var r Registry[int]
	calls := 0
	sub := r.Subscribe(func(int) { calls++ })

	r.Publish(1)
	sub.Unsubscribe()
	sub.Unsubscribe()
	r.Publish(2)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, r.Len())

	var nilSub *Subscription
	assert.NotPanics(t, nilSub.Unsubscribe)
}

func TestRegistryMutationDuringPublish(t *testing.T) {
	var r Registry[int]
	var got []string
	var second *Subscription

	r.Subscribe(func(int) {
		got = append(got, "first")
		second.Unsubscribe()
		r.Subscribe(func(int) { got = append(got, "late") })
	})
	second = r.Subscribe(func(int) { got = append(got, "second") })

	r.Publish(1)
	assert.Equal(t, []string{"first"}, got)

	got = nil
	r.Publish(2)
	assert.Equal(t, []string{"first", "late"}, got)
}

func TestRegistryClear(t *testing.T) {
	var r Registry[string]
	calls := 0
	sub := r.Subscribe(func(string) { calls++ })
	r.Clear()
	r.Publish("x")
	sub.Unsubscribe()
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, r.Len())
}

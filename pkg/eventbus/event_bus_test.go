package eventbus_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/flock-suite/flock-sdk/pkg/eventbus"
)

type deniedEvent struct {
	Reason string
}

func newBus() eventbus.EventBus {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return eventbus.NewEventPublisher(logger)
}

func TestEventBus_DeliversToMatchingHandlers(t *testing.T) {
	bus := newBus()
	var got []deniedEvent
	bus.Subscribe(func(e deniedEvent) {
		got = append(got, e)
	})
	var strings []string
	bus.Subscribe(func(s string) {
		strings = append(strings, s)
	})

	bus.Publish(deniedEvent{Reason: "scope"})
	bus.Publish("batch.locked", 42)

	require.Equal(t, []deniedEvent{{Reason: "scope"}}, got)
	require.Empty(t, strings, "arity mismatch must not deliver")
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := newBus()
	calls := 0
	handler := func(deniedEvent) { calls++ }
	bus.Subscribe(handler)
	require.Equal(t, 1, bus.SubscribersCount())

	bus.Publish(deniedEvent{})
	bus.Unsubscribe(handler)
	require.Zero(t, bus.SubscribersCount())

	bus.Publish(deniedEvent{})
	require.Equal(t, 1, calls)
}

func TestEventBus_HandlerPanicDoesNotStopDelivery(t *testing.T) {
	bus := newBus()
	delivered := false
	bus.Subscribe(func(deniedEvent) { panic("handler bug") })
	bus.Subscribe(func(deniedEvent) { delivered = true })

	require.NotPanics(t, func() {
		bus.Publish(deniedEvent{})
	})
	require.True(t, delivered)
}

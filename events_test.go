package pulse

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskaudio/pulse/proto"
)

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("no event")
		return Event{}
	}
}

func TestObserve(t *testing.T) {
	srv := newServer(t)
	srv.Reply(proto.OpSubscribe, nil)
	c := connect(t, testConfig(srv))

	events := make(chan Event, 1)
	unregister := c.Observe(func(ev Event) { events <- ev })
	require.NoError(t, c.Subscribe(context.Background(), proto.SubscriptionMaskSink))

	var sub proto.Subscribe
	require.NoError(t, srv.Requests()[2].Decode(&sub))
	assert.Equal(t, proto.SubscriptionMaskSink, sub.Mask)

	require.NoError(t, srv.Event(proto.EventSink|proto.EventChange, 3))
	ev := nextEvent(t, events)
	assert.Equal(t, Event{Type: "change", Facility: "sink", Index: 3, Raw: proto.EventSink | proto.EventChange}, ev)

	unregister()
	unregister()
	require.NoError(t, srv.Event(proto.EventSink|proto.EventRemove, 3))
	select {
	case ev := <-events:
		t.Fatalf("event after unregister: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestObserverMayRequest(t *testing.T) {
	srv := newServer(t)
	srv.Reply(proto.OpGetServerInfo, &proto.GetServerInfoReply{PackageName: "pulseaudio", DefaultSinkName: alsaSinkName})
	c := connect(t, testConfig(srv))

	const n = 20
	got := make(chan Event, n)
	c.Observe(func(ev Event) {
		if _, err := c.ServerInfo(context.Background()); err != nil {
			t.Error(err)
		}
		got <- ev
	})

	for i := 0; i < n; i++ {
		require.NoError(t, srv.Event(proto.EventSinkInput|proto.EventNew, uint32(i)))
	}
	for i := 0; i < n; i++ {
		ev := nextEvent(t, got)
		assert.Equal(t, proto.Index(i), ev.Index, "events arrive in order")
		assert.Equal(t, "sink-input", ev.Facility)
		assert.Equal(t, "new", ev.Type)
	}
}

func TestEventQueueDrainsOnClose(t *testing.T) {
	var got []Event
	q := newEventQueue(func(Event) {})
	q.observe(func(ev Event) { got = append(got, ev) })
	q.push(Event{Index: 1})
	q.push(Event{Index: 2})
	q.close()
	q.push(Event{Index: 3})
	q.start()

	select {
	case <-q.done:
	case <-time.After(5 * time.Second):
		t.Fatal("queue did not stop")
	}
	assert.Equal(t, []Event{{Index: 1}, {Index: 2}}, got)
}

func TestMetrics(t *testing.T) {
	srv := newServer(t)
	srv.Reply(proto.OpGetServerInfo, &proto.GetServerInfoReply{PackageName: "pulseaudio"})

	m := NewMetrics()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	cfg := testConfig(srv)
	cfg.Metrics = m
	c := connect(t, cfg)

	seen := make(chan Event, 1)
	c.Observe(func(ev Event) { seen <- ev })

	_, err := c.ServerInfo(context.Background())
	require.NoError(t, err)
	assert.Error(t, c.KillClient(context.Background(), 1))
	require.NoError(t, srv.Event(proto.EventCard|proto.EventChange, 0))
	nextEvent(t, seen)

	values := map[string]float64{}
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			key := f.GetName()
			for _, l := range metric.GetLabel() {
				key += " " + l.GetName() + "=" + l.GetValue()
			}
			switch {
			case metric.GetCounter() != nil:
				values[key] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[key] = metric.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, 1.0, values["pulse_requests_total command=GetServerInfo"])
	assert.Equal(t, 1.0, values["pulse_requests_total command=KillClient"])
	assert.Equal(t, 1.0, values["pulse_request_errors_total command=KillClient error=19"])
	assert.Equal(t, 1.0, values["pulse_events_total facility=card type=change"])
	assert.Equal(t, float64(StateReady), values["pulse_connection_state"])
}

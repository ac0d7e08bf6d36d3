package mirror

import (
	"container/list"
	"context"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/fc.go/pkg/vehicle"
)

type published struct {
	topic   string
	payload []byte
	qos     byte
	retain  bool
}

type fakePublisher struct {
	msgs []published
}

func (p *fakePublisher) PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token {
	p.msgs = append(p.msgs, published{topic, payload, qos, retain})
	return &paho.DummyToken{}
}

func TestMatchTopic(t *testing.T) {
	testCases := []struct {
		topic, pattern string
		match          bool
	}{
		{"fc/1/meta", "+/+/meta", true},
		{"fc/1/status", "+/+/meta", false},
		{"fc/1", "+/+/meta", false},
		{"fc/1/meta/x", "+/+/meta", false},
		{"fc/1/meta", "fc/#", true},
		{"fc", "fc/#", true},
		{"fc/1/meta", "fc/1/meta", true},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.match, MatchTopic(tc.topic, tc.pattern), "%s ~ %s", tc.topic, tc.pattern)
	}
}

func TestClientOptionsFromURL(t *testing.T) {
	opts, prefix, err := ClientOptionsFromURL("mqtt://user:pw@broker:1883/robo/?client-id=gcs")
	require.NoError(t, err)
	require.Equal(t, "robo/", prefix)
	require.Len(t, opts.Servers, 1)
	require.Equal(t, "tcp://broker:1883", opts.Servers[0].String())
	require.Equal(t, "user", opts.Username)
	require.Equal(t, "pw", opts.Password)
	require.Equal(t, "gcs", opts.ClientID)

	opts, _, err = ClientOptionsFromURL("ssl://broker:8883")
	require.NoError(t, err)
	require.Equal(t, "ssl://broker:8883", opts.Servers[0].String())
}

func TestSnapshotPublish(t *testing.T) {
	s := vehicle.NewState()
	s.MavMode = vehicle.ModeFlagSafetyArmed
	s.Status = vehicle.StatusActive
	s.Fly = vehicle.PhaseFlying
	s.Position = vehicle.Vec3{X: 1, Y: 2, Z: -1}
	s.Setpoint.Yaw = 0.5
	s.GPSOK = true

	pub := &fakePublisher{}
	m := &Mirror{Ref: Ref{Type: "fc", ID: "q1"}, Publisher: pub}
	require.NoError(t, m.Publish(Snapshot(s, 1234)))
	require.Len(t, pub.msgs, 1)
	require.Equal(t, "fc/q1/status", pub.msgs[0].topic)
	require.False(t, pub.msgs[0].retain)

	var status Status
	require.NoError(t, proto.Unmarshal(pub.msgs[0].payload, &status))
	require.Equal(t, uint64(1234), status.TimeUsec)
	require.True(t, status.Armed)
	require.Equal(t, s.Status.String(), status.Status)
	require.Equal(t, s.Fly.String(), status.Phase)
	require.Equal(t, float32(-1), status.Position.Z)
	require.Equal(t, uint32(2), status.DropRate)
	require.True(t, status.GpsOk)

	m.publishMeta(nil)
	require.Equal(t, "fc/q1/meta", pub.msgs[1].topic)
	require.True(t, pub.msgs[1].retain)
	require.Equal(t, byte(1), pub.msgs[1].qos)
}

func TestNewMirrorRequiresRef(t *testing.T) {
	_, err := New("mqtt://localhost:1883/", Ref{Type: "fc"}, Meta{})
	require.Error(t, err)
	m, err := New("mqtt://localhost:1883/fleet/", Ref{Type: "fc", ID: "q1"}, Meta{SystemID: 42})
	require.NoError(t, err)
	require.JSONEq(t, `{"system_id":42}`, string(m.metaJSON))
	require.Equal(t, "fleet/", m.queue.TopicPrefix)
}

func TestParseMeta(t *testing.T) {
	v, ok := parseMeta("fc/q1/meta", []byte(`{"description":"quad","system_id":7}`))
	require.True(t, ok)
	require.Equal(t, Ref{Type: "fc", ID: "q1"}, v.Ref)
	require.Equal(t, uint8(7), v.Meta.SystemID)
	require.Equal(t, "quad", v.Meta.Description)
	require.Empty(t, v.Meta.Endpoint())

	v, ok = parseMeta("fc/q2/meta", []byte(`{"system_id":8,"labels":{"endpoint":"tcp://q2:5760"}}`))
	require.True(t, ok)
	require.Equal(t, "tcp://q2:5760", v.Meta.Endpoint())

	_, ok = parseMeta("fc/q1/meta", nil)
	require.False(t, ok)
	_, ok = parseMeta("fc/meta", []byte(`{}`))
	require.False(t, ok)
}

func TestQueueDeliver(t *testing.T) {
	q := &Queue{TopicPrefix: "robo/", subs: make(map[string]*list.List)}
	var got []string
	q.subs["+/+/meta"] = list.New()
	q.subs["+/+/meta"].PushBack(&Subscription{handler: func(topic string, payload []byte) {
		got = append(got, topic)
	}})
	q.deliver("robo/fc/q1/meta", nil)
	q.deliver("robo/fc/q1/status", nil)
	q.deliver("other/fc/q2/meta", nil)
	require.Equal(t, []string{"fc/q1/meta"}, got)
}

// retainedBroker replays retained messages on subscription.
type retainedBroker struct {
	paho.Client
	q        *Queue
	retained map[string][]byte
	unsubs   []string
}

func (b *retainedBroker) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	for t, payload := range b.retained {
		if MatchTopic(t, topic) {
			b.q.deliver(t, payload)
		}
	}
	return &paho.DummyToken{}
}

func (b *retainedBroker) Unsubscribe(topics ...string) paho.Token {
	b.unsubs = append(b.unsubs, topics...)
	return &paho.DummyToken{}
}

func newRetainedQueue(retained map[string][]byte) (*Queue, *retainedBroker) {
	q := &Queue{TopicPrefix: "fleet/", subs: make(map[string]*list.List)}
	b := &retainedBroker{q: q, retained: retained}
	q.Client = b
	return q, b
}

func TestCollectRetainedMeta(t *testing.T) {
	q, b := newRetainedQueue(map[string][]byte{
		"fleet/fc/q1/meta":   []byte(`{"system_id":1,"labels":{"endpoint":"tcp://q1:5760"}}`),
		"fleet/fc/q2/meta":   []byte(`{"description":"spare","system_id":2}`),
		"fleet/fc/q3/meta":   nil,
		"fleet/fc/q1/status": []byte(`ignored`),
		"other/fc/q4/meta":   []byte(`{"system_id":4}`),
	})
	vehicles, err := collect(context.Background(), q, 50*time.Millisecond)
	require.NoError(t, err)
	require.ElementsMatch(t, []Vehicle{
		{Ref: Ref{Type: "fc", ID: "q1"}, Meta: Meta{SystemID: 1, Labels: map[string]string{LabelEndpoint: "tcp://q1:5760"}}},
		{Ref: Ref{Type: "fc", ID: "q2"}, Meta: Meta{Description: "spare", SystemID: 2}},
	}, vehicles)
	require.Empty(t, q.subs)
	require.Equal(t, []string{"fleet/+/+/meta"}, b.unsubs)
}

func TestCollectCanceled(t *testing.T) {
	q, b := newRetainedQueue(map[string][]byte{
		"fleet/fc/q1/meta": []byte(`{"system_id":1}`),
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := collect(ctx, q, time.Hour)
	require.Equal(t, context.Canceled, err)
	require.Equal(t, []string{"fleet/+/+/meta"}, b.unsubs)
}

// Package mirror publishes the vehicle state to an MQTT broker so ground
// tools can discover and watch vehicles.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
)

const defaultPubTimeout = time.Second

// Ref identifies a vehicle on the broker.
type Ref struct {
	Type string
	ID   string
}

// Name is the topic path of the vehicle.
func (r Ref) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates Ref is usable.
func (r Ref) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// LabelEndpoint is the meta label carrying the ground station endpoint.
const LabelEndpoint = "endpoint"

// Meta is published retained while the vehicle is online.
type Meta struct {
	Description string            `json:"description,omitempty"`
	SystemID    uint8             `json:"system_id"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// Endpoint returns the announced ground station endpoint.
func (m Meta) Endpoint() string {
	return m.Labels[LabelEndpoint]
}

// DefaultID retrieves the unique ID identifying the machine.
func DefaultID() (string, error) {
	return machineid.ProtectedID("fccore")
}

// Publisher sends payloads to topics.
type Publisher interface {
	PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token
}

// Mirror publishes meta and status of one vehicle.
type Mirror struct {
	Ref       Ref
	Publisher Publisher

	queue    *Queue
	metaJSON []byte
}

// New creates a Mirror. The retained meta is cleared by the broker if the
// vehicle disconnects unexpectedly.
func New(brokerURL string, ref Ref, meta Meta) (*Mirror, error) {
	if !ref.IsValid() {
		return nil, fmt.Errorf("mirror: vehicle type and id must be specified")
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+ref.Name()+"/meta", nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("fc:" + ref.Name())
	}
	m := &Mirror{Ref: ref}
	if m.metaJSON, err = json.Marshal(&meta); err != nil {
		return nil, err
	}
	m.queue = NewQueue(opts, topicPrefix)
	m.queue.OnConnect = func(*Queue) { m.publishMeta(m.metaJSON) }
	m.Publisher = m.queue
	return m, nil
}

// Name implements sched.Named.
func (m *Mirror) Name() string {
	return "mirror"
}

// Run implements sched.Runnable.
func (m *Mirror) Run(ctx context.Context) error {
	m.queue.Connect()
	<-ctx.Done()
	m.publishMeta(nil).WaitTimeout(defaultPubTimeout)
	m.queue.Close()
	return nil
}

// Publish sends the status snapshot. It does not wait for delivery.
func (m *Mirror) Publish(status *Status) error {
	data, err := proto.Marshal(status)
	if err != nil {
		return err
	}
	m.Publisher.PubWith(m.Ref.Name()+"/status", data, 0, false)
	glog.V(3).Infof("mirror: %s", status)
	return nil
}

func (m *Mirror) publishMeta(meta []byte) paho.Token {
	return m.Publisher.PubWith(m.Ref.Name()+"/meta", meta, 1, true)
}

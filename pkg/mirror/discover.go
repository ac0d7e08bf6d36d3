package mirror

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang/glog"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Vehicle is a discovered vehicle.
type Vehicle struct {
	Ref  Ref
	Meta Meta
}

// Discover collects vehicles announcing meta on the broker until timeout.
func Discover(ctx context.Context, brokerURL string, timeout time.Duration) ([]Vehicle, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	defer q.Close()

	if timeout <= 0 {
		timeout = DefaultDiscoverTimeout
	}
	return collect(ctx, q, timeout)
}

func collect(ctx context.Context, q *Queue, timeout time.Duration) (res []Vehicle, err error) {
	resCh := make(chan Vehicle, 16)
	sub := q.Sub("+/+/meta", func(topic string, payload []byte) {
		if v, ok := parseMeta(topic, payload); ok {
			select {
			case resCh <- v:
			default:
			}
		}
	})
	defer sub.Close()

	deadline := time.After(timeout)
	for {
		select {
		case v := <-resCh:
			res = append(res, v)
		case <-deadline:
			return
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
}

func parseMeta(topic string, payload []byte) (Vehicle, bool) {
	items := strings.Split(topic, "/")
	// an empty retained payload means the vehicle went offline
	if len(items) != 3 || len(payload) == 0 {
		return Vehicle{}, false
	}
	v := Vehicle{Ref: Ref{Type: items[0], ID: items[1]}}
	if err := json.Unmarshal(payload, &v.Meta); err != nil {
		glog.Warningf("discover %s: %v", topic, err)
	}
	return v, true
}

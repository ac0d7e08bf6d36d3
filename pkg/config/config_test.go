package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/fc.go/pkg/link"
	"github.com/robotalks/fc.go/pkg/mav"
)

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "fc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
link2:
  endpoint: tcp://127.0.0.1:5760
  mode: gps
interval: 20ms
heartbeat_every: 50
setpoint_bounds:
  min: {x: -2, y: -2, z: -4}
  max: {x: 2, y: 2, z: 0}
mqtt: mqtt://broker:1883/fc/
`)
	conf, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "tcp://127.0.0.1:5760", conf.LinkEndpoint(mav.Channel2))
	require.Equal(t, link.ModeRawGPS, conf.LinkMode(mav.Channel2))
	require.Equal(t, link.ModeProtocol, conf.LinkMode(mav.Channel1))
	require.Equal(t, 20*time.Millisecond, conf.Interval)
	require.Equal(t, uint64(50), conf.HeartbeatEvery)
	require.Equal(t, uint64(5), conf.ParamPumpEvery)
	require.Equal(t, float32(-4), conf.SetpointBounds.Min.Z)
	require.Equal(t, float32(2), conf.SetpointBounds.Max.X)
	require.Equal(t, "mqtt://broker:1883/fc/", conf.MQTTBrokerURL)
}

func TestLoadInvalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		err     error
	}{
		{"gps on link1", "link1: {mode: gps}", link.ErrModeNotSupported},
		{"bounds", "setpoint_bounds: {min: {x: 1}, max: {x: 0}}", ErrBadBounds},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.content))
			require.True(t, errors.Is(err, tc.err), "%v", err)
		})
	}

	_, err := Load(writeFile(t, "link1: {mode: serial}"))
	require.Error(t, err)
	_, err = Load(writeFile(t, "interval: [1"))
	require.Error(t, err)
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestFlagsOverrideFile(t *testing.T) {
	conf := NewConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	conf.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-params", "/tmp/flag.pb"}))

	path := writeFile(t, "param_file: /tmp/file.pb\nvehicle_id: quad7\n")
	require.NoError(t, conf.LoadFile(path, fs))
	require.Equal(t, "/tmp/flag.pb", conf.ParamFile)
	require.Equal(t, "quad7", conf.VehicleID)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FC_LINK2":    "ws://gcs/link",
		"FC_MQTT_URL": "mqtt://m:1883/",
	}
	conf := NewConfig()
	conf.Link1.Endpoint = "tcp://a:1"
	conf.applyEnv(func(k string) string { return env[k] })
	require.Equal(t, "tcp://a:1", conf.Link1.Endpoint)
	require.Equal(t, "ws://gcs/link", conf.Link2.Endpoint)
	require.Equal(t, "mqtt://m:1883/", conf.MQTTBrokerURL)
}

func TestValidateFillsDefaults(t *testing.T) {
	conf := &Config{}
	require.NoError(t, conf.Validate())
	require.Equal(t, defaultConfig.Interval, conf.Interval)
	require.Equal(t, uint64(1), conf.ParamPumpEvery)
	require.Equal(t, "protocol", conf.Link2.Mode)
}

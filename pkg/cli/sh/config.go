package sh

import (
	"flag"
	"os"

	"github.com/robotalks/fc.go/pkg/gcs"
)

// Config defines how the shell finds and reaches vehicles.
type Config struct {
	// Endpoint connects directly, e.g. tcp://drone.local:5760
	Endpoint string
	// MQTTBrokerURL is used to discover vehicles.
	MQTTBrokerURL string
	Client        gcs.Config
}

var (
	defaultConfig = Config{Client: gcs.DefaultConfig}

	targetSystem    = uint(gcs.DefaultConfig.TargetSystem)
	targetComponent = uint(gcs.DefaultConfig.TargetComponent)
)

func init() {
	if val := os.Getenv("FCSH_ENDPOINT"); val != "" {
		defaultConfig.Endpoint = val
	}
	if val := os.Getenv("FC_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	c := &defaultConfig
	flag.StringVar(&c.Endpoint, "connect", c.Endpoint, "Vehicle endpoint to connect on start")
	flag.StringVar(&c.MQTTBrokerURL, "mqtt", c.MQTTBrokerURL, "MQTT broker URL for discovery")
	flag.DurationVar(&c.Client.Timeout, "timeout", c.Client.Timeout, "Reply timeout")
	flag.UintVar(&targetSystem, "target-sys", targetSystem, "Target system id")
	flag.UintVar(&targetComponent, "target-comp", targetComponent, "Target component id")
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Client.TargetSystem = uint8(targetSystem)
	conf.Client.TargetComponent = uint8(targetComponent)
	return &conf
}

// Package config holds the daemon configuration: built-in defaults,
// environment overrides, an optional YAML file and command line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/fc.go/pkg/link"
	"github.com/robotalks/fc.go/pkg/mav"
	"github.com/robotalks/fc.go/pkg/vehicle"
)

// LinkConfig configures one link. An empty endpoint leaves the link closed.
type LinkConfig struct {
	Endpoint string `yaml:"endpoint"`
	Mode     string `yaml:"mode"`
}

// Config defines the daemon configuration.
type Config struct {
	Link1 LinkConfig `yaml:"link1"`
	Link2 LinkConfig `yaml:"link2"`

	// ParamFile persists the parameter table, empty disables storage.
	ParamFile string `yaml:"param_file"`

	// Interval is the scheduler tick.
	Interval time.Duration `yaml:"interval"`
	// ParamPumpEvery and HeartbeatEvery are in ticks.
	ParamPumpEvery uint64 `yaml:"param_pump_every"`
	HeartbeatEvery uint64 `yaml:"heartbeat_every"`

	SetpointBounds  vehicle.Bounds `yaml:"setpoint_bounds"`
	CalibrationTime time.Duration  `yaml:"calibration_time"`
	IndicatorPin    int            `yaml:"indicator_pin"`

	// MQTTBrokerURL enables the status mirror,
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL  string        `yaml:"mqtt"`
	VehicleType    string        `yaml:"vehicle_type"`
	VehicleID      string        `yaml:"vehicle_id"`
	MirrorInterval time.Duration `yaml:"mirror_interval"`
	// Announce is the ground station endpoint published in the mirror
	// meta, e.g. tcp://drone.local:5760
	Announce string `yaml:"announce"`
}

var defaultConfig = Config{
	Link1:          LinkConfig{Endpoint: "serial:///dev/ttyS0?baud=115200", Mode: "protocol"},
	Link2:          LinkConfig{Mode: "protocol"},
	ParamFile:      "params.pb",
	Interval:       10 * time.Millisecond,
	ParamPumpEvery: 5,
	HeartbeatEvery: 100,
	SetpointBounds: vehicle.NewState().SetpointBounds,

	CalibrationTime: 3 * time.Second,
	VehicleType:     "fc",
	MirrorInterval:  time.Second,
}

func init() {
	defaultConfig.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) {
	if val := getenv("FC_LINK1"); val != "" {
		c.Link1.Endpoint = val
	}
	if val := getenv("FC_LINK2"); val != "" {
		c.Link2.Endpoint = val
	}
	if val := getenv("FC_PARAMS"); val != "" {
		c.ParamFile = val
	}
	if val := getenv("FC_MQTT_URL"); val != "" {
		c.MQTTBrokerURL = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	defaultConfig.BindFlags(flag.CommandLine)
}

// BindFlags registers flags writing into c.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Link1.Endpoint, "link1", c.Link1.Endpoint, "Onboard computer link endpoint")
	fs.StringVar(&c.Link1.Mode, "link1-mode", c.Link1.Mode, "Link1 mode: protocol, forward")
	fs.StringVar(&c.Link2.Endpoint, "link2", c.Link2.Endpoint, "External link endpoint")
	fs.StringVar(&c.Link2.Mode, "link2-mode", c.Link2.Mode, "Link2 mode: protocol, gps, forward")
	fs.StringVar(&c.ParamFile, "params", c.ParamFile, "Parameter file")
	fs.DurationVar(&c.Interval, "interval", c.Interval, "Scheduler tick interval")
	fs.IntVar(&c.IndicatorPin, "indicator-pin", c.IndicatorPin, "GPIO pin of the forwarding LED, 0 to disable")
	fs.StringVar(&c.MQTTBrokerURL, "mqtt", c.MQTTBrokerURL, "MQTT broker URL for the status mirror")
	fs.StringVar(&c.VehicleID, "id", c.VehicleID, "Vehicle ID, machine ID if empty")
	fs.StringVar(&c.Announce, "announce", c.Announce, "Ground station endpoint announced by the mirror")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	conf := NewConfig()
	if err := conf.merge(path); err != nil {
		return nil, err
	}
	return conf, conf.Validate()
}

func (c *Config) merge(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// LoadFile merges a YAML file into c while keeping the values of flags
// explicitly set on fs.
func (c *Config) LoadFile(path string, fs *flag.FlagSet) error {
	set := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = f.Value.String()
	})
	if err := c.merge(path); err != nil {
		return err
	}
	for name, val := range set {
		if err := fs.Set(name, val); err != nil {
			return err
		}
	}
	return nil
}

// Validate fills unset values and checks the configuration.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		c.Interval = defaultConfig.Interval
	}
	if c.ParamPumpEvery == 0 {
		c.ParamPumpEvery = 1
	}
	if c.HeartbeatEvery == 0 {
		c.HeartbeatEvery = 1
	}
	if c.MirrorInterval <= 0 {
		c.MirrorInterval = time.Second
	}
	if c.Link1.Mode == "" {
		c.Link1.Mode = link.ModeProtocol.String()
	}
	if c.Link2.Mode == "" {
		c.Link2.Mode = link.ModeProtocol.String()
	}
	for i, lc := range []LinkConfig{c.Link1, c.Link2} {
		mode, err := link.ParseMode(lc.Mode)
		if err != nil {
			return err
		}
		if !mode.Supported(mav.Channels[i]) {
			return fmt.Errorf("link%d: %w", i+1, link.ErrModeNotSupported)
		}
	}
	b := c.SetpointBounds
	if b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z {
		return ErrBadBounds
	}
	return nil
}

// ErrBadBounds indicates a setpoint bound with min above max.
var ErrBadBounds = errors.New("config: setpoint bounds min exceeds max")

// LinkMode returns the parsed mode of ch's link.
func (c *Config) LinkMode(ch mav.Channel) link.Mode {
	lc := c.Link1
	if ch == mav.Channel2 {
		lc = c.Link2
	}
	mode, _ := link.ParseMode(lc.Mode)
	return mode
}

// LinkEndpoint returns the endpoint of ch's link.
func (c *Config) LinkEndpoint(ch mav.Channel) string {
	if ch == mav.Channel2 {
		return c.Link2.Endpoint
	}
	return c.Link1.Endpoint
}

// Package sh is the interactive ground shell.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/fc.go/pkg/gcs"
	"github.com/robotalks/fc.go/pkg/mirror"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *Config
	Client *gcs.Client
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&VehiclesCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Client == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Print writes v as JSON when requested, otherwise text.
func Print(c *ishell.Context, v interface{}, text string) {
	if !ShellFrom(c).OutputJSON {
		c.Println(text)
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// FormatVehicle prints a discovered vehicle for display.
func FormatVehicle(v mirror.Vehicle) string {
	str := v.Ref.Name()
	if ep := v.Meta.Endpoint(); ep != "" {
		str += " @" + ep
	}
	if v.Meta.Description != "" {
		str += ": " + v.Meta.Description
	}
	return str
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// DiscoverVehicles lists vehicles announced on the broker.
func (s *Shell) DiscoverVehicles(filter func(mirror.Vehicle) bool) ([]mirror.Vehicle, error) {
	if s.Config.MQTTBrokerURL == "" {
		return nil, fmt.Errorf("MQTT broker URL not configured")
	}
	vehicles, err := mirror.Discover(context.TODO(), s.Config.MQTTBrokerURL, mirror.DefaultDiscoverTimeout)
	if err != nil {
		return nil, err
	}
	items := make([]mirror.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if filter == nil || filter(v) {
			items = append(items, v)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Ref.Name() < items[j].Ref.Name()
	})
	return items, nil
}

// SelectVehicle discovers reachable vehicles and asks for a choice.
func (s *Shell) SelectVehicle(filter func(mirror.Vehicle) bool) (*mirror.Vehicle, error) {
	vehicles, err := s.DiscoverVehicles(func(v mirror.Vehicle) bool {
		return v.Meta.Endpoint() != "" && (filter == nil || filter(v))
	})
	if err != nil || len(vehicles) == 0 {
		return nil, err
	}
	var index int
	if len(vehicles) > 1 {
		if !s.Interactive {
			return nil, fmt.Errorf("more than 1 vehicles discovered in non-interactive mode")
		}
		items := make([]string, len(vehicles))
		for n, v := range vehicles {
			items[n] = FormatVehicle(v)
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
	}
	return &vehicles[index], nil
}

// Connect connects the vehicle at endpoint.
func (s *Shell) Connect(endpoint string) error {
	conf := s.Config.Client
	conf.Endpoint = endpoint
	client, err := gcs.Dial(conf)
	if err != nil {
		return err
	}
	s.Disconnect()
	s.Client = client
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", endpoint))
	return nil
}

// Disconnect disconnects current vehicle.
func (s *Shell) Disconnect() {
	if s.Client != nil {
		s.Client.Close()
		s.Client = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Disconnect()
	if s.AutoConnect && s.Config.Endpoint != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Endpoint)
		}
		if err := s.Connect(s.Config.Endpoint); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Endpoint, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// VehiclesCmd discovers vehicles.
	VehiclesCmd = ishell.Cmd{
		Name:    "vehicles",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			vehicles, err := s.DiscoverVehicles(nil)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				out, err := json.Marshal(vehicles)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(vehicles) == 0 {
				c.Println("No vehicles found")
				return
			}
			for _, v := range vehicles {
				c.Println(FormatVehicle(v))
			}
		},
	}

	// ConnectCmd connects a vehicle.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "ENDPOINT | TYPE ID",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var endpoint string
			if len(c.Args) == 1 {
				endpoint = c.Args[0]
			} else {
				var filter func(mirror.Vehicle) bool
				if len(c.Args) >= 2 {
					ref := mirror.Ref{Type: c.Args[0], ID: c.Args[1]}
					filter = func(v mirror.Vehicle) bool {
						return v.Ref == ref
					}
				}
				v, err := s.SelectVehicle(filter)
				if err != nil {
					c.Err(err)
					return
				}
				if v == nil {
					c.Err(fmt.Errorf("no vehicle discovered"))
					return
				}
				endpoint = v.Meta.Endpoint()
			}
			if err := s.Connect(endpoint); err != nil {
				c.Err(err)
				return
			}
		},
	}

	// DisconnectCmd disconnects current vehicle.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}

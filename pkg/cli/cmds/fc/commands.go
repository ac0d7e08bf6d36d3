// Package fc exposes flight controller requests as shell commands.
package fc

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/fc.go/pkg/cli/sh"
	"github.com/robotalks/fc.go/pkg/gcs"
	"github.com/robotalks/fc.go/pkg/vehicle"
)

func parseFloats(c *ishell.Context, names ...string) ([]float32, bool) {
	if len(c.Args) < len(names) {
		c.Err(fmt.Errorf("%s required", strings.Join(names, " ")))
		return nil, false
	}
	vals := make([]float32, len(names))
	for n, name := range names {
		val, err := strconv.ParseFloat(c.Args[n], 32)
		if err != nil {
			c.Err(fmt.Errorf("Invalid %s: %v", name, err))
			return nil, false
		}
		vals[n] = float32(val)
	}
	return vals, true
}

func formatParam(p gcs.Param) string {
	return fmt.Sprintf("[%d/%d] %s = %v", p.Index, p.Count, p.Name, p.Value)
}

func setMode(c *ishell.Context, armed bool) {
	client := sh.ShellFrom(c).Client
	mode := client.Status().Heartbeat
	var base uint8
	if mode != nil {
		base = uint8(mode.BaseMode)
	}
	if armed {
		base |= vehicle.ModeFlagSafetyArmed
	} else {
		base &^= vehicle.ModeFlagSafetyArmed
	}
	if err := client.SetMode(context.TODO(), base); err != nil {
		c.Err(err)
		return
	}
	c.Println("OK")
}

var (
	// PingCmd measures the round trip time.
	PingCmd = ishell.Cmd{
		Name: "ping",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			rtt, unixUsec, err := sh.ShellFrom(c).Client.Ping(context.TODO())
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, map[string]interface{}{"rtt": rtt.String(), "time_usec": unixUsec},
				fmt.Sprintf("rtt=%s vehicle time=%d", rtt, unixUsec))
		}),
	}

	// ParamsCmd lists all parameters.
	ParamsCmd = ishell.Cmd{
		Name:    "params",
		Aliases: []string{"pl"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			list, err := sh.ShellFrom(c).Client.ListParams(context.TODO())
			if err != nil {
				c.Err(err)
				return
			}
			lines := make([]string, len(list))
			for n, p := range list {
				lines[n] = formatParam(p)
			}
			sh.Print(c, list, strings.Join(lines, "\n"))
		}),
	}

	// GetCmd reads a parameter.
	GetCmd = ishell.Cmd{
		Name:    "get",
		Aliases: []string{"pg"},
		Help:    "NAME|INDEX",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("NAME required"))
				return
			}
			client := sh.ShellFrom(c).Client
			var p gcs.Param
			var err error
			if index, e := strconv.Atoi(c.Args[0]); e == nil {
				p, err = client.ReadParamAt(context.TODO(), index)
			} else {
				p, err = client.ReadParam(context.TODO(), c.Args[0])
			}
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, p, formatParam(p))
		}),
	}

	// SetCmd writes a parameter.
	SetCmd = ishell.Cmd{
		Name:    "set",
		Aliases: []string{"ps"},
		Help:    "NAME VALUE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("NAME VALUE required"))
				return
			}
			val, err := strconv.ParseFloat(c.Args[1], 32)
			if err != nil {
				c.Err(fmt.Errorf("Invalid VALUE: %v", err))
				return
			}
			p, err := sh.ShellFrom(c).Client.SetParam(context.TODO(), c.Args[0], float32(val))
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, p, formatParam(p))
		}),
	}

	// SetpointCmd sends a local position setpoint.
	SetpointCmd = ishell.Cmd{
		Name:    "setpoint",
		Aliases: []string{"sp"},
		Help:    "X(m) Y(m) Z(m, down) YAW(degrees)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			vals, ok := parseFloats(c, "X", "Y", "Z", "YAW")
			if !ok {
				return
			}
			sh.ShellFrom(c).Client.SendSetpoint(vals[0], vals[1], vals[2], vals[3])
			c.Println("OK")
		}),
	}

	// StorageCmd loads or saves parameters on the vehicle.
	StorageCmd = ishell.Cmd{
		Name: "storage",
		Help: "load|save",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 || (c.Args[0] != "load" && c.Args[0] != "save") {
				c.Err(fmt.Errorf("load or save required"))
				return
			}
			sh.ShellFrom(c).Client.Storage(c.Args[0] == "save")
			c.Println("OK")
		}),
	}

	// CalibrateCmd starts gyro calibration.
	CalibrateCmd = ishell.Cmd{
		Name:    "calibrate",
		Aliases: []string{"cal"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.ShellFrom(c).Client.Calibrate()
			c.Println("OK")
		}),
	}

	// StreamCmd enables or disables a telemetry stream.
	StreamCmd = ishell.Cmd{
		Name: "stream",
		Help: "ID on|off",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("ID on|off required"))
				return
			}
			id, err := strconv.ParseUint(c.Args[0], 10, 8)
			if err != nil {
				c.Err(fmt.Errorf("Invalid ID: %v", err))
				return
			}
			var on bool
			switch c.Args[1] {
			case "on":
				on = true
			case "off":
			default:
				c.Err(fmt.Errorf("on or off expected"))
				return
			}
			sh.ShellFrom(c).Client.Stream(uint8(id), on)
			c.Println("OK")
		}),
	}

	// ArmCmd sets the armed flag.
	ArmCmd = ishell.Cmd{
		Name: "arm",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			setMode(c, true)
		}),
	}

	// DisarmCmd clears the armed flag.
	DisarmCmd = ishell.Cmd{
		Name: "disarm",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			setMode(c, false)
		}),
	}

	// TimeSyncCmd sends the local time to the vehicle.
	TimeSyncCmd = ishell.Cmd{
		Name: "timesync",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.ShellFrom(c).Client.SyncTime(time.Now())
			c.Println("OK")
		}),
	}

	// StatusCmd prints the latest heartbeat and system status.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			st := sh.ShellFrom(c).Client.Status()
			if st.Heartbeat == nil {
				c.Err(fmt.Errorf("no heartbeat received"))
				return
			}
			text := fmt.Sprintf("mode=0x%02x status=%d age=%s",
				uint8(st.Heartbeat.BaseMode), st.Heartbeat.SystemStatus,
				time.Since(st.Received).Truncate(time.Millisecond))
			if st.SysStatus != nil {
				text += fmt.Sprintf(" load=%d drop=%d", st.SysStatus.Load, st.SysStatus.DropRateComm)
			}
			sh.Print(c, st, text)
		}),
	}
)

func init() {
	sh.AddCmds(
		&PingCmd,
		&ParamsCmd,
		&GetCmd,
		&SetCmd,
		&SetpointCmd,
		&StorageCmd,
		&CalibrateCmd,
		&StreamCmd,
		&ArmCmd,
		&DisarmCmd,
		&TimeSyncCmd,
		&StatusCmd,
	)
}

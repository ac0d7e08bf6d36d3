package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/fc.go/pkg/config"
	"github.com/robotalks/fc.go/pkg/daemon"
	"github.com/robotalks/fc.go/pkg/sched"
)

var configFile string

func init() {
	config.SetupFlags()
	flag.StringVar(&configFile, "config", configFile, "YAML config file")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := config.Default()
	if configFile != "" {
		if err := conf.LoadFile(configFile, flag.CommandLine); err != nil {
			glog.Exitf("load config: %v", err)
		}
	}
	if err := conf.Validate(); err != nil {
		glog.Exitf("config: %v", err)
	}

	d, err := daemon.New(conf)
	if err != nil {
		glog.Exitf("init: %v", err)
	}
	err = sched.NewRunner().HandleSignals().Go(sched.RunFunc(d.Run)).Wait()
	if err != nil {
		glog.Exit(err)
	}
}

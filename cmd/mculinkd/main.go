package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/golang/glog"

	fx "github.com/robotalks/mculink/pkg/framework"
	env "github.com/robotalks/mculink/pkg/l1/env/device"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := env.NewConfig()
	if err != nil {
		log.Fatalln(err)
	}
	e := conf.MustNewEnv()
	addrs, err := e.Listen()
	if err != nil {
		log.Fatalln(err)
	}
	for name, addr := range addrs {
		glog.Infof("%s listening on %s", name, addr)
	}
	glog.Infof("device %s started", conf.Info.Ref.Name())

	runner := fx.NewRunner().HandleSignals().StopOnError()
	e.Go(runner)
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}

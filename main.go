package main

import (
	goflag "flag"
	"os"

	"github.com/golang/glog"
	"github.com/zeu5/flappy-rl/cmd"
)

func main() {
	goflag.Set("logtostderr", "true")
	goflag.CommandLine.Parse([]string{})
	defer glog.Flush()

	if err := cmd.RootCommand().Execute(); err != nil {
		glog.Flush()
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Osdague92/fullstack-docker/pkg/cli"
	"github.com/Osdague92/fullstack-docker/pkg/client"
	"github.com/Osdague92/fullstack-docker/pkg/config"
	"github.com/Osdague92/fullstack-docker/pkg/logging"
)

func main() {
	config.LoadDotEnv()
	cfg := config.LoadClient()

	logFile, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(logFile, "itemctl", cfg.LogLevel, false)

	c, err := client.New(cfg.APIURL, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	code := cli.Run(context.Background(), os.Args[1:], cli.Options{
		Client: c,
		Logger: logger,
		In:     os.Stdin,
		Out:    os.Stdout,
		Err:    os.Stderr,
	})
	_ = logFile.Close()
	os.Exit(code)
}

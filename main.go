// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/orosnet/orosd/infrastructure/config"
	"github.com/orosnet/orosd/infrastructure/os/execenv"
	"github.com/orosnet/orosd/infrastructure/os/signal"
	"github.com/orosnet/orosd/util/panics"
	"github.com/orosnet/orosd/util/profiling"
	"github.com/orosnet/orosd/version"
)

func main() {
	defer panics.HandlePanic(log, nil)
	execenv.Initialize()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// another subsystem.
	interrupt := signal.InterruptListener()

	log.Infof("Version %s", version.Version())

	if cfg.Profile != "" {
		profiling.Start(cfg.Profile, log)
	}

	node, err := newOrosd(cfg)
	if err != nil {
		log.Errorf("Failed to start orosd: %+v", err)
		os.Exit(1)
	}
	defer func() {
		log.Infof("Gracefully shutting down orosd...")
		node.stop()
		log.Infof("Orosd shutdown complete")
	}()

	node.start()

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through one of the subsystems.
	<-interrupt
}

// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// padctl is a headless client for encrypted drives and direct messages.
package main

import (
	"os"

	"github.com/padcomm/padctl/log"
	"github.com/padcomm/padctl/padengine"
	"github.com/padcomm/padctl/release"
	"github.com/padcomm/padctl/util"
	"github.com/padcomm/padctl/util/interrupt"
	"github.com/urfave/cli"
)

func init() {
	cli.VersionPrinter = release.PrintVersion
}

func padctlMain() error {
	defer log.Flush()

	// create pad engine
	pe := padengine.New()
	defer pe.Close()

	// add interrupt handler
	interrupt.AddInterruptHandler(func() {
		log.Infof("gracefully shutting down...")
		pe.Close()
	})

	// run pad engine
	go func() {
		if err := pe.Run(os.Args); err != nil {
			interrupt.ShutdownChannel <- err
			return
		}
		interrupt.ShutdownChannel <- nil
	}()

	return <-interrupt.ShutdownChannel
}

func main() {
	// work around defer not working after os.Exit()
	if err := padctlMain(); err != nil {
		util.Fatal(err)
	}
}

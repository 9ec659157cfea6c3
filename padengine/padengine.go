// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package padengine implements the command engine for padctl.
package padengine

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/padcomm/padctl/config"
	"github.com/padcomm/padctl/def"
	"github.com/padcomm/padctl/def/version"
	"github.com/padcomm/padctl/log"
	"github.com/padcomm/padctl/util"
	"github.com/urfave/cli"
)

var (
	defaultHomeDir = appDataDir()
	defaultConfig  = filepath.Join(defaultHomeDir, "padctl.toml")
	defaultLogDir  = filepath.Join(defaultHomeDir, "log")
)

func appDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "padctl")
}

// PadEngine abstracts a padctl command engine.
type PadEngine struct {
	cfg      *config.Config
	username string
	passfd   int
	out      io.Writer
	// readPassword reads the password, from passfd by default.
	readPassword func() ([]byte, error)
	ctx          context.Context
	cancel       context.CancelFunc
	app          *cli.App
	err          error
}

func (pe *PadEngine) loadConfig(c *cli.Context) error {
	cfg, err := config.ParseFile(c.GlobalString("config"))
	if err != nil {
		return err
	}
	if c.GlobalIsSet("base-url") {
		cfg.Endpoints.BaseURL = c.GlobalString("base-url")
	}
	if c.GlobalIsSet("ws-url") {
		cfg.Endpoints.WebSocketURL = c.GlobalString("ws-url")
	}
	if c.GlobalIsSet("history-keeper") {
		cfg.Relay.HistoryKeeper = c.GlobalString("history-keeper")
	}
	if c.GlobalIsSet("loglevel") || cfg.Logging.Level == "" {
		cfg.Logging.Level = c.GlobalString("loglevel")
	}
	if c.GlobalIsSet("logdir") || cfg.Logging.Dir == "" {
		cfg.Logging.Dir = c.GlobalString("logdir")
	}
	if c.GlobalBool("logconsole") {
		cfg.Logging.Console = true
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return err
	}
	pe.cfg = cfg
	return nil
}

func (pe *PadEngine) prepare(c *cli.Context) error {
	if err := pe.loadConfig(c); err != nil {
		return err
	}
	pe.username = c.GlobalString("username")
	pe.passfd = c.GlobalInt("passphrase-fd")
	if pe.out == nil {
		pe.out = os.NewFile(uintptr(c.GlobalInt("output-fd")), "output-fd")
	}

	// create the necessary directories if they don't already exist
	if err := util.CreateDirs(pe.cfg.Logging.Dir); err != nil {
		return err
	}

	// init logging framework
	if err := log.InitOpts(pe.cfg.Logging, "pctl "); err != nil {
		return err
	}

	// configure
	return def.Init(pe.cfg)
}

func noArgs(c *cli.Context) error {
	if len(c.Args()) > 0 {
		return log.Errorf("superfluous argument(s): %s", strings.Join(c.Args(), " "))
	}
	return nil
}

func nArgs(n int, usage string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		if len(c.Args()) < n {
			return log.Errorf("usage: %s", usage)
		}
		if len(c.Args()) > n {
			return log.Errorf("superfluous argument(s): %s", strings.Join(c.Args()[n:], " "))
		}
		return nil
	}
}

// New returns a new padctl engine.
func New() *PadEngine {
	var pe PadEngine
	pe.ctx, pe.cancel = context.WithCancel(context.Background())
	pe.readPassword = pe.readPasswordFd
	pe.app = cli.NewApp()
	pe.app.Usage = "headless client for encrypted drives and direct messages"
	pe.app.Version = version.Number
	pe.app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Value: defaultConfig,
			Usage: "configuration file",
		},
		cli.StringFlag{
			Name:  "base-url",
			Usage: "HTTP origin of the service (overrides config)",
		},
		cli.StringFlag{
			Name:  "ws-url",
			Usage: "WebSocket URL of the relay (overrides config)",
		},
		cli.StringFlag{
			Name:  "history-keeper",
			Usage: "peer ID of the history keeper (overrides config)",
		},
		cli.StringFlag{
			Name:  "username",
			Usage: "account name",
		},
		cli.IntFlag{
			Name:  "passphrase-fd",
			Value: int(syscall.Stdin),
			Usage: "password file descriptor",
		},
		cli.IntFlag{
			Name:  "output-fd",
			Value: int(syscall.Stdout),
			Usage: "output file descriptor",
		},
		cli.StringFlag{
			Name:  "loglevel",
			Value: "info",
			Usage: "logging level {trace, debug, info, warn, error, critical}",
		},
		cli.StringFlag{
			Name:  "logdir",
			Value: defaultLogDir,
			Usage: "directory to log output",
		},
		cli.BoolFlag{
			Name:  "logconsole",
			Usage: "enable logging to console",
		},
	}
	pe.app.Before = func(c *cli.Context) error {
		return pe.prepare(c)
	}
	pe.app.Commands = []cli.Command{
		{
			Name:   "derive",
			Usage:  "show the locations derived from the credentials (offline)",
			Before: noArgs,
			Action: func(c *cli.Context) {
				pe.err = pe.derive()
			},
		},
		{
			Name:   "login",
			Usage:  "log in and show the identity",
			Before: noArgs,
			Action: func(c *cli.Context) {
				pe.err = pe.login()
			},
		},
		{
			Name:   "contacts",
			Usage:  "list contacts",
			Before: noArgs,
			Action: func(c *cli.Context) {
				pe.err = pe.contacts()
			},
		},
		{
			Name:   "send",
			Usage:  "send a direct message to a contact",
			Before: nArgs(2, "send <contact> <text>"),
			Action: func(c *cli.Context) {
				pe.err = pe.send(c.Args().Get(0), c.Args().Get(1))
			},
		},
		{
			Name:   "messages",
			Usage:  "show the conversation with a contact",
			Before: nArgs(1, "messages <contact>"),
			Action: func(c *cli.Context) {
				pe.err = pe.messages(c.Args().First())
			},
		},
		{
			Name:   "requests",
			Usage:  "list pending friend requests",
			Before: noArgs,
			Action: func(c *cli.Context) {
				pe.err = pe.requests()
			},
		},
		{
			Name:  "friend-request",
			Usage: "send a friend request",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "curve-public",
					Usage: "curve public key of the recipient",
				},
				cli.StringFlag{
					Name:  "notifications",
					Usage: "mailbox channel of the recipient",
				},
				cli.StringFlag{
					Name:  "display-name",
					Usage: "display name of the recipient",
				},
			},
			Before: func(c *cli.Context) error {
				if err := noArgs(c); err != nil {
					return err
				}
				if !c.IsSet("curve-public") {
					return log.Error("option --curve-public is mandatory")
				}
				if !c.IsSet("notifications") {
					return log.Error("option --notifications is mandatory")
				}
				return nil
			},
			Action: func(c *cli.Context) {
				pe.err = pe.friendRequest(c.String("curve-public"),
					c.String("notifications"), c.String("display-name"))
			},
		},
		{
			Name:   "accept",
			Usage:  "accept a friend request",
			Before: nArgs(1, "accept <contact>"),
			Action: func(c *cli.Context) {
				pe.err = pe.accept(c.Args().First())
			},
		},
		{
			Name:   "decline",
			Usage:  "decline a friend request",
			Before: nArgs(1, "decline <contact>"),
			Action: func(c *cli.Context) {
				pe.err = pe.decline(c.Args().First())
			},
		},
		{
			Name:   "sync",
			Usage:  "process answers to sent friend requests",
			Before: noArgs,
			Action: func(c *cli.Context) {
				pe.err = pe.sync()
			},
		},
	}
	return &pe
}

// Close cancels running commands.
func (pe *PadEngine) Close() {
	pe.cancel()
}

// Run runs the padctl engine with the given args.
func (pe *PadEngine) Run(args []string) error {
	pe.app.Name = args[0]
	if err := pe.app.Run(args); err != nil {
		return err
	}
	if pe.err != nil {
		return pe.err
	}
	return nil
}

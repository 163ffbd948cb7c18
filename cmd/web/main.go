/*
 *   Copyright (c) 2024 Gustavo Lopez <git.gustavolopez.xyz@gmail.com>
 *   All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/retroenv/retrogolib/log"

	okto "github.com/guslan/okto"
	"github.com/guslan/okto/web"
)

func main() {
	port := flag.Int("port", 9999, "the port of the server (default = 9999)")
	speed := flag.Uint("speed", okto.DefaultSpeed, "speed in cycles per second")
	debug := flag.Bool("debug", false, "enable debug logging")

	flag.Parse()

	cfg := log.DefaultConfig()
	if *debug {
		cfg.Level = log.DebugLevel
	}
	logger := log.NewWithConfig(cfg)

	if flag.NArg() < 1 {
		logger.Fatal("must provide the path or URL of a rom as an argument")
	}

	rom, err := okto.NewRomLoader().Load(okto.RomSourceFromString(flag.Arg(0)))
	if err != nil {
		logger.Fatal(err.Error())
	}

	server := web.NewServer(logger, func(config *web.ServerConfig) {
		config.UseDebugger = true
		config.SpeedInHz = *speed
	})

	if err := server.LoadROM(rom); err != nil {
		logger.Fatal(err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Listen(ctx, *port); err != nil {
		logger.Fatal(err.Error())
	}
}

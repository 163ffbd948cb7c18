/*
 *   Copyright (c) 2024 Gustavo Lopez <git.gustavolopez.xyz@gmail.com>
 *   All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/retroenv/retrogolib/log"

	okto "github.com/guslan/okto"
)

func main() {
	speed := flag.Uint("speed", 0, "speed in cycles per second (0 = use config)")
	maxCycles := flag.Uint64("max-cycles", 0, "stop after this many cycles (0 = use config)")
	noTerm := flag.Bool("noterm", false, "turn off the terminal display of the emulator")
	noProtection := flag.Bool("no-protection", false, "allow writes into the reserved memory region")
	disassemble := flag.Bool("disassemble", false, "print a disassembly of the rom and exit")
	configPath := flag.String("config", "", "path to the config file (default = OS config dir)")
	debug := flag.Bool("debug", false, "enable debug logging")
	quiet := flag.Bool("quiet", false, "only log errors")

	flag.Parse()

	logger := createLogger(*debug, *quiet)

	if flag.NArg() < 1 {
		logger.Fatal("must provide the path or URL of a rom as an argument")
	}

	rom, err := okto.NewRomLoader().Load(okto.RomSourceFromString(flag.Arg(0)))
	if err != nil {
		logger.Fatal(err.Error())
	}

	if *disassemble {
		if err := okto.WriteDisassembly(os.Stdout, rom); err != nil {
			logger.Fatal(err.Error())
		}
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal(err.Error())
	}

	if *speed == 0 {
		*speed = cfg.Emulator.SpeedInHz
	}
	if *maxCycles == 0 {
		*maxCycles = cfg.Emulator.MaxCycles
	}
	writeProtection := cfg.Emulator.WriteProtection && !*noProtection

	var keyboard okto.Keyboard
	var renderer okto.Renderer
	var buzzer okto.Buzzer
	if *noTerm {
		keyboard = okto.NewInMemoryKeyboard()
		renderer = okto.NewDummyRenderer()
		buzzer = okto.NewDummyBuzzer()
	} else {
		tk := okto.NewTerminalKeyboardWithKeyMap(cfg.KeyMap())
		defer tk.Close()
		keyboard = tk

		tr := okto.NewTerminalRenderer()
		tr.OnChar = cfg.Display.OnChar
		tr.OffChar = cfg.Display.OffChar
		renderer = tr

		buzzer = okto.NewTerminalBuzzer(os.Stdout)
	}

	emu := okto.NewEmulator(
		okto.NewMemoryWithProtection(writeProtection),
		okto.NewDisplay(),
		keyboard,
		buzzer,
		renderer,
		logger,
	)
	emu.MaxCycles = *maxCycles

	if err := emu.LoadROM(rom); err != nil {
		logger.Fatal(err.Error())
	}
	if err := emu.Boot(); err != nil {
		logger.Fatal(err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := emu.RunAtSpeed(ctx, *speed); err != nil && err != context.Canceled {
		logger.Fatal(err.Error())
	}
}

func createLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

func loadConfig(path string) (okto.Config, error) {
	var (
		manager *okto.ConfigManager
		err     error
	)
	if path != "" {
		manager = okto.NewConfigManagerWithPath(path)
	} else {
		manager, err = okto.NewConfigManager()
		if err != nil {
			return okto.Config{}, fmt.Errorf("locating config: %w", err)
		}
	}

	return manager.Load()
}

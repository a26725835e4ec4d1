// Copyright (c) 2020-2026, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package rfmac_main runs the MAC bench: a scenario file, the interactive
// console, or a scenario followed by the console.
package rfmac_main

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/openthread/ot-rfmac/bench"
	"github.com/openthread/ot-rfmac/cli"
	"github.com/openthread/ot-rfmac/logger"
	"github.com/openthread/ot-rfmac/mac"
	"github.com/openthread/ot-rfmac/pcap"
	"github.com/openthread/ot-rfmac/progctx"
)

type MainArgs struct {
	Scenario    string
	MacConfig   string
	Seed        int64
	SeedSet     bool
	PcapFile    string
	PcapFormat  string
	LogLevel    string
	Interactive bool
	Trace       bool
	Report      bool
	HistoryFile string
}

func parseArgs(argv []string) (*MainArgs, error) {
	args := &MainArgs{}
	fs := pflag.NewFlagSet("rfmac-bench", pflag.ContinueOnError)
	fs.StringVarP(&args.Scenario, "scenario", "s", "", "scenario YAML file to play before the console starts")
	fs.StringVar(&args.MacConfig, "mac-config", "", "MAC configuration YAML file, overrides the scenario's")
	fs.Int64Var(&args.Seed, "seed", 0, "random seed, overrides the scenario's (0 keeps the default)")
	fs.StringVar(&args.PcapFile, "pcap", "", "write delivered and transmitted frames to this pcap file")
	fs.StringVar(&args.PcapFormat, "pcap-format", "wpan-tap", "pcap format: wpan or wpan-tap")
	fs.StringVar(&args.LogLevel, "log", "warn", "set logging level: trace, debug, info, warn, error.")
	fs.BoolVarP(&args.Interactive, "interactive", "i", false, "start the console (implied without --scenario)")
	fs.BoolVar(&args.Trace, "trace", false, "echo the bench trace to stdout")
	fs.BoolVar(&args.Report, "report", false, "print the radio activity report after the scenario")
	fs.StringVar(&args.HistoryFile, "history", "", "console history file")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, errors.Errorf("unexpected arguments: %v", fs.Args())
	}
	args.SeedSet = fs.Changed("seed")
	if args.Scenario == "" {
		args.Interactive = true
	}
	return args, nil
}

// Main runs the bench with the process arguments until the scenario and the
// console are done, or the program is cancelled.
func Main(ctx *progctx.ProgCtx, cliOptions *cli.Options) error {
	args, err := parseArgs(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	} else if err != nil {
		return err
	}
	level, err := logger.ParseLevelString(args.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	ctx.CancelOnSignal(syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	defer ctx.Wait()
	defer ctx.Cancel(nil)

	return run(ctx, args, cliOptions, os.Stdout)
}

func loadScenario(args *MainArgs) (*bench.Scenario, error) {
	sc := &bench.Scenario{Name: "console", Bench: bench.DefaultConfig()}
	if args.Scenario != "" {
		var err error
		if sc, err = bench.LoadScenario(args.Scenario); err != nil {
			return nil, err
		}
	}
	if args.MacConfig != "" {
		data, err := os.ReadFile(args.MacConfig)
		if err != nil {
			return nil, err
		}
		if sc.Bench.Mac, err = mac.LoadConfig(data); err != nil {
			return nil, errors.Wrap(err, args.MacConfig)
		}
	}
	if args.SeedSet {
		sc.Bench.Seed = args.Seed
	}
	return sc, sc.Validate()
}

func run(ctx *progctx.ProgCtx, args *MainArgs, cliOptions *cli.Options, out io.Writer) error {
	sc, err := loadScenario(args)
	if err != nil {
		return err
	}

	var pw *pcap.Writer
	if args.PcapFile != "" {
		var format pcap.Format
		if err = format.UnmarshalText([]byte(args.PcapFormat)); err != nil {
			return err
		}
		if pw, err = pcap.NewFile(args.PcapFile, format); err != nil {
			return err
		}
		defer func() {
			if err := pw.Close(); err != nil {
				logger.Errorf("close %s: %v", args.PcapFile, err)
			}
		}()
	}

	setup := func(b *bench.Bench) error {
		if pw != nil {
			b.SetPcap(pw)
		}
		if args.Trace {
			b.Trace().SetOutput(out)
		}
		return nil
	}

	var b *bench.Bench
	if args.Scenario != "" {
		b, err = sc.Run(setup)
		if b != nil {
			if perr := printSummary(b, args.Report, out); perr != nil {
				return perr
			}
		}
		if err != nil {
			return err
		}
	} else {
		if b, err = bench.New(sc.Bench); err != nil {
			return err
		}
		_ = setup(b)
	}

	if !args.Interactive || ctx.Err() != nil {
		return nil
	}
	return runConsole(ctx, b, args, cliOptions)
}

func printSummary(b *bench.Bench, report bool, out io.Writer) error {
	data, err := yaml.Marshal(b.Stats())
	if err != nil {
		return err
	}
	if _, err = fmt.Fprintf(out, "time: %d\n%s", b.Now(), data); err != nil {
		return err
	}
	if report {
		return b.WriteReport(out)
	}
	return nil
}

func runConsole(ctx *progctx.ProgCtx, b *bench.Bench, args *MainArgs, cliOptions *cli.Options) error {
	opts := cli.Options{}
	if cliOptions != nil {
		opts = *cliOptions
	}
	if opts.HistoryFile == "" {
		opts.HistoryFile = args.HistoryFile
	}
	console := cli.NewConsole(&opts)
	rt := cli.NewCmdRunner(ctx, b)
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Errorf("close console pcap: %v", err)
		}
	}()

	cliDone := make(chan struct{})
	ctx.Go("cli", func(ctx *progctx.ProgCtx) error {
		defer close(cliDone)
		err := console.Run(rt)
		ctx.Cancel(errors.Wrapf(err, "console exit"))
		return nil
	})

	<-ctx.Done()
	select {
	case <-cliDone:
	default:
		console.Stop()
	}
	return ctx.Cause()
}

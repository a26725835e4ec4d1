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

package cli

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"

	"github.com/openthread/ot-rfmac/logger"
)

// Handler executes one console line and supplies the prompt for the next.
type Handler interface {
	HandleCommand(cmd string, output io.Writer) error
	GetPrompt() string
}

type Options struct {
	// EchoInput repeats every command line read, for scripted sessions.
	EchoInput   bool
	HistoryFile string
	Stdin       *os.File
	Stdout      *os.File
}

// Console reads command lines with editing and history and hands them to a
// Handler. A Console runs once.
type Console struct {
	opts    Options
	started chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewConsole(opts *Options) *Console {
	c := &Console{
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
	if opts != nil {
		c.opts = *opts
	}
	if c.opts.Stdin == nil {
		c.opts.Stdin = os.Stdin
	}
	if c.opts.Stdout == nil {
		c.opts.Stdout = os.Stdout
	}
	return c
}

// Started is closed once Run reads input, or has failed to start.
func (c *Console) Started() <-chan struct{} {
	return c.started
}

func (c *Console) markStarted() {
	c.once.Do(func() { close(c.started) })
}

// Stop makes a running Run return and waits for it. It must not be called
// from the goroutine executing Run.
func (c *Console) Stop() {
	<-c.started
	// Instance.Close blocks while Readline waits (chzyer/readline#217);
	// ending the input makes Run close it instead.
	_, _ = c.opts.Stdin.WriteString("\003\n")
	_ = c.opts.Stdin.Close()
	logger.Tracef("console stopping")
	<-c.done
}

// Run reads command lines until end of input, an interrupt on an empty line or
// a handler error. ErrExit ends the session without error.
func (c *Console) Run(h Handler) error {
	defer close(c.done)
	defer c.markStarted()
	defer logger.Debugf("console closed")

	for _, f := range []*os.File{c.opts.Stdin, c.opts.Stdout} {
		restore, err := keepTerminalState(f)
		if err != nil {
			return err
		}
		defer restore()
	}

	rl, err := readline.NewEx(c.readlineConfig(h.GetPrompt()))
	if err != nil {
		return errors.Wrap(err, "console")
	}
	defer func() { _ = rl.Close() }()
	c.markStarted()

	for {
		rl.SetPrompt(h.GetPrompt())
		line, err := rl.Readline()
		action, err := classifyInput(line, err)
		switch action {
		case inputEnd:
			return err
		case inputSkip:
			continue
		}

		if err := c.execute(h, line, rl.Stdout()); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			return err
		}
	}
}

type inputAction int

const (
	inputLine inputAction = iota
	inputSkip
	inputEnd
)

// classifyInput sorts a Readline result. Ctrl-C on an empty line ends the
// session, Ctrl-C while editing drops the line.
func classifyInput(line string, err error) (inputAction, error) {
	switch {
	case len(line) > 0 && line[0] == readline.CharInterrupt:
		return inputEnd, nil
	case errors.Is(err, readline.ErrInterrupt):
		if line == "" {
			return inputEnd, nil
		}
		return inputSkip, nil
	case err == io.EOF:
		return inputEnd, nil
	case err != nil:
		return inputEnd, err
	}

	cmd := strings.TrimSpace(line)
	if cmd == "" || strings.HasPrefix(cmd, "#") {
		return inputSkip, nil
	}
	return inputLine, nil
}

func (c *Console) execute(h Handler, line string, out io.Writer) error {
	if c.opts.EchoInput {
		if _, err := c.opts.Stdout.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	defer func() { _ = c.opts.Stdout.Sync() }()
	return h.HandleCommand(strings.TrimSpace(line), out)
}

func (c *Console) readlineConfig(prompt string) *readline.Config {
	return &readline.Config{
		Prompt:            prompt,
		HistoryFile:       c.opts.HistoryFile,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		Stdin:             c.opts.Stdin,
		Stdout:            c.opts.Stdout,
		AutoComplete:      commandCompleter(loadHelp(consoleReference)),
		FuncFilterInputRune: func(r rune) (rune, bool) {
			return r, r != readline.CharCtrlZ
		},
	}
}

// commandCompleter completes command names, and command and group names after
// help.
func commandCompleter(h *helpIndex) *readline.PrefixCompleter {
	var items, topics []readline.PrefixCompleterInterface
	for _, name := range h.commands() {
		topics = append(topics, readline.PcItem(name))
		if name != "help" {
			items = append(items, readline.PcItem(name))
		}
	}
	for _, g := range h.groups {
		topics = append(topics, readline.PcItem(strings.ToLower(g)))
	}
	items = append(items, readline.PcItem("help", topics...))
	return readline.NewPrefixCompleter(items...)
}

// keepTerminalState saves the mode of f when it is a terminal and returns the
// function restoring it.
func keepTerminalState(f *os.File) (func(), error) {
	fd := int(f.Fd())
	if !readline.IsTerminal(fd) {
		return func() {}, nil
	}
	st, err := readline.GetState(fd)
	if err != nil {
		return nil, errors.Wrapf(err, "terminal state of %s", f.Name())
	}
	return func() { _ = readline.Restore(fd, st) }, nil
}

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
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/ot-rfmac/bench"
	"github.com/openthread/ot-rfmac/logger"
	"github.com/openthread/ot-rfmac/progctx"
)

func TestParseBytes(t *testing.T) {
	var cmd Command
	assert.NotNil(t, parseBytes([]byte("wrongcmd"), &cmd))
	assert.NotNil(t, parseBytes([]byte("go"), &cmd))
	assert.NotNil(t, parseBytes([]byte("rx maybe"), &cmd))

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("go 10ms"), &cmd))
	assert.True(t, cmd.Go != nil && cmd.Go.Time == "10ms")
	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("go 2"), &cmd))
	assert.True(t, cmd.Go != nil && cmd.Go.Time == "2")

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("inject seq 42 size 30 ack dst 0x0bad rssi -90"), &cmd))
	require.NotNil(t, cmd.Inject)
	assert.Equal(t, 42, *cmd.Inject.Seq)
	assert.Equal(t, 30, *cmd.Inject.Size)
	assert.NotNil(t, cmd.Inject.Ack)
	assert.Equal(t, "0x0bad", cmd.Inject.Dst)
	assert.Equal(t, "-90", cmd.Inject.Rssi)

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("tx ack nocsma size 20"), &cmd))
	require.NotNil(t, cmd.Tx)
	assert.Equal(t, "nocsma", cmd.Tx.Type)
	assert.NotNil(t, cmd.Tx.Ack)
	assert.Nil(t, cmd.Tx.Beacon)

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("rx off"), &cmd))
	assert.True(t, cmd.Rx != nil && cmd.Rx.Off != nil && cmd.Rx.On == nil)
	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("rx"), &cmd))
	assert.True(t, cmd.Rx != nil && cmd.Rx.Off == nil && cmd.Rx.On == nil)

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("stop graceful"), &cmd))
	assert.True(t, cmd.Stop != nil && cmd.Stop.Graceful != nil)

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("pcap \"out.pcap\" format tap"), &cmd))
	assert.True(t, cmd.Pcap != nil && cmd.Pcap.File == "out.pcap" && cmd.Pcap.Format == "tap")
	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("pcap off"), &cmd))
	assert.True(t, cmd.Pcap != nil && cmd.Pcap.Off != nil)

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("txpower -10"), &cmd))
	assert.True(t, cmd.TxPower != nil && cmd.TxPower.Dbm == "-10")

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("trace clear"), &cmd))
	assert.True(t, cmd.Trace != nil && cmd.Trace.Clear != nil)
	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("trace 5"), &cmd))
	assert.True(t, cmd.Trace != nil && *cmd.Trace.Count == 5)

	for _, line := range []string{"channel", "channel 3", "crcerr", "diag", "exit", "flush", "help", "help tx", "help transmit",
		"log", "log debug", "reject", "reject 2", "release", "report", "state", "stats", "time", "wakeup 500us",
		"wakeup 100", "duty", "duty on", "duty off"} {
		cmd = Command{}
		assert.Nil(t, parseBytes([]byte(line), &cmd), line)
	}
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("10ms", "s")
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), d)
	d, err = parseDuration("2", "s")
	require.NoError(t, err)
	assert.Equal(t, uint64(2000000), d)
	d, err = parseDuration("250", "us")
	require.NoError(t, err)
	assert.Equal(t, uint64(250), d)
	_, err = parseDuration("soon", "s")
	assert.Error(t, err)
}

type mockCliHandler struct {
	expectedCmd string
	handleError error
	handleCount int
	t           *testing.T
}

func (hnd *mockCliHandler) HandleCommand(cmd string, output io.Writer) error {
	assert.Equal(hnd.t, hnd.expectedCmd, cmd)
	hnd.handleCount += 1
	return hnd.handleError
}

func (hnd *mockCliHandler) GetPrompt() string {
	return "> "
}

func TestCliStartStop(t *testing.T) {
	handler := mockCliHandler{
		expectedCmd: "help",
		handleError: nil,
		t:           t,
	}

	r, w, _ := os.Pipe()
	console := NewConsole(&Options{Stdin: r})
	err := make(chan error, 1)
	go func() {
		err <- console.Run(&handler)
	}()
	<-console.Started()
	fmt.Fprint(w, "# a comment\nhelp\n")
	time.Sleep(time.Millisecond * 500)
	_ = w.Close()
	console.Stop()

	assert.Nil(t, <-err)
	assert.Equal(t, 1, handler.handleCount)
}

func TestCliCommandError(t *testing.T) {
	handler := mockCliHandler{
		expectedCmd: "xyz",
		handleError: fmt.Errorf("undefined command"),
		t:           t,
	}

	r, w, _ := os.Pipe()
	console := NewConsole(&Options{Stdin: r})
	err := make(chan error, 1)
	go func() {
		err <- console.Run(&handler)
	}()
	<-console.Started()
	fmt.Fprint(w, "xyz\n") // handler error ends the console.

	assert.NotNil(t, <-err)
	assert.Equal(t, 1, handler.handleCount)

	console.Stop() // calling Stop() after CLI has already exited.
}

func TestCliExit(t *testing.T) {
	handler := mockCliHandler{
		expectedCmd: "exit",
		handleError: ErrExit,
		t:           t,
	}

	r, w, _ := os.Pipe()
	console := NewConsole(&Options{Stdin: r})
	err := make(chan error, 1)
	go func() {
		err <- console.Run(&handler)
	}()
	<-console.Started()
	fmt.Fprint(w, "exit\n")

	assert.Nil(t, <-err)
	console.Stop()
}

func newTestRunner(t *testing.T) (*CmdRunner, *progctx.ProgCtx) {
	cfg := bench.DefaultConfig()
	cfg.Seed = 1
	b, err := bench.New(cfg)
	require.NoError(t, err)
	ctx := progctx.New(nil)
	return NewCmdRunner(ctx, b), ctx
}

func run(t *testing.T, rt *CmdRunner, line string) string {
	var buf bytes.Buffer
	require.NoError(t, rt.HandleCommand(line, &buf))
	return buf.String()
}

func TestRunnerReceiveAndAck(t *testing.T) {
	rt, _ := newTestRunner(t)

	assert.Equal(t, "Done\n", run(t, rt, "go 1ms"))
	assert.Equal(t, "1000\nDone\n", run(t, rt, "time"))
	assert.Equal(t, "Done\n", run(t, rt, "inject seq 42 size 20 ack"))
	assert.Equal(t, "Done\n", run(t, rt, "go 10ms"))

	s := rt.bench.Stats()
	assert.Equal(t, 1, s.Delivered)
	assert.Equal(t, 1, s.AcksSent)

	out := run(t, rt, "stats")
	assert.Contains(t, out, "delivered: 1")
	assert.Contains(t, out, "acks-sent: 1")
	assert.Contains(t, run(t, rt, "diag"), "AcksSent")
	assert.Contains(t, run(t, rt, "trace 100"), "frame")
	assert.Equal(t, "11000us> ", rt.GetPrompt())
}

func TestRunnerTransmit(t *testing.T) {
	rt, _ := newTestRunner(t)
	assert.Equal(t, "Done\n", run(t, rt, "tx seq 7 ack nocsma"))
	run(t, rt, "go 100ms")
	s := rt.bench.Stats()
	assert.Equal(t, 1, s.TxSubmitted)
	assert.Equal(t, 1, s.AcksReceived)

	assert.Equal(t, "Done\n", run(t, rt, "reject"))
	assert.Equal(t, "rejected, retrying after backoff\nDone\n", run(t, rt, "tx"))
}

func TestRunnerSettings(t *testing.T) {
	rt, _ := newTestRunner(t)

	assert.Equal(t, "Done\n", run(t, rt, "channel 3"))
	assert.Equal(t, "3\nDone\n", run(t, rt, "channel"))
	assert.Contains(t, run(t, rt, "channel 200"), "Error: ")

	assert.Equal(t, "Done\n", run(t, rt, "txpower -10"))
	assert.Equal(t, "-10 (requested -10)\nDone\n", run(t, rt, "txpower"))
	assert.Contains(t, run(t, rt, "txpower -300"), "Error: ")

	assert.Equal(t, "Done\n", run(t, rt, "rx off"))
	assert.Equal(t, "lost\nDone\n", run(t, rt, "inject"))
	assert.Contains(t, run(t, rt, "state"), "tx: idle")

	level := logger.GetLevel()
	defer logger.SetLevel(level)
	assert.Equal(t, "Done\n", run(t, rt, "log debug"))
	assert.Equal(t, "debug\nDone\n", run(t, rt, "log"))
}

func TestRunnerErrors(t *testing.T) {
	rt, _ := newTestRunner(t)
	assert.Contains(t, run(t, rt, "bogus"), "Error: ")
	assert.Contains(t, run(t, rt, "inject dst 0x10000"), "Error: invalid short address")
	assert.Contains(t, run(t, rt, "tx seq 300"), "Error: invalid sequence number")
}

func TestRunnerPcap(t *testing.T) {
	rt, _ := newTestRunner(t)
	name := filepath.Join(t.TempDir(), "bench.pcap")

	assert.Equal(t, "Done\n", run(t, rt, fmt.Sprintf("pcap %q format tap", name)))
	run(t, rt, "inject")
	assert.Equal(t, 1, rt.pcap.Frames())
	assert.Equal(t, "Done\n", run(t, rt, "pcap off"))
	assert.Nil(t, rt.pcap)

	info, err := os.Stat(name)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(24))
}

func TestRunnerHelp(t *testing.T) {
	rt, _ := newTestRunner(t)
	out := run(t, rt, "help")
	assert.Contains(t, out, "inject")
	assert.Contains(t, out, "Advance virtual time.")
	assert.Contains(t, out, "Transmit:")
	assert.Contains(t, run(t, rt, "help go"), "A bare number is taken as seconds.")

	out = run(t, rt, "help transmit")
	assert.Contains(t, out, "wakeup")
	assert.NotContains(t, out, "inject")
	assert.Contains(t, run(t, rt, "help duty"), "duty [on|off]")
	assert.Contains(t, run(t, rt, "help nothing"), `Error: no help for "nothing"`)
}

func TestLoadHelp(t *testing.T) {
	doc := "# title\n\nintro\n\n## Radio\n\n### channel\n\nShow or set\nthe `channel`.\n\n" +
		"```shell\nchannel [<channel>]\n```\n\nRestarts receive.\n\n```bash\n> channel\n5\n```\n\n" +
		"## Session\n\n### exit\n\nExit.\n"
	h := loadHelp(doc)
	assert.Equal(t, []string{"Radio", "Session"}, h.groups)
	assert.Equal(t, []string{"channel", "exit"}, h.commands())

	e := h.entries["channel"]
	require.NotNil(t, e)
	assert.Equal(t, "Radio", e.group)
	assert.Equal(t, "Show or set the channel.", e.summary)
	assert.Equal(t, []string{"channel [<channel>]"}, e.usage)
	assert.Equal(t, []string{"Restarts receive."}, e.details)
	assert.Equal(t, []string{"> channel", "5"}, e.example)

	text, err := h.describe("session")
	require.NoError(t, err)
	assert.Equal(t, "Session:\n  exit     Exit.\n", text)

	_, err = h.describe("channels")
	assert.Error(t, err)
}

func TestHelpReferenceCoversGrammar(t *testing.T) {
	h := loadHelp(consoleReference)
	for _, name := range []string{"channel", "crcerr", "diag", "duty", "exit", "flush", "go", "help", "inject",
		"log", "pcap", "reject", "release", "report", "rx", "state", "stats", "stop", "time", "trace", "tx",
		"txpower", "wakeup"} {
		e, ok := h.entries[name]
		if assert.True(t, ok, name) {
			assert.NotEmpty(t, e.summary, name)
			assert.NotEmpty(t, e.usage, name)
		}
	}
}

func TestHangingWrap(t *testing.T) {
	assert.Equal(t, "ab  alpha beta gamma\n    delta epsilon\n",
		hangingWrap("ab  ", "alpha beta gamma delta epsilon", 24))
	assert.Equal(t, "x\n", hangingWrap("", "x", defaultHelpWidth))
}

func TestRunnerDuty(t *testing.T) {
	rt, _ := newTestRunner(t)
	assert.Contains(t, run(t, rt, "duty"), "mode: normal")
	assert.Equal(t, "Done\n", run(t, rt, "duty off"))
	assert.Contains(t, run(t, rt, "duty"), "enabled: false")
	assert.Equal(t, "Done\n", run(t, rt, "duty on"))
	assert.Contains(t, run(t, rt, "duty"), "enabled: true")
}

func TestRunnerExit(t *testing.T) {
	rt, ctx := newTestRunner(t)
	var buf bytes.Buffer
	assert.ErrorIs(t, rt.HandleCommand("exit", &buf), ErrExit)

	ctx.Cancel(nil)
	assert.Error(t, rt.HandleCommand("time", &buf))
}

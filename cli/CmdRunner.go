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
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openthread/ot-rfmac/bench"
	"github.com/openthread/ot-rfmac/logger"
	"github.com/openthread/ot-rfmac/mac"
	"github.com/openthread/ot-rfmac/pcap"
	"github.com/openthread/ot-rfmac/progctx"
	"github.com/openthread/ot-rfmac/types"
)

const (
	Prompt = "> "

	// goChunk bounds how much virtual time one 'go' slice runs before the
	// runner checks for program exit.
	goChunk = types.Usec(time.Second / time.Microsecond)
)

// ErrExit is returned by HandleCommand after the 'exit' command.
var ErrExit = errors.New("exit")

type CommandContext struct {
	*Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputStr(msg string) {
	_, _ = fmt.Fprint(cc.output, msg)
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	var itemsYaml yaml.Node

	err := itemsYaml.Encode(items)
	logger.PanicIfError(err)

	for _, content := range itemsYaml.Content {
		content.Style = yaml.FlowStyle
	}

	data, err := yaml.Marshal(&itemsYaml)
	logger.PanicIfError(err)

	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

// CmdRunner executes console commands against one bench. It is driven from a
// single goroutine, the console's.
type CmdRunner struct {
	ctx   *progctx.ProgCtx
	bench *bench.Bench
	pcap  *pcap.Writer
	help  *helpIndex
	exit  bool
}

func NewCmdRunner(ctx *progctx.ProgCtx, b *bench.Bench) *CmdRunner {
	return &CmdRunner{
		ctx:   ctx,
		bench: b,
		help:  loadHelp(consoleReference),
	}
}

// RunCommand parses and executes one command line, writing results and the
// final Done/Error line to output.
func (rt *CmdRunner) RunCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() == nil {
		cmd := Command{}

		if err := parseBytes([]byte(cmdline), &cmd); err != nil {
			if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
				return err
			}
		} else {
			rt.execute(&cmd, output)
		}
	}
	return rt.ctx.Err()
}

func (rt *CmdRunner) HandleCommand(cmdline string, output io.Writer) error {
	if err := rt.RunCommand(cmdline, output); err != nil {
		return err
	}
	if rt.exit {
		return ErrExit
	}
	return nil
}

func (rt *CmdRunner) GetPrompt() string {
	return fmt.Sprintf("%dus%s", rt.bench.Now(), Prompt)
}

// Close stops the pcap capture started from the console, if any.
func (rt *CmdRunner) Close() error {
	if rt.pcap == nil {
		return nil
	}
	rt.bench.SetPcap(nil)
	err := rt.pcap.Close()
	rt.pcap = nil
	return err
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()

		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	if cmd.Channel != nil {
		rt.executeChannel(cc, cmd.Channel)
	} else if cmd.CrcError != nil {
		rt.executeCrcError(cc)
	} else if cmd.Diag != nil {
		rt.executeDiag(cc)
	} else if cmd.Duty != nil {
		rt.executeDuty(cc, cmd.Duty)
	} else if cmd.Exit != nil {
		rt.exit = true
	} else if cmd.Flush != nil {
		cc.error(rt.bench.FlushQueue())
	} else if cmd.Go != nil {
		rt.executeGo(cc, cmd.Go)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cmd.Help)
	} else if cmd.Inject != nil {
		rt.executeInject(cc, cmd.Inject)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cmd.LogLevel)
	} else if cmd.Pcap != nil {
		rt.executePcap(cc, cmd.Pcap)
	} else if cmd.Reject != nil {
		rt.executeReject(cc, cmd.Reject)
	} else if cmd.Release != nil {
		cc.outputf("%d\n", rt.bench.Release())
	} else if cmd.Report != nil {
		cc.error(rt.bench.WriteReport(cc.output))
	} else if cmd.Rx != nil {
		rt.executeRx(cc, cmd.Rx)
	} else if cmd.State != nil {
		rt.executeState(cc)
	} else if cmd.Stats != nil {
		cc.outputItemsAsYaml(rt.bench.Stats())
	} else if cmd.Stop != nil {
		cc.error(rt.bench.Stop(cmd.Stop.Graceful != nil))
	} else if cmd.Time != nil {
		cc.outputf("%d\n", rt.bench.Now())
	} else if cmd.Trace != nil {
		rt.executeTrace(cc, cmd.Trace)
	} else if cmd.Tx != nil {
		rt.executeTx(cc, cmd.Tx)
	} else if cmd.TxPower != nil {
		rt.executeTxPower(cc, cmd.TxPower)
	} else if cmd.Wakeup != nil {
		rt.executeWakeup(cc, cmd.Wakeup)
	} else {
		logger.Panicf("unimplemented command: %#v", cmd)
	}
}

// parseDuration accepts a Go duration or a bare number in defaultUnit.
func parseDuration(s string, defaultUnit string) (types.Usec, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		d, err = time.ParseDuration(s + defaultUnit)
		if err != nil {
			return 0, errors.Errorf("could not parse time duration: %s", s)
		}
	}
	if d < 0 {
		return 0, errors.Errorf("negative time duration: %s", s)
	}
	return types.Usec(d / time.Microsecond), nil
}

func (rt *CmdRunner) executeGo(cc *CommandContext, cmd *GoCmd) {
	d, err := parseDuration(cmd.Time, "s")
	if err != nil {
		cc.error(err)
		return
	}
	target := rt.bench.Now() + d
	for rt.bench.Now() < target {
		if rt.ctx.Err() != nil {
			cc.error(rt.ctx.Err())
			return
		}
		next := rt.bench.Now() + goChunk
		if next > target {
			next = target
		}
		rt.bench.RunUntil(next)
	}
}

func (rt *CmdRunner) executeChannel(cc *CommandContext, cmd *ChannelCmd) {
	if cmd.Channel == nil {
		cc.outputf("%d\n", rt.bench.Radio().Channel())
		return
	}
	if *cmd.Channel < 0 || *cmd.Channel > 0xff {
		cc.errorf("invalid channel %d", *cmd.Channel)
		return
	}
	cc.error(rt.bench.SetChannel(types.ChannelId(*cmd.Channel)))
}

func (rt *CmdRunner) executeCrcError(cc *CommandContext) {
	if !rt.bench.InjectCrcError() {
		cc.outputf("lost, receiver off\n")
	}
}

func (rt *CmdRunner) executeDiag(cc *CommandContext) {
	_, err := rt.bench.Radio().Diagnostics().WriteTo(cc.output)
	cc.error(err)
}

func (rt *CmdRunner) executeDuty(cc *CommandContext, cmd *DutyCmd) {
	r := rt.bench.Radio()
	if cmd.On != nil {
		r.SetDutyCycleEnabled(true)
	} else if cmd.Off != nil {
		r.SetDutyCycleEnabled(false)
	} else {
		cc.outputItemsAsYaml(r.DutyCycleStatus())
	}
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	rt.help.fitTerminal()
	if cmd.HelpTopic == "" {
		cc.outputStr(rt.help.general())
		return
	}
	text, err := rt.help.describe(cmd.HelpTopic)
	if err != nil {
		cc.error(err)
		return
	}
	cc.outputStr(text)
}

func parseShortAddr(s string) (types.ShortAddr, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, errors.Errorf("invalid short address %q", s)
	}
	return types.ShortAddr(v), nil
}

func parseInt8(what string, s string) (int8, error) {
	v, err := strconv.ParseInt(s, 10, 8)
	if err != nil {
		return 0, errors.Errorf("invalid %s %q", what, s)
	}
	return int8(v), nil
}

func parseSeq(seq *int) (*uint8, error) {
	if seq == nil {
		return nil, nil
	}
	if *seq < 0 || *seq > 0xff {
		return nil, errors.Errorf("invalid sequence number %d", *seq)
	}
	v := uint8(*seq)
	return &v, nil
}

func (rt *CmdRunner) executeInject(cc *CommandContext, cmd *InjectCmd) {
	var f bench.FrameSpec
	var err error
	if f.Seq, err = parseSeq(cmd.Seq); err != nil {
		cc.error(err)
		return
	}
	if cmd.Size != nil {
		f.Size = *cmd.Size
	}
	f.AckRequest = cmd.Ack != nil
	if cmd.Dst != "" {
		dst, err := parseShortAddr(cmd.Dst)
		if err != nil {
			cc.error(err)
			return
		}
		f.Dst = &dst
	}
	if cmd.Rssi != "" {
		rssi, err := parseInt8("rssi", cmd.Rssi)
		if err != nil {
			cc.error(err)
			return
		}
		f.Rssi = &rssi
	}
	if !rt.bench.Inject(f) {
		cc.outputf("lost\n")
	}
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if cmd.Level == "" {
		cc.outputf("%v\n", logger.GetLevelString(logger.GetLevel()))
		return
	}
	level, err := logger.ParseLevelString(cmd.Level)
	if err != nil {
		cc.error(err)
		return
	}
	logger.SetLevel(level)
}

func (rt *CmdRunner) executePcap(cc *CommandContext, cmd *PcapCmd) {
	if err := rt.Close(); err != nil {
		cc.error(err)
	}
	if cmd.Off != nil {
		return
	}
	format := pcap.FormatWpan
	if cmd.Format == "tap" {
		format = pcap.FormatWpanTap
	}
	w, err := pcap.NewFile(cmd.File, format)
	if err != nil {
		cc.error(err)
		return
	}
	rt.pcap = w
	rt.bench.SetPcap(w)
}

func (rt *CmdRunner) executeReject(cc *CommandContext, cmd *RejectCmd) {
	n := 1
	if cmd.Count != nil {
		n = *cmd.Count
	}
	if n < 0 {
		cc.errorf("invalid count %d", n)
		return
	}
	rt.bench.Reject(n)
}

func (rt *CmdRunner) executeRx(cc *CommandContext, cmd *RxCmd) {
	if cmd.On != nil {
		rt.bench.SetRxOnWhenIdle(true)
	} else if cmd.Off != nil {
		rt.bench.SetRxOnWhenIdle(false)
	} else {
		cc.outputf("%v\n", rt.bench.Radio().RxState())
	}
}

type radioState struct {
	Time          types.Usec `yaml:"time"`
	Rx            string     `yaml:"rx"`
	Tx            string     `yaml:"tx"`
	OutgoingAck   bool       `yaml:"outgoing-ack"`
	NumRf         int        `yaml:"num-rf"`
	NumRx         int        `yaml:"num-rx"`
	Channel       int        `yaml:"channel"`
	TxPower       int8       `yaml:"tx-power"`
	DutyCycle     string     `yaml:"duty-cycle"`
	DutyCycleUsed types.Usec `yaml:"duty-cycle-used"`
}

func (rt *CmdRunner) executeState(cc *CommandContext) {
	r := rt.bench.Radio()
	numRf, numRx := r.Counters()
	cur, _ := r.TxPower()
	mode, used := r.DutyCycle()
	cc.outputItemsAsYaml(radioState{
		Time:          rt.bench.Now(),
		Rx:            r.RxState().String(),
		Tx:            r.TxState().String(),
		OutgoingAck:   r.OutgoingAck(),
		NumRf:         numRf,
		NumRx:         numRx,
		Channel:       int(r.Channel()),
		TxPower:       cur,
		DutyCycle:     mode.String(),
		DutyCycleUsed: used,
	})
}

func (rt *CmdRunner) executeTrace(cc *CommandContext, cmd *TraceCmd) {
	tr := rt.bench.Trace()
	if cmd.Clear != nil {
		tr.Clear()
		return
	}
	n := 20
	if cmd.Count != nil {
		n = *cmd.Count
	}
	for _, e := range tr.Last(n) {
		cc.outputf("%s\n", e)
	}
	if tr.Dropped() > 0 {
		cc.outputf("(%d older entries dropped)\n", tr.Dropped())
	}
}

func (rt *CmdRunner) executeTx(cc *CommandContext, cmd *TxCmd) {
	var t bench.TxSpec
	var err error
	if t.Seq, err = parseSeq(cmd.Seq); err != nil {
		cc.error(err)
		return
	}
	if cmd.Size != nil {
		t.Size = *cmd.Size
	}
	t.AckRequest = cmd.Ack != nil
	t.Beacon = cmd.Beacon != nil
	switch cmd.Type {
	case "slotted":
		t.Type = mac.TxSlottedCsma
	case "nocsma":
		t.Type = mac.TxNoCsma
	default:
		t.Type = mac.TxUnslottedCsma
	}
	if err = rt.bench.Transmit(t); errors.Is(err, mac.ErrRejected) {
		cc.outputf("rejected, retrying after backoff\n")
	} else {
		cc.error(err)
	}
}

func (rt *CmdRunner) executeTxPower(cc *CommandContext, cmd *TxPowerCmd) {
	if cmd.Dbm == "" {
		cur, req := rt.bench.Radio().TxPower()
		cc.outputf("%d (requested %d)\n", cur, req)
		return
	}
	dbm, err := parseInt8("tx power", cmd.Dbm)
	if err != nil {
		cc.error(err)
		return
	}
	rt.bench.SetTxPower(dbm)
}

func (rt *CmdRunner) executeWakeup(cc *CommandContext, cmd *WakeupCmd) {
	d, err := parseDuration(strings.TrimSpace(cmd.Time), "us")
	if err != nil {
		cc.error(err)
		return
	}
	cc.error(rt.bench.ScheduleWakeup(d))
}

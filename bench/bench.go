// Copyright (c) 2026, The OTNS Authors.
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

// Package bench runs the MAC over the stub radio core in virtual time. The
// bench plays the radio hardware and a single peer: chains finish once their
// airtime has elapsed, the peer acknowledges frames and injected frames land
// in the receive queue.
package bench

import (
	"encoding/binary"
	"io"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/openthread/ot-rfmac/activity"
	"github.com/openthread/ot-rfmac/backoff"
	"github.com/openthread/ot-rfmac/dutycycle"
	"github.com/openthread/ot-rfmac/event"
	"github.com/openthread/ot-rfmac/logger"
	"github.com/openthread/ot-rfmac/mac"
	"github.com/openthread/ot-rfmac/pcap"
	"github.com/openthread/ot-rfmac/prng"
	"github.com/openthread/ot-rfmac/radio"
	"github.com/openthread/ot-rfmac/radio/stub"
	"github.com/openthread/ot-rfmac/radiocmd"
	"github.com/openthread/ot-rfmac/types"
	"github.com/openthread/ot-rfmac/wpan"
)

// Stats counts what the bench observed.
type Stats struct {
	Injected     int            `yaml:"injected"`
	Lost         int            `yaml:"lost"`
	CrcErrors    int            `yaml:"crc-errors"`
	Delivered    int            `yaml:"delivered"`
	TxSubmitted  int            `yaml:"tx-submitted"`
	TxFrames     int            `yaml:"tx-frames"`
	AcksSent     int            `yaml:"acks-sent"`
	TxDone       map[string]int `yaml:"tx-done"`
	AcksReceived int            `yaml:"acks-received"`
	AcksMissed   int            `yaml:"acks-missed"`
	Backoffs     int            `yaml:"backoffs"`
	Wakeups      int            `yaml:"wakeups"`
	ModeChanges  int            `yaml:"duty-cycle-changes"`
}

// Bench is not safe for concurrent use.
type Bench struct {
	cfg     Config
	core    *stub.Core
	radio   *mac.Radio
	limited *mac.LimitedAllocator
	held    int
	tracker *activity.Tracker
	rng     *rand.Rand
	now     types.Usec
	started map[radio.CmdHandle]types.Usec
	txSeq   uint8
	peerSeq uint8
	stats   Stats
	trace   *Trace
	pcap    *pcap.Writer
}

var _ mac.Upper = (*Bench)(nil)

func New(cfg Config) (*Bench, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed != 0 {
		prng.Init(cfg.Seed)
	}
	b := &Bench{
		cfg:     cfg,
		core:    stub.New(),
		tracker: activity.NewTracker(0),
		rng:     prng.NewTrafficSeed().NewRand(),
		started: map[radio.CmdHandle]types.Usec{},
		stats:   Stats{TxDone: map[string]int{}},
		trace:   NewTrace(),
	}

	var alloc mac.Allocator
	if cfg.RxBuffers > 0 {
		b.limited = mac.NewLimitedAllocator(cfg.RxBuffers)
		alloc = b.limited
	}
	r, err := mac.New(cfg.Mac, b.core, alloc, b.tracker)
	if err != nil {
		return nil, errors.Wrap(err, "create mac radio")
	}
	r.SetPanId(cfg.PanId)
	r.SetShortAddr(cfg.ShortAddr)
	if cfg.ExtAddr != types.InvalidExtAddr {
		r.SetExtAddr(cfg.ExtAddr)
	}
	b.radio = r
	if cfg.RxOnWhenIdle {
		r.SetRxOnWhenIdle(true)
		b.settle()
	}
	logger.Debugf("bench up: PAN %#04x, address %#04x, peer %#04x", cfg.PanId, cfg.ShortAddr, cfg.Peer.ShortAddr)
	return b, nil
}

func (b *Bench) Radio() *mac.Radio {
	return b.radio
}

func (b *Bench) Core() *stub.Core {
	return b.core
}

func (b *Bench) Now() types.Usec {
	return b.now
}

func (b *Bench) Stats() Stats {
	s := b.stats
	s.TxDone = make(map[string]int, len(b.stats.TxDone))
	for k, v := range b.stats.TxDone {
		s.TxDone[k] = v
	}
	return s
}

func (b *Bench) Trace() *Trace {
	return b.trace
}

// SetPcap writes delivered and transmitted frames to w from now on; nil stops.
func (b *Bench) SetPcap(w *pcap.Writer) {
	b.pcap = w
}

// WriteReport writes the radio activity report and the MAC diagnostics.
func (b *Bench) WriteReport(w io.Writer) error {
	if err := b.tracker.WriteReport(w, b.now); err != nil {
		return err
	}
	_, err := b.radio.Diagnostics().WriteTo(w)
	return err
}

func (b *Bench) setTime(t types.Usec) {
	b.now = t
	b.core.SetTime(uint32(t))
}

// Go advances virtual time by d.
func (b *Bench) Go(d types.Usec) {
	b.RunUntil(b.now + d)
}

// RunUntil processes every radio and timer event up to and including target,
// in time order, and leaves the clock at target.
func (b *Bench) RunUntil(target types.Usec) {
	if target < b.now {
		target = b.now
	}
	steps := 0
	for {
		next := b.nextDeadline()
		if next > target {
			break
		}
		if next > b.now {
			b.setTime(next)
			steps = 0
		} else if steps++; steps > maxStepsPerInstant {
			logger.Warnf("bench stuck at %d us, skipping to %d", b.now, target)
			break
		}
		b.step()
	}
	b.setTime(target)
	b.step()
}

func (b *Bench) step() {
	b.finishDue()
	b.core.FireDueCompares()
	b.settle()
}

// settle delivers radio core events and processes the resulting MAC events
// until both queues are empty.
func (b *Bench) settle() {
	for {
		if b.core.Step()+b.radio.ProcessEvents(b) == 0 {
			break
		}
	}
	b.track()
}

// track records the start time of chains seen for the first time and forgets
// retired ones.
func (b *Bench) track() {
	live := map[radio.CmdHandle]bool{}
	for _, s := range b.core.Scheduled() {
		live[s.Handle] = true
		if _, ok := b.started[s.Handle]; ok {
			continue
		}
		start := b.now
		if s.Params.StartType == radio.StartAbs {
			start = b.absTime(s.Params.StartTime)
		}
		b.started[s.Handle] = start
		b.core.Start(s.Handle)
	}
	for h := range b.started {
		if !live[h] {
			delete(b.started, h)
		}
	}
}

// absTime extends a 32-bit radio time close to now.
func (b *Bench) absTime(t uint32) types.Usec {
	return types.Usec(int64(b.now) + int64(int32(t-uint32(b.now))))
}

// endTime returns when a chain finishes on its own; receive chains never do.
func (b *Bench) endTime(s *stub.Scheduled) (types.Usec, bool) {
	start, ok := b.started[s.Handle]
	if !ok {
		return 0, false
	}
	switch {
	case s.Head == radiocmd.NoOp:
		return start, true
	case s.Has(radiocmd.KindTransmit):
		end := start + s.Params.Duration
		if cs := s.Arena.Get(radiocmd.Cs); s.Head != radiocmd.TransmitAck && containsRef(s.Refs, radiocmd.Cs) &&
			cs.StartTrigger == radiocmd.TriggerRelSubmit {
			end += types.Usec(cs.StartTime)
		}
		return end, true
	}
	return 0, false
}

func (b *Bench) nextDeadline() types.Usec {
	b.track()
	next := b.radio.Backoff().NextDeadline()
	for _, s := range b.core.Scheduled() {
		if end, ok := b.endTime(s); ok && end < next {
			next = end
		}
	}
	if t, ok := b.core.NextCompare(); ok {
		if at := b.absTime(t); at < next {
			next = at
		}
	}
	return next
}

func (b *Bench) finishDue() {
	for _, s := range b.core.Scheduled() {
		end, ok := b.endTime(s)
		if !ok || end > b.now {
			continue
		}
		delete(b.started, s.Handle)
		switch {
		case s.Head == radiocmd.NoOp:
			b.core.Complete(s.Handle, nil)
		case s.Head == radiocmd.TransmitAck:
			b.stats.AcksSent++
			b.transmitted(s.Arena.Get(radiocmd.TransmitAck).Tx.Packet, "ack")
			b.core.Complete(s.Handle, nil)
		default:
			b.finishTx(s)
		}
	}
}

func (b *Bench) finishTx(s *stub.Scheduled) {
	cca := radiocmd.None
	for _, ref := range s.Refs {
		if ref == radiocmd.Cs || ref == radiocmd.CsSlotted {
			cca = ref
		}
	}
	if cca.Valid() && b.rng.Float64() < b.cfg.Peer.BusyProbability {
		b.trace.Add(b.now, "cca", "channel busy")
		statuses := map[radiocmd.Ref]radiocmd.Status{
			cca:               radiocmd.StatusDoneBusy,
			radiocmd.Transmit: radiocmd.StatusSkipped,
		}
		if containsRef(s.Refs, radiocmd.Receive) {
			statuses[radiocmd.Receive] = radiocmd.StatusSkipped
		}
		b.core.Complete(s.Handle, statuses)
		return
	}
	pkt := s.Arena.Get(radiocmd.Transmit).Tx.Packet
	b.transmitted(pkt, "tx")
	if !s.Has(radiocmd.KindReceive) {
		b.core.Complete(s.Handle, nil)
		return
	}
	psdu := pkt[types.PhyPhrLen:]
	if len(psdu) <= types.FcfFieldLen || b.rng.Float64() >= b.cfg.Peer.AckProbability {
		b.core.Complete(s.Handle, map[radiocmd.Ref]radiocmd.Status{radiocmd.Receive: radiocmd.StatusDoneTimeout})
		return
	}
	ack := wpan.BuildAck(psdu[types.FcfFieldLen], false, wpan.FrameVersion2015)
	if err := b.core.Receive(s.Handle, b.ringEntry(ack, b.cfg.Peer.Rssi)); err != nil {
		logger.Warnf("ack for handle %d not queued: %v", s.Handle, err)
		b.core.Complete(s.Handle, nil)
	}
}

func (b *Bench) transmitted(pkt []byte, what string) {
	if len(pkt) < types.PhyPhrLen {
		return
	}
	b.stats.TxFrames++
	psdu := pkt[types.PhyPhrLen:]
	b.trace.Add(b.now, what, "%d bytes", len(psdu))
	b.writePcap(pcap.Frame{
		Timestamp: b.now,
		Psdu:      psdu,
		FcsLen:    wpan.DecodePhr(pkt).FcsLen(),
		Channel:   b.radio.Channel(),
	})
}

func (b *Bench) writePcap(f pcap.Frame) {
	if b.pcap == nil {
		return
	}
	if err := b.pcap.AppendFrame(f); err != nil {
		logger.Errorf("pcap: %v", err)
		b.pcap = nil
	}
}

// ringEntry lays out a received frame the way the radio core writes it.
func (b *Bench) ringEntry(psdu []byte, rssi int8) []byte {
	phr := wpan.Phr{Length: uint16(len(psdu) + b.fcsLen()), Fcs2: b.cfg.Mac.Fcs2, Whitening: true}
	e := append(phr.Encode(), psdu...)
	e = append(e, byte(rssi))
	return binary.LittleEndian.AppendUint32(e, uint32(b.now))
}

func (b *Bench) fcsLen() int {
	if b.cfg.Mac.Fcs2 {
		return types.Fcs2FieldLen
	}
	return types.Fcs4FieldLen
}

// rxChain returns the standalone receive chain, if the MAC is listening.
func (b *Bench) rxChain() *stub.Scheduled {
	for _, s := range b.core.Scheduled() {
		if s.Has(radiocmd.KindReceive) && !s.Has(radiocmd.KindTransmit) {
			return s
		}
	}
	return nil
}

// Inject delivers a data frame from the peer. It reports false when the MAC
// was not listening.
func (b *Bench) Inject(f FrameSpec) bool {
	seq := b.peerSeq
	if f.Seq != nil {
		seq = *f.Seq
	}
	b.peerSeq = seq + 1
	dst := b.cfg.ShortAddr
	if f.Dst != nil {
		dst = *f.Dst
	}
	rssi := b.cfg.Peer.Rssi
	if f.Rssi != nil {
		rssi = *f.Rssi
	}
	size := f.Size
	if size < minDataFrameLen {
		size = minDataFrameLen
	}
	return b.InjectPsdu(dataFrame(seq, size, f.AckRequest, b.cfg.PanId, dst, b.cfg.Peer.ShortAddr), rssi)
}

// InjectPsdu delivers an arbitrary PSDU without FCS.
func (b *Bench) InjectPsdu(psdu []byte, rssi int8) bool {
	b.stats.Injected++
	s := b.rxChain()
	if s == nil {
		b.stats.Lost++
		b.trace.Add(b.now, "lost", "%d bytes, receiver off", len(psdu))
		return false
	}
	if err := b.core.Receive(s.Handle, b.ringEntry(psdu, rssi)); err != nil {
		b.stats.Lost++
		b.trace.Add(b.now, "lost", "%d bytes, %v", len(psdu), err)
		b.settle()
		return false
	}
	b.trace.Add(b.now, "inject", "%d bytes, rssi %d", len(psdu), rssi)
	b.settle()
	return true
}

// InjectCrcError delivers a frame that fails its CRC.
func (b *Bench) InjectCrcError() bool {
	b.stats.Injected++
	s := b.rxChain()
	if s == nil {
		b.stats.Lost++
		return false
	}
	b.stats.CrcErrors++
	b.trace.Add(b.now, "inject", "crc error")
	b.core.ReceiveNOk(s.Handle)
	b.settle()
	return true
}

// Transmit submits a data frame to the peer.
func (b *Bench) Transmit(t TxSpec) error {
	seq := b.txSeq
	if t.Seq != nil {
		seq = *t.Seq
	}
	b.txSeq = seq + 1
	size := t.Size
	if size < minDataFrameLen {
		size = minDataFrameLen
	}
	psdu := dataFrame(seq, size, t.AckRequest, b.cfg.PanId, b.cfg.Peer.ShortAddr, b.cfg.ShortAddr)
	err := b.radio.SubmitTransmit(mac.TxRequest{Psdu: psdu, Type: t.Type, Beacon: t.Beacon})
	if err == nil || errors.Is(err, mac.ErrRejected) {
		b.stats.TxSubmitted++
	}
	b.settle()
	return err
}

func (b *Bench) SetRxOnWhenIdle(on bool) {
	b.radio.SetRxOnWhenIdle(on)
	b.settle()
}

func (b *Bench) Stop(graceful bool) error {
	err := b.radio.StopAll(graceful)
	b.settle()
	return err
}

// Reject makes the radio core refuse the next n submissions.
func (b *Bench) Reject(n int) {
	b.core.RejectNext(n)
}

func (b *Bench) SetChannel(ch types.ChannelId) error {
	err := b.radio.SetChannel(ch)
	b.settle()
	return err
}

func (b *Bench) SetTxPower(dbm int8) {
	b.radio.RequestTxPower(dbm)
	b.radio.UpdateTxPower()
}

func (b *Bench) ScheduleWakeup(delay types.Usec) error {
	err := b.radio.ScheduleWakeup(delay)
	b.settle()
	return err
}

func (b *Bench) FlushQueue() error {
	return b.radio.RxQueueFlush()
}

// Release frees the frame buffers held for delivered frames.
func (b *Bench) Release() int {
	n := b.held
	for ; b.held > 0; b.held-- {
		b.limited.Release()
	}
	return n
}

func (b *Bench) FrameReceived(f *wpan.RxFrame, ev *event.Event) {
	b.stats.Delivered++
	if b.limited != nil {
		b.held++
	}
	b.trace.Add(b.now, "frame", "%s", f)
	b.writePcap(pcap.Frame{
		Timestamp: b.now,
		Psdu:      ev.Data,
		FcsLen:    b.fcsLen(),
		Channel:   f.Channel,
		Rssi:      f.Rssi,
		Lqi:       f.Lqi,
	})
}

func (b *Bench) TxDone(status types.MacStatus) {
	b.stats.TxDone[status.String()]++
	b.trace.Add(b.now, "tx-done", "%s", status)
}

func (b *Bench) AckReceived(seq uint8, framePending bool) {
	b.stats.AcksReceived++
	b.trace.Add(b.now, "ack", "seq %d, pending %t", seq, framePending)
}

func (b *Bench) AckNotReceived() {
	b.stats.AcksMissed++
	b.trace.Add(b.now, "no-ack", "")
}

func (b *Bench) DutyCycleModeChanged(m dutycycle.Mode) {
	b.stats.ModeChanges++
	b.trace.Add(b.now, "duty-cycle", "%s", m)
}

func (b *Bench) BackoffExpired(c backoff.Class) {
	b.stats.Backoffs++
	b.trace.Add(b.now, "backoff", "%s", c)
}

func (b *Bench) Wakeup() {
	b.stats.Wakeups++
	b.trace.Add(b.now, "wakeup", "")
}

func containsRef(refs []radiocmd.Ref, ref radiocmd.Ref) bool {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}
	return false
}

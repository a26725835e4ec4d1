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

// Package mac is the low-level MAC running next to a radio core. It owns the
// command descriptors, submits receive and transmit chains, decodes received
// frames straight out of the receive ring and reports to the upper MAC layer
// through an event mailbox drained in task context.
package mac

import (
	"math/rand"
	"sync"

	"github.com/pkg/errors"

	"github.com/openthread/ot-rfmac/activity"
	"github.com/openthread/ot-rfmac/backoff"
	"github.com/openthread/ot-rfmac/dutycycle"
	"github.com/openthread/ot-rfmac/event"
	"github.com/openthread/ot-rfmac/logger"
	"github.com/openthread/ot-rfmac/phy"
	"github.com/openthread/ot-rfmac/prng"
	"github.com/openthread/ot-rfmac/radio"
	"github.com/openthread/ot-rfmac/radiocmd"
	"github.com/openthread/ot-rfmac/types"
	"github.com/openthread/ot-rfmac/wpan"
)

var (
	ErrCommandActive = errors.New("radio command of the same class is active")
	ErrRejected      = errors.New("radio core rejected the command")
)

// StatusError reports a MAC status for a request that was not submitted.
type StatusError types.MacStatus

func (e StatusError) Error() string {
	return types.MacStatus(e).String()
}

var ErrDutyCycleRegulated error = StatusError(types.StatusDutyCycleRegulated)

type RxState uint8

const (
	RxIdle RxState = iota
	RxStarted
	RxSecurityHeader
	RxPayload
	RxTrailer
)

func (s RxState) String() string {
	switch s {
	case RxIdle:
		return "idle"
	case RxStarted:
		return "started"
	case RxSecurityHeader:
		return "security-header"
	case RxPayload:
		return "payload"
	case RxTrailer:
		return "trailer"
	default:
		return "INVALID"
	}
}

type TxState uint8

const (
	TxIdle TxState = iota
	// TxQueued waits for the frame being received to finish.
	TxQueued
	TxGo
	TxListenForAck
)

func (s TxState) String() string {
	switch s {
	case TxIdle:
		return "idle"
	case TxQueued:
		return "queued"
	case TxGo:
		return "go"
	case TxListenForAck:
		return "listen-for-ack"
	default:
		return "INVALID"
	}
}

type postKind uint8

const (
	postNone postKind = iota
	postRx
	postTx
)

// partialFrame is the frame being decoded out of the ring.
type partialFrame struct {
	fc            wpan.FrameControl
	seq           uint8
	seqSuppressed bool
	hdr           wpan.Header
	payloadLen    int
	ackPending    bool
	buf           []byte
}

// Radio is the MAC radio context. Fields below mu are shared between task
// context calls and radio core callbacks and are only touched with mu held.
type Radio struct {
	cfg    Config
	phy    phy.Descriptor
	core   radio.Core
	arena  *radiocmd.Arena
	ring   *radio.RxRing
	alloc  Allocator
	hooks  activity.Hooks
	events *event.Mailbox
	timers *backoff.Timers

	mu          sync.Mutex
	duty        *dutycycle.Engine
	rng         *rand.Rand
	filter      FrameFilter
	promiscuous bool
	rxFilter    RxFilter
	channel     types.ChannelId
	sfdHook     func()

	numRf     int
	numRx     int
	lastPost  postKind
	poweredUp bool

	rxHandle     radio.CmdHandle
	rxOnWhenIdle bool
	rxRestart    bool
	rxState      RxState
	rx           partialFrame
	ringHeld     bool
	outgoingAck  bool
	ackHandle    radio.CmdHandle
	savedHandle  radio.CmdHandle
	savedEvent   radio.EventMask

	txHandle   radio.CmdHandle
	txState    TxState
	tx         TxRequest
	txCca      radiocmd.Ref
	txDuration types.Usec
	retryTx    *TxRequest
	nopHandle  radio.CmdHandle

	txPowerReq int8
	txPowerCur int8

	ratChan [radio.NumRatChannels]radio.RatHandle

	clockHi   types.Usec
	clockLast uint32

	diag Diagnostics
}

// New initializes the radio context. alloc may be nil for heap buffers. Hooks
// are optional values implementing any of the activity interfaces.
func New(cfg Config, core radio.Core, alloc Allocator, hooks ...interface{}) (*Radio, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d, _ := phy.Lookup(cfg.PhyId)
	if alloc == nil {
		alloc = heapAllocator{}
	}

	ring, err := radio.NewRxRing(cfg.RxRingEntries, cfg.rxEntrySize())
	if err != nil {
		logger.Panicf("allocate rx ring: %v", err)
	}

	r := &Radio{
		cfg:         cfg,
		phy:         d,
		core:        core,
		arena:       radiocmd.NewArena(),
		ring:        ring,
		alloc:       alloc,
		hooks:       activity.Resolve(hooks...),
		events:      event.NewMailbox(cfg.MailboxSize),
		rng:         prng.NewRadioRandomSeed().NewRand(),
		filter:      newFrameFilter(),
		promiscuous: cfg.Promiscuous,
		rxFilter:    cfg.RxFilter,
		channel:     cfg.Channel,
		rxHandle:    radio.HandleNone,
		ackHandle:   radio.HandleNone,
		savedHandle: radio.HandleNone,
		txHandle:    radio.HandleNone,
		nopHandle:   radio.HandleNone,
		txCca:       radiocmd.None,
		txPowerReq:  cfg.TxPowerDbm,
		txPowerCur:  cfg.TxPowerDbm,
	}
	for i := range r.ratChan {
		r.ratChan[i] = radio.RatHandleNone
	}
	r.timers = backoff.New(cfg.TickPeriod, r.backoffExpired)
	if r.duty, err = dutycycle.New(cfg.DutyCycle, r.dutyCycleChanged); err != nil {
		return nil, errors.Wrap(err, "duty cycle")
	}
	r.duty.SetCoordinator(cfg.PanCoordinator, cfg.BeaconEnabled)

	r.initCommands()
	core.SetRxQueue(ring)
	if err := core.RunImmediate(r.arena, radiocmd.Setup); err != nil {
		return nil, errors.Wrap(err, "radio setup")
	}
	r.hooks.RadioState(types.RadioSleep, r.Now())
	logger.Debugf("mac radio up: PHY %d channel %d, %d rx entries of %d bytes", d.Id, cfg.Channel, ring.Size(), ring.EntrySize())
	return r, nil
}

func (r *Radio) initCommands() {
	a := r.arena
	a.Get(radiocmd.Setup).Setup = radiocmd.SetupParams{
		PhyId:      r.cfg.PhyId,
		Fcs2:       r.cfg.Fcs2,
		Whitening:  true,
		TxPowerDbm: r.cfg.TxPowerDbm,
	}
	a.Get(radiocmd.FsTx).Fs.TxMode = true
	for _, ref := range []radiocmd.Ref{radiocmd.Cs, radiocmd.CsSlotted} {
		a.Get(ref).Cca = radiocmd.CcaParams{RssiThresholdDbm: phy.CcaThresholdDbm}
	}
}

func (r *Radio) Config() Config {
	return r.cfg
}

// Now returns the radio timer extended to 64 bits.
func (r *Radio) Now() types.Usec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nowLocked()
}

func (r *Radio) nowLocked() types.Usec {
	t := r.core.CurrentTime()
	if t < r.clockLast {
		r.clockHi += 1 << 32
	}
	r.clockLast = t
	return r.clockHi + types.Usec(t)
}

// Counters returns the outstanding radio command counts.
func (r *Radio) Counters() (numRf, numRx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.numRf, r.numRx
}

func (r *Radio) RxState() RxState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rxState
}

func (r *Radio) TxState() TxState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.txState
}

// OutgoingAck reports whether an ACK for the last received frame is pending.
func (r *Radio) OutgoingAck() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outgoingAck
}

func (r *Radio) Diagnostics() Diagnostics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.diag
}

func (r *Radio) Events() *event.Mailbox {
	return r.events
}

func (r *Radio) Backoff() *backoff.Timers {
	return r.timers
}

func (r *Radio) Ring() *radio.RxRing {
	return r.ring
}

// DutyCycle returns the current mode and the airtime in the window.
func (r *Radio) DutyCycle() (dutycycle.Mode, types.Usec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duty.Mode(), r.duty.Used()
}

// DutyCycleStatus returns the duty cycle window and thresholds.
func (r *Radio) DutyCycleStatus() dutycycle.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duty.Status()
}

func (r *Radio) SetDutyCycleEnabled(enabled bool) {
	r.mu.Lock()
	r.duty.SetEnabled(enabled)
	r.mu.Unlock()
}

func (r *Radio) Channel() types.ChannelId {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channel
}

// TxPower returns the applied and the requested power.
func (r *Radio) TxPower() (cur, req int8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.txPowerCur, r.txPowerReq
}

func (r *Radio) Filter() FrameFilter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter.clone()
}

func (r *Radio) SetPanId(pan types.PanId) {
	r.mu.Lock()
	r.filter.PanId = pan
	r.mu.Unlock()
}

func (r *Radio) SetShortAddr(a types.ShortAddr) {
	r.mu.Lock()
	r.filter.ShortAddr = a
	r.mu.Unlock()
}

func (r *Radio) SetExtAddr(a types.ExtAddr) {
	r.mu.Lock()
	r.filter.ExtAddr = a
	r.mu.Unlock()
}

func (r *Radio) SetEuiFilter(mode EuiFilterMode) {
	r.mu.Lock()
	r.filter.EuiMode = mode
	r.mu.Unlock()
}

// AddEui adds an extended address to the allow/deny list.
func (r *Radio) AddEui(a types.ExtAddr) {
	r.mu.Lock()
	r.filter.euis[a] = struct{}{}
	r.mu.Unlock()
}

func (r *Radio) RemoveEui(a types.ExtAddr) {
	r.mu.Lock()
	delete(r.filter.euis, a)
	r.mu.Unlock()
}

// SetFramePending marks src as having data pending, reflected in the ACKs sent to it.
func (r *Radio) SetFramePending(src wpan.Address, pending bool) {
	r.mu.Lock()
	if pending {
		r.filter.pending[src] = struct{}{}
	} else {
		delete(r.filter.pending, src)
	}
	r.mu.Unlock()
}

func (r *Radio) SetPromiscuous(on bool) {
	r.mu.Lock()
	r.promiscuous = on
	r.mu.Unlock()
}

func (r *Radio) SetRxFilter(f RxFilter) {
	r.mu.Lock()
	r.rxFilter = f
	r.mu.Unlock()
}

// SetSfdHook installs the callback run on a sync word detect while frequency
// hopping. It runs in radio core context with the radio context locked.
func (r *Radio) SetSfdHook(fn func()) {
	r.mu.Lock()
	r.sfdHook = fn
	r.mu.Unlock()
}

func (r *Radio) decRf() {
	if r.numRf > 0 {
		r.numRf--
		return
	}
	r.diag.UnexpectedOrder++
	logger.Warnf("outstanding radio command count underflow")
}

func (r *Radio) decRx() {
	if r.numRx > 0 {
		r.numRx--
	}
}

func (r *Radio) incRf(state types.RadioStates) {
	r.numRf++
	r.poweredUp = true
	r.hooks.RadioState(state, r.nowLocked())
}

// powerVoteLocked lets the radio core power down once nothing is outstanding.
func (r *Radio) powerVoteLocked() {
	if r.numRf == 0 && r.poweredUp {
		r.poweredUp = false
		r.hooks.RadioState(types.RadioSleep, r.nowLocked())
		logger.Tracef("radio power down vote")
	}
}

func (r *Radio) post(ev *event.Event) {
	ev.Timestamp = r.nowLocked()
	if !r.events.Post(ev) {
		r.diag.EventsDropped++
		logger.Warnf("mailbox full, dropped %s", ev)
	}
}

func (r *Radio) backoffExpired(c backoff.Class) {
	r.mu.Lock()
	r.post(&event.Event{Type: event.TypeBackoffExpired, Class: c})
	r.mu.Unlock()
}

func (r *Radio) dutyCycleChanged(m dutycycle.Mode) {
	logger.Infof("duty cycle mode %s", m)
	r.post(&event.Event{Type: event.TypeDutyCycleMode, Mode: m})
}

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

package mac

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/openthread/ot-rfmac/backoff"
	"github.com/openthread/ot-rfmac/event"
	"github.com/openthread/ot-rfmac/logger"
	"github.com/openthread/ot-rfmac/phy"
	"github.com/openthread/ot-rfmac/radio"
	"github.com/openthread/ot-rfmac/radiocmd"
	"github.com/openthread/ot-rfmac/types"
	"github.com/openthread/ot-rfmac/wpan"
)

type TxType uint8

const (
	TxUnslottedCsma TxType = iota
	TxSlottedCsma
	TxNoCsma
)

func (t TxType) String() string {
	switch t {
	case TxUnslottedCsma:
		return "csma"
	case TxSlottedCsma:
		return "slotted-csma"
	case TxNoCsma:
		return "no-csma"
	default:
		return "INVALID"
	}
}

func (t TxType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TxType) UnmarshalText(text []byte) error {
	for _, tt := range []TxType{TxUnslottedCsma, TxSlottedCsma, TxNoCsma} {
		if tt.String() == strings.ToLower(string(text)) {
			*t = tt
			return nil
		}
	}
	return errors.Errorf("unknown transmit type %q", text)
}

// TxRequest is one frame handed down by the upper layer.
type TxRequest struct {
	// Psdu is the MAC frame without FCS.
	Psdu []byte
	Type TxType
	// Beacon frames are accounted separately by the duty-cycle engine.
	Beacon bool
}

// unitBackoffSymbols is aUnitBackoffPeriod.
const unitBackoffSymbols = 20

const rxEvents = radio.EventRxOk | radio.EventRxNOk | radio.EventRxBufFull | radio.EventRxAborted |
	radio.EventRxIgnored | radio.EventMdmSoft

func (r *Radio) fsParams(txMode bool) radiocmd.FsParams {
	f, _ := r.phy.ChannelKHz(r.channel)
	return radiocmd.FsParams{Channel: r.channel, FreqKHz: f, TxMode: txMode}
}

// needFs reports whether the synthesizer has to be programmed before the chain.
func (r *Radio) needFs(txMode bool) bool {
	cur, ok := r.core.ProgrammedFs()
	want := r.fsParams(txMode)
	return !ok || cur.FreqKHz != want.FreqKHz || cur.TxMode != want.TxMode
}

func (r *Radio) phrFor(psduLen int) []byte {
	return wpan.Phr{
		Length:    uint16(psduLen + r.cfg.fcsLen()),
		Fcs2:      r.cfg.Fcs2,
		Whitening: true,
	}.Encode()
}

// SubmitReceive starts a receive command, preceded by a frequency set when
// the synthesizer is not on the current channel.
func (r *Radio) SubmitReceive() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.submitReceiveLocked()
}

func (r *Radio) submitReceiveLocked() error {
	if r.lastPost == postRx && r.numRx > 0 {
		return ErrCommandActive
	}
	a := r.arena
	if err := r.checkIdle(radiocmd.FsRx, radiocmd.Receive); err != nil {
		return err
	}
	a.Unchain(radiocmd.Receive)
	head := radiocmd.Receive
	if r.needFs(false) {
		fs := a.Get(radiocmd.FsRx)
		fs.Fs = r.fsParams(false)
		fs.StartTrigger = radiocmd.TriggerNow
		a.Chain(radiocmd.FsRx, radiocmd.Receive, radiocmd.CondStopOnFalse)
		head = radiocmd.FsRx
	}
	if err := a.Prepare(head); err != nil {
		return errors.Wrap(ErrCommandActive, err.Error())
	}
	rx := a.Get(radiocmd.Receive)
	if head == radiocmd.Receive {
		rx.StartTrigger = radiocmd.TriggerNow
	} else {
		rx.StartTrigger = radiocmd.TriggerRelPrevEnd
	}
	rx.Rx = radiocmd.RxParams{
		PanId:     r.filter.PanId,
		ShortAddr: r.filter.ShortAddr,
		ExtAddr:   r.filter.ExtAddr,
	}

	mask := radio.EventRxOk | radio.EventRxNOk | radio.EventRxBufFull | radio.EventsTerminal
	if r.cfg.FrequencyHopping {
		mask |= radio.EventMdmSoft | radio.EventRxIgnored | radio.EventRxAborted | radio.EventCmdPreempted
	}
	params := radio.ScheduleParams{Priority: r.hooks.RxPriority()}
	h := r.core.Schedule(a, head, params, r.rxCallback, mask)
	if !h.Valid() {
		r.diag.SubmitRejected++
		r.timers.Request(backoff.ClassRx, r.nowLocked(), r.cfg.RejectedBackoff)
		return errors.Wrapf(ErrRejected, "receive, handle %d", h)
	}
	r.numRx++
	r.incRf(types.RadioRx)
	r.lastPost = postRx
	r.rxHandle = h
	r.timers.Cancel(backoff.ClassRx)
	r.hooks.RxSubmitted()
	logger.Tracef("rx submitted: handle %d via %s", h, head)
	return nil
}

// checkIdle fails when one of refs is still owned by the radio core.
func (r *Radio) checkIdle(refs ...radiocmd.Ref) error {
	for _, ref := range refs {
		if st := r.arena.Get(ref).Status(); st.InFlight() {
			return errors.Wrapf(ErrCommandActive, "%s is %s", ref, st)
		}
	}
	return nil
}

// SetRxOnWhenIdle keeps a receive command posted whenever nothing else runs.
func (r *Radio) SetRxOnWhenIdle(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rxOnWhenIdle = on
	if on {
		r.rxOnRequestLocked()
	} else {
		r.rxOffRequestLocked()
	}
}

func (r *Radio) rxOnRequestLocked() {
	if !r.rxOnWhenIdle || r.rxRestart || r.txState != TxIdle || r.rxState != RxIdle || r.outgoingAck {
		return
	}
	if r.lastPost == postRx && r.numRx > 0 {
		return
	}
	if err := r.submitReceiveLocked(); err != nil {
		logger.Debugf("rx on request: %v", err)
	}
}

func (r *Radio) rxOffRequestLocked() {
	if r.rxOnWhenIdle || r.rxState != RxIdle || r.outgoingAck {
		return
	}
	r.rxOffLocked()
}

// rxOffLocked stops the posted receive command, if any.
func (r *Radio) rxOffLocked() {
	if !r.rxHandle.Valid() {
		return
	}
	if err := r.core.Cancel(r.rxHandle, false); err != nil {
		logger.Debugf("rx off: %v", err)
	}
	r.rxHandle = radio.HandleNone
}

// SetChannel retunes the radio. A posted receive command is restarted on the
// new channel; a frame being decoded completes first.
func (r *Radio) SetChannel(ch types.ChannelId) error {
	if _, err := r.phy.ChannelKHz(ch); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch == r.channel {
		return nil
	}
	r.channel = ch
	if r.rxHandle.Valid() && r.rxState == RxIdle {
		r.rxRestart = true
		r.rxOffLocked()
	}
	return nil
}

// SubmitTransmit sends one frame. While a frame is being received the request
// is queued and started once reception is done. A submission refused by the
// radio core returns ErrRejected and is retried when the transmit backoff
// expires; its outcome is reported like any other.
func (r *Radio) SubmitTransmit(req TxRequest) error {
	if len(req.Psdu) < types.FcfFieldLen {
		return errors.Errorf("psdu too short: %d", len(req.Psdu))
	}
	if len(req.Psdu)+r.cfg.fcsLen() > r.cfg.MaxFrameSize {
		return errors.Errorf("psdu of %d bytes exceeds max frame size %d", len(req.Psdu), r.cfg.MaxFrameSize)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.txState != TxIdle || r.retryTx != nil {
		return ErrCommandActive
	}
	if !r.duty.CheckAllowed(r.txDurationFor(req)) {
		r.diag.TxDutyCycle++
		return ErrDutyCycleRegulated
	}
	if r.rxState != RxIdle || r.outgoingAck {
		r.tx = req
		r.txState = TxQueued
		logger.Debugf("tx queued behind rx (%s)", r.rxState)
		return nil
	}
	return r.startTxLocked(req)
}

func (r *Radio) txDurationFor(req TxRequest) types.Usec {
	fc := wpan.FrameControl(uint16(req.Psdu[0]) | uint16(req.Psdu[1])<<8)
	return r.phy.CommandDuration(len(req.Psdu)+r.cfg.fcsLen(), fc.AckRequest())
}

// startTxLocked builds [FsTx] -> [Cs|CsSlotted] -> Transmit -> [Receive ACK]
// and submits it.
func (r *Radio) startTxLocked(req TxRequest) error {
	a := r.arena
	fc := wpan.FrameControl(uint16(req.Psdu[0]) | uint16(req.Psdu[1])<<8)
	ackReq := fc.AckRequest()

	r.rxOffLocked()

	cca := radiocmd.None
	switch req.Type {
	case TxUnslottedCsma:
		cca = radiocmd.Cs
	case TxSlottedCsma:
		cca = radiocmd.CsSlotted
	case TxNoCsma:
		if r.phy.Cca == phy.CcaLbt {
			cca = radiocmd.Cs
		}
	}

	var chain []radiocmd.Ref
	if r.needFs(true) {
		chain = append(chain, radiocmd.FsTx)
	}
	if cca.Valid() {
		chain = append(chain, cca)
	}
	chain = append(chain, radiocmd.Transmit)
	if ackReq {
		chain = append(chain, radiocmd.Receive)
	}
	if err := r.checkIdle(chain...); err != nil {
		return err
	}
	if chain[0] == radiocmd.FsTx {
		a.Get(radiocmd.FsTx).Fs = r.fsParams(true)
	}
	for i, ref := range chain {
		if i+1 == len(chain) {
			a.Unchain(ref)
			continue
		}
		cond := radiocmd.CondStopOnFalse
		if ref == radiocmd.Cs || ref == radiocmd.CsSlotted {
			// busy ends the chain
			cond = radiocmd.CondStopOnTrue
		}
		a.Chain(ref, chain[i+1], cond)
	}
	head := chain[0]
	if err := a.Prepare(head); err != nil {
		return errors.Wrap(ErrCommandActive, err.Error())
	}

	for i, ref := range chain {
		cmd := a.Get(ref)
		cmd.StartTime = 0
		if i == 0 {
			cmd.StartTrigger = radiocmd.TriggerNow
		} else {
			cmd.StartTrigger = radiocmd.TriggerRelPrevEnd
		}
	}
	if cca == radiocmd.Cs && req.Type == TxUnslottedCsma {
		// random initial backoff of 0..2^minBE-1 unit periods
		period := uint32(unitBackoffSymbols) * r.phy.UsecPerSymbol()
		cs := a.Get(radiocmd.Cs)
		cs.StartTrigger = radiocmd.TriggerRelSubmit
		cs.StartTime = uint32(r.rng.Intn(1<<r.cfg.MinBe)) * period
	}
	a.Get(radiocmd.Transmit).Tx = radiocmd.TxParams{Packet: append(r.phrFor(len(req.Psdu)), req.Psdu...)}

	mask := radio.EventTxDone | radio.EventsTerminal | radio.EventCmdPreempted
	d := r.txDurationFor(req)
	if ackReq {
		a.Get(radiocmd.Receive).Rx = radiocmd.RxParams{
			PanId:     r.filter.PanId,
			ShortAddr: r.filter.ShortAddr,
			ExtAddr:   r.filter.ExtAddr,
			EndTime:   uint32(r.ackTimeout()),
		}
		mask |= radio.EventRxOk | radio.EventRxBufFull | radio.EventRxNOk | radio.EventMdmSoft
	}

	params := radio.ScheduleParams{Duration: d, Priority: r.hooks.TxPriority()}
	h := r.core.Schedule(a, head, params, r.txCallback, mask)
	if !h.Valid() {
		r.diag.SubmitRejected++
		retry := req
		r.retryTx = &retry
		r.txState = TxIdle
		r.timers.Request(backoff.ClassTx, r.nowLocked(), r.cfg.RejectedBackoff)
		r.rxOnRequestLocked()
		return errors.Wrapf(ErrRejected, "transmit, handle %d", h)
	}
	r.incRf(types.RadioTx)
	r.lastPost = postTx
	r.txHandle = h
	r.tx = req
	r.txCca = cca
	r.txDuration = d
	r.retryTx = nil
	r.timers.Cancel(backoff.ClassTx)
	if ackReq {
		r.txState = TxListenForAck
	} else {
		r.txState = TxGo
	}
	r.hooks.TxSubmitted(len(req.Psdu), ackReq)
	logger.Tracef("tx submitted: handle %d, %d bytes, %s, ack=%t", h, len(req.Psdu), req.Type, ackReq)
	return nil
}

// startOrAbortTxLocked starts a transmission the upper layer is no longer
// waiting on synchronously. A refused submission is retried after backoff;
// any other failure ends the request with TxAborted.
func (r *Radio) startOrAbortTxLocked(req TxRequest, what string) {
	err := r.startTxLocked(req)
	if err == nil || errors.Is(err, ErrRejected) {
		return
	}
	r.diag.TxAborted++
	logger.Warnf("%s: %v", what, err)
	r.post(txDoneEvent(types.StatusTxAborted))
}

func (r *Radio) ackTimeout() types.Usec {
	if r.cfg.AckTimeout != 0 {
		return r.cfg.AckTimeout
	}
	return r.phy.AckTimeout()
}

// StopAll flushes every outstanding radio command and returns the receive
// state machine to idle. Receive-on-when-idle is switched off.
func (r *Radio) StopAll(graceful bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timers.Cancel(backoff.ClassRx)
	r.rxOnWhenIdle = false
	r.rxRestart = false
	// a CCA finishing during the flush must not start the transmission
	r.arena.Get(radiocmd.Cs).Condition = radiocmd.CondNever
	r.arena.Get(radiocmd.CsSlotted).Condition = radiocmd.CondNever
	err := r.core.Flush(graceful)

	// a frame received but not yet decoded is abandoned, not failed
	if r.savedHandle.Valid() || r.rxState != RxIdle {
		r.diag.RxHalted++
	}
	if r.savedHandle.Valid() && r.savedEvent.Has(radio.EventRxOk|radio.EventRxBufFull) &&
		r.ring.Current() == radio.EntryFinished {
		r.ringHeld = true
	}
	r.savedHandle = radio.HandleNone
	r.savedEvent = 0
	if r.rx.buf != nil {
		r.alloc.Free(r.rx.buf)
	}
	r.rx = partialFrame{}
	r.releaseEntryLocked()
	r.rxState = RxIdle
	r.outgoingAck = false
	r.rxHandle = radio.HandleNone
	r.ackHandle = radio.HandleNone
	if r.txState == TxQueued {
		r.txState = TxIdle
		r.post(txDoneEvent(types.StatusTxAborted))
	}
	return errors.Wrap(err, "flush radio commands")
}

// RequestTxPower records the requested power and applies it when the radio
// is not transmitting.
func (r *Radio) RequestTxPower(dbm int8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txPowerReq = dbm
	r.updateTxPowerLocked()
}

// UpdateTxPower applies a deferred power request if nothing is on the air.
func (r *Radio) UpdateTxPower() {
	r.mu.Lock()
	r.updateTxPowerLocked()
	r.mu.Unlock()
}

func (r *Radio) txPhysicallyActive() bool {
	return r.txState == TxGo || r.txState == TxListenForAck
}

func (r *Radio) updateTxPowerLocked() {
	if r.txPowerReq == r.txPowerCur || r.outgoingAck || r.txPhysicallyActive() {
		return
	}
	if err := r.core.SetTxPower(r.txPowerReq); err != nil {
		logger.Warnf("set tx power %d dBm: %v", r.txPowerReq, err)
		return
	}
	r.txPowerCur = r.txPowerReq
	logger.Debugf("tx power %d dBm", r.txPowerCur)
}

// SetupTimerCompare arms compare channel ch to call cb delta microseconds from
// now. A channel still armed is disabled before it is armed again.
func (r *Radio) SetupTimerCompare(ch radio.RatChannel, cb func(compareTime uint32), delta uint32) error {
	if ch >= radio.NumRatChannels {
		return errors.Errorf("invalid compare channel %d", ch)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	compareTime := r.core.CurrentTime() + delta
	r.disableCompareLocked(ch)
	h, err := r.core.ArmCompare(compareTime, func(h radio.RatHandle, t uint32) {
		r.mu.Lock()
		if r.ratChan[ch] == h {
			r.ratChan[ch] = radio.RatHandleNone
		}
		r.mu.Unlock()
		if cb != nil {
			cb(t)
		}
	})
	if err != nil {
		r.diag.CompareFailed++
		logger.Warnf("arm compare channel %s at %d: %v", ch, compareTime, err)
		return errors.Wrapf(err, "arm compare channel %s", ch)
	}
	r.ratChan[ch] = h
	return nil
}

func (r *Radio) disableCompareLocked(ch radio.RatChannel) {
	h := r.ratChan[ch]
	if h == radio.RatHandleNone {
		return
	}
	if err := r.core.DisableCompare(h); err != nil {
		logger.Warnf("disable compare channel %s: %v", ch, err)
	}
	r.ratChan[ch] = radio.RatHandleNone
}

// DisableTimerChannels disarms both compare channels.
func (r *Radio) DisableTimerChannels() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ch := radio.RatChannelA; ch < radio.NumRatChannels; ch++ {
		r.disableCompareLocked(ch)
	}
}

// TimerArmed reports whether compare channel ch is armed.
func (r *Radio) TimerArmed(ch radio.RatChannel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ratChan[ch] != radio.RatHandleNone
}

// RxQueueFlush empties the receive ring through the radio core.
func (r *Radio) RxQueueFlush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ringHeld = false
	return errors.Wrap(r.core.RunImmediate(r.arena, radiocmd.FlushQueue), "rx queue flush")
}

// ScheduleWakeup posts a no-op command completing after delay. Its completion
// is reported as a wakeup event.
func (r *Radio) ScheduleWakeup(delay types.Usec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nopHandle.Valid() {
		return ErrCommandActive
	}
	if err := r.checkIdle(radiocmd.NoOp); err != nil {
		return err
	}
	r.arena.Unchain(radiocmd.NoOp)
	if err := r.arena.Prepare(radiocmd.NoOp); err != nil {
		return errors.Wrap(ErrCommandActive, err.Error())
	}
	nop := r.arena.Get(radiocmd.NoOp)
	nop.StartTrigger = radiocmd.TriggerAbsTime
	nop.StartTime = r.core.CurrentTime() + uint32(delay)
	params := radio.ScheduleParams{StartTime: nop.StartTime, StartType: radio.StartAbs}
	h := r.core.Schedule(r.arena, radiocmd.NoOp, params, r.nopCallback, radio.EventsTerminal|radio.EventCmdPreempted)
	if !h.Valid() {
		r.diag.SubmitRejected++
		r.timers.Request(backoff.ClassNop, r.nowLocked(), r.cfg.RejectedBackoff)
		return errors.Wrapf(ErrRejected, "no-op, handle %d", h)
	}
	r.nopHandle = h
	r.incRf(types.RadioSleep)
	return nil
}

func (r *Radio) nopCallback(h radio.CmdHandle, e radio.EventMask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !e.Has(radio.EventsTerminal) {
		return
	}
	r.nopDoneLocked(h)
}

func (r *Radio) nopDoneLocked(h radio.CmdHandle) {
	if h == r.nopHandle {
		r.nopHandle = radio.HandleNone
	}
	r.decRf()
	r.post(&event.Event{Type: event.TypeWakeup})
	r.powerVoteLocked()
}

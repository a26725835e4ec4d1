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
	"github.com/openthread/ot-rfmac/backoff"
	"github.com/openthread/ot-rfmac/dutycycle"
	"github.com/openthread/ot-rfmac/event"
	"github.com/openthread/ot-rfmac/logger"
	"github.com/openthread/ot-rfmac/types"
	"github.com/openthread/ot-rfmac/wpan"
)

// Upper is the upper MAC layer receiving notifications in task context.
type Upper interface {
	// FrameReceived hands over a received frame; the upper layer owns it.
	FrameReceived(f *wpan.RxFrame, ev *event.Event)
	TxDone(status types.MacStatus)
	AckReceived(seq uint8, framePending bool)
	AckNotReceived()
	DutyCycleModeChanged(m dutycycle.Mode)
	BackoffExpired(c backoff.Class)
	Wakeup()
}

// BaseUpper ignores every notification. Embed it to implement part of Upper.
type BaseUpper struct{}

func (BaseUpper) FrameReceived(*wpan.RxFrame, *event.Event) {}
func (BaseUpper) TxDone(types.MacStatus) {}
func (BaseUpper) AckReceived(uint8, bool) {}
func (BaseUpper) AckNotReceived() {}
func (BaseUpper) DutyCycleModeChanged(dutycycle.Mode) {}
func (BaseUpper) BackoffExpired(backoff.Class) {}
func (BaseUpper) Wakeup() {}

// ProcessEvents expires backoff timers, advances the duty-cycle window and
// dispatches every queued event to u. Retries of refused commands run before
// the matching BackoffExpired notification. It returns the number of events
// dispatched.
func (r *Radio) ProcessEvents(u Upper) int {
	now := r.Now()
	r.timers.Advance(now)

	r.mu.Lock()
	r.duty.Tick(now)
	r.mu.Unlock()

	evs := r.events.Drain()
	for _, ev := range evs {
		logger.Tracef("event %s at %d", ev, ev.Timestamp)
		switch ev.Type {
		case event.TypeBackoffExpired:
			r.retry(ev.Class)
			u.BackoffExpired(ev.Class)
		case event.TypeFrameReceived:
			u.FrameReceived(ev.Frame, ev)
		case event.TypeTxDone:
			u.TxDone(ev.Status)
		case event.TypeAckReceived:
			u.AckReceived(ev.Seq, ev.FramePending)
		case event.TypeAckNotReceived:
			u.AckNotReceived()
		case event.TypeDutyCycleMode:
			u.DutyCycleModeChanged(ev.Mode)
		case event.TypeWakeup:
			u.Wakeup()
		default:
			logger.Warnf("unknown event %s", ev)
		}
	}
	return len(evs)
}

// retry resubmits the command refused before class c was armed.
func (r *Radio) retry(c backoff.Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.powerVoteLocked()
	switch c {
	case backoff.ClassRx:
		if !r.rxOnWhenIdle {
			return
		}
		if err := r.submitReceiveLocked(); err != nil {
			logger.Debugf("rx retry: %v", err)
		}
	case backoff.ClassTx:
		if r.retryTx == nil || r.txState != TxIdle {
			return
		}
		req := *r.retryTx
		r.retryTx = nil
		if !r.duty.CheckAllowed(r.txDurationFor(req)) {
			r.diag.TxDutyCycle++
			r.post(txDoneEvent(types.StatusDutyCycleRegulated))
			return
		}
		if r.rxState != RxIdle || r.outgoingAck {
			r.tx = req
			r.txState = TxQueued
			return
		}
		r.startOrAbortTxLocked(req, "tx retry")
	case backoff.ClassNop:
		// the refused no-op completes as if it had run
		r.numRf++
		r.nopDoneLocked(r.nopHandle)
	}
}

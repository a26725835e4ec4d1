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
	"github.com/openthread/ot-rfmac/event"
	"github.com/openthread/ot-rfmac/logger"
	"github.com/openthread/ot-rfmac/radio"
	"github.com/openthread/ot-rfmac/radiocmd"
	"github.com/openthread/ot-rfmac/types"
	"github.com/openthread/ot-rfmac/wpan"
)

func txDoneEvent(status types.MacStatus) *event.Event {
	return &event.Event{Type: event.TypeTxDone, Status: status}
}

func (r *Radio) txCallback(h radio.CmdHandle, e radio.EventMask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.powerVoteLocked()

	if h != r.txHandle {
		// a chain stopped after its outcome was reported
		if e.Has(radio.EventsTerminal) {
			r.decRf()
		}
		return
	}
	if e.Has(rxEvents) {
		r.rxEventLocked(h, e&rxEvents)
	}
	switch {
	case e.Has(radio.EventCmdCancelled | radio.EventCmdStopped | radio.EventCmdAborted):
		r.txHandle = radio.HandleNone
		r.savedHandle = radio.HandleNone
		r.decRf()
		if r.txState == TxListenForAck {
			r.ackNotReceivedLocked()
		} else {
			r.txDoneLocked(types.StatusTxAborted, e.Has(radio.EventCmdPreempted))
		}
		r.rxOnRequestLocked()
	case e.Has(radio.EventLastCmdDone):
		r.txHandle = radio.HandleNone
		r.decRf()
		r.txCompleteLocked(h)
		r.rxOnRequestLocked()
	}
}

// txCompleteLocked maps the command statuses of a finished transmit chain to
// its outcome.
func (r *Radio) txCompleteLocked(h radio.CmdHandle) {
	a := r.arena
	if r.txCca.Valid() && a.Get(r.txCca).Status() == radiocmd.StatusDoneBusy {
		r.diag.TxChannelBusy++
		r.txDoneLocked(types.StatusChannelAccessFailure, false)
		return
	}
	for _, ref := range []radiocmd.Ref{radiocmd.FsTx, r.txCca, radiocmd.Transmit} {
		if ref.Valid() && a.Get(ref).Status() == radiocmd.StatusErrorSynth {
			logger.Warnf("tx frequency synthesizer failed on channel %d", r.channel)
			r.txDoneLocked(types.StatusChannelAccessFailure, false)
			return
		}
	}
	if a.Get(radiocmd.Transmit).Status() != radiocmd.StatusDoneOk {
		r.txDoneLocked(types.StatusTxAborted, false)
		return
	}
	if r.tx.Beacon {
		r.duty.RecordBeacon(r.txDuration)
	} else {
		r.duty.RecordTransmission(r.txDuration)
	}
	if r.txState == TxListenForAck {
		r.handleAckLocked(h)
		return
	}
	r.txDoneLocked(types.StatusSuccess, false)
}

// handleAckLocked runs the receive state machine on the ACK window of a
// transmit chain.
func (r *Radio) handleAckLocked(h radio.CmdHandle) {
	if st := r.arena.Get(radiocmd.Receive).Status(); st == radiocmd.StatusDoneTimeout || h != r.savedHandle {
		r.savedHandle = radio.HandleNone
		r.ackNotReceivedLocked()
		return
	}
	// the receive state machine expects an outstanding command of its own
	r.numRf++
	r.numRx++
	r.rxEventLocked(h, radio.EventLastCmdDone)
	if r.txState == TxListenForAck {
		r.ackNotReceivedLocked()
	}
}

// ackMatchesLocked reports whether ack acknowledges the frame in flight.
func (r *Radio) ackMatchesLocked(ack *wpan.RxFrame) bool {
	if len(r.tx.Psdu) <= types.FcfFieldLen {
		return false
	}
	fc := wpan.FrameControl(uint16(r.tx.Psdu[0]) | uint16(r.tx.Psdu[1])<<8)
	if fc.SequenceNumberSuppression() || ack.FrameControl.SequenceNumberSuppression() {
		return true
	}
	return ack.Seq == r.tx.Psdu[types.FcfFieldLen]
}

func (r *Radio) ackReceivedLocked(seq uint8, pending bool) {
	r.diag.AcksReceived++
	r.txState = TxIdle
	r.post(&event.Event{Type: event.TypeAckReceived, Seq: seq, FramePending: pending})
	r.hooks.TxFinished(types.StatusSuccess, false)
}

func (r *Radio) ackNotReceivedLocked() {
	r.diag.AcksMissed++
	r.txState = TxIdle
	r.post(&event.Event{Type: event.TypeAckNotReceived})
	r.hooks.TxFinished(types.StatusNoAck, false)
	r.updateTxPowerLocked()
}

func (r *Radio) txDoneLocked(status types.MacStatus, preempted bool) {
	switch status {
	case types.StatusSuccess:
		r.diag.TxSuccess++
	case types.StatusTxAborted:
		r.diag.TxAborted++
	}
	r.txState = TxIdle
	r.post(txDoneEvent(status))
	r.hooks.TxFinished(status, preempted)
	r.updateTxPowerLocked()
}

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
	"encoding/binary"

	"github.com/openthread/ot-rfmac/event"
	"github.com/openthread/ot-rfmac/logger"
	"github.com/openthread/ot-rfmac/phy"
	"github.com/openthread/ot-rfmac/radio"
	"github.com/openthread/ot-rfmac/radiocmd"
	"github.com/openthread/ot-rfmac/types"
	"github.com/openthread/ot-rfmac/wpan"
)

const rxHeaderPrefixLen = types.PhyPhrLen + types.FcfFieldLen + types.SeqNumFieldLen

func (r *Radio) rxCallback(h radio.CmdHandle, e radio.EventMask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rxEventLocked(h, e)
	r.powerVoteLocked()
}

// rxEventLocked handles receive events of a receive chain or of the ACK
// receive at the end of a transmit chain. Frame and CRC events are saved and
// acted upon when the command completes.
func (r *Radio) rxEventLocked(h radio.CmdHandle, e radio.EventMask) {
	switch {
	case e.Has(radio.EventMdmSoft):
		r.savedHandle = radio.HandleNone
		if r.cfg.FrequencyHopping && r.sfdHook != nil {
			r.sfdHook()
			r.savedHandle = h
		}
	case e.Has(radio.EventCmdCancelled | radio.EventCmdStopped | radio.EventCmdAborted):
		r.decRx()
		preempted := e.Has(radio.EventCmdPreempted)
		if preempted {
			r.hooks.RxFinished(true)
		}
		if h == r.savedHandle {
			if r.savedEvent.Has(radio.EventRxOk | radio.EventRxAborted) {
				// a frame had been received before the stop
				r.rxNokLocked()
			} else {
				r.haltCleanupLocked()
			}
		}
		r.savedHandle = radio.HandleNone
		if h == r.rxHandle {
			r.rxHandle = radio.HandleNone
		}
		restart := r.rxRestart
		r.rxRestart = false
		r.decRf()
		if preempted || restart {
			r.rxOnRequestLocked()
		}
		return
	case e.Has(radio.EventRxOk | radio.EventRxBufFull | radio.EventRxNOk):
		r.savedHandle = h
		r.savedEvent = e & (radio.EventRxOk | radio.EventRxBufFull | radio.EventRxNOk)
	case e.Has(radio.EventRxIgnored | radio.EventRxAborted):
		r.savedHandle = h
		r.savedEvent = e & (radio.EventRxIgnored | radio.EventRxAborted)
	}

	if !e.Has(radio.EventLastCmdDone) {
		return
	}
	r.decRx()
	switch {
	case r.arena.Get(radiocmd.FsRx).Status() == radiocmd.StatusErrorSynth && h == r.rxHandle:
		logger.Warnf("rx frequency synthesizer failed on channel %d", r.channel)
		r.haltCleanupLocked()
	case h == r.savedHandle:
		switch {
		case r.savedEvent.Has(radio.EventRxOk | radio.EventRxBufFull):
			r.rxFrameLocked()
		case r.savedEvent.Has(radio.EventRxNOk):
			r.rxNokLocked()
		default:
			r.haltCleanupLocked()
		}
	default:
		r.diag.UnexpectedOrder++
		logger.Warnf("rx command %d done (%s) without a matching frame event", h, e)
		r.haltCleanupLocked()
	}
	r.savedHandle = radio.HandleNone
	if h == r.rxHandle {
		r.rxHandle = radio.HandleNone
	}
	r.decRf()
	if !r.outgoingAck {
		r.rxOnRequestLocked()
	}
}

// rxFrameLocked decodes the frame in the current ring entry and releases it.
func (r *Radio) rxFrameLocked() {
	r.ringHeld = true
	r.rxStartLocked()
	r.releaseEntryLocked()
}

func (r *Radio) releaseEntryLocked() {
	if r.ringHeld {
		r.ringHeld = false
		r.ring.Flush()
	}
}

func (r *Radio) discardLocked(counter *uint64, format string, args ...interface{}) {
	*counter++
	logger.Debugf("rx discard: "+format, args...)
	r.haltCleanupLocked()
}

func (r *Radio) rxStartLocked() {
	r.rxState = RxStarted
	r.rx = partialFrame{}
	r.outgoingAck = false
	r.ackHandle = radio.HandleNone
	filter := r.rxFilter
	ring := r.ring

	if ring.Current() != radio.EntryFinished {
		r.discardLocked(&r.diag.DiscardRing, "current entry is %s", ring.Current())
		return
	}
	ring.Rewind()
	b, err := ring.Peek(types.PhyPhrLen)
	if err != nil {
		r.discardLocked(&r.diag.DiscardLength, "%v", err)
		return
	}
	phr := wpan.DecodePhr(b)
	unread := phr.PsduLen()
	if phr.ModeSwitch {
		r.discardLocked(&r.diag.DiscardModeSwitch, "mode switch PHR")
		return
	}
	if unread > r.cfg.MaxFrameSize || unread < types.FcfFieldLen+types.SeqNumFieldLen {
		r.discardLocked(&r.diag.DiscardLength, "psdu length %d", unread)
		return
	}

	hdr := make([]byte, rxHeaderPrefixLen)
	if err := ring.Read(hdr); err != nil {
		r.discardLocked(&r.diag.DiscardLength, "%v", err)
		return
	}
	unread -= types.FcfFieldLen + types.SeqNumFieldLen
	fc := wpan.FrameControl(binary.LittleEndian.Uint16(hdr[types.PhyPhrLen:]))
	seq := hdr[types.PhyPhrLen+types.FcfFieldLen]

	ft := fc.FrameType()
	if fc.FrameVersion() != types.SupportedFrameVersion {
		r.discardLocked(&r.diag.DiscardVersion, "frame version %d", fc.FrameVersion())
		return
	}
	if r.cfg.FrequencyHopping {
		if ft == wpan.FrameTypeBeacon {
			r.discardLocked(&r.diag.DiscardFrameType, "beacon while hopping")
			return
		}
		if r.txState == TxListenForAck && ft != wpan.FrameTypeAck {
			r.discardLocked(&r.diag.DiscardFrameType, "frame type %d while waiting for an ACK", ft)
			return
		}
	}
	if filter != RxFilterNone && !r.promiscuous {
		if filter == RxFilterAll ||
			(filter == RxFilterNonBeacon && ft != wpan.FrameTypeBeacon) ||
			(filter == RxFilterNonCommand && ft != wpan.FrameTypeCommand) {
			r.discardLocked(&r.diag.DiscardFrameType, "frame type %d filtered (%s)", ft, filter)
			return
		}
	}
	if fc.SecurityEnabled() && !r.cfg.SecurityEnabled {
		r.discardLocked(&r.diag.DiscardSecurity, "secured frame with security disabled")
		return
	}

	addrLen, ok := wpan.AddrFieldsLen(fc)
	if !ok {
		r.discardLocked(&r.diag.DiscardAddrMode, "reserved address mode in %s", fc)
		return
	}
	seqSup := 0
	if fc.SequenceNumberSuppression() {
		seqSup = types.SeqNumFieldLen
	}
	if addrLen-seqSup > unread {
		r.discardLocked(&r.diag.DiscardLength, "address fields %d exceed %d unread bytes", addrLen, unread)
		return
	}
	payloadLen := unread - addrLen + seqSup

	buf, ok := r.alloc.Alloc(payloadLen)
	if !ok {
		r.discardLocked(&r.diag.AllocFailed, "no buffer for %d bytes", payloadLen)
		return
	}
	r.rx = partialFrame{
		fc:            fc,
		seq:           seq,
		seqSuppressed: seqSup != 0,
		payloadLen:    payloadLen,
		buf:           buf,
	}
	if r.rx.seqSuppressed {
		r.rx.seq = 0
	}
	// ACKs are never acknowledged, whatever their AR bit says
	r.outgoingAck = !r.promiscuous && fc.AckRequest() && ft != wpan.FrameTypeAck
	ring.Skip(-seqSup)
	r.rxAddrLocked(addrLen)
}

func (r *Radio) rxAddrLocked(addrLen int) {
	fc := r.rx.fc
	b := make([]byte, addrLen)
	if err := r.ring.Read(b); err != nil {
		r.cancelAckLocked()
		r.discardLocked(&r.diag.DiscardLength, "%v", err)
		return
	}
	a, err := wpan.DecodeAddrFields(fc, b)
	if err != nil {
		r.cancelAckLocked()
		r.discardLocked(&r.diag.DiscardAddrMode, "%v", err)
		return
	}
	if fc.PanidCompression() && !a.DstPanPresent {
		if fc.DestAddrMode() != wpan.AddrModeNone {
			a.DstPanId = r.filter.PanId
		} else {
			a.DstPanId = types.BroadcastPanId
		}
		a.SrcPanId = a.DstPanId
	}
	match := r.promiscuous || r.filter.matchDst(&a, fc)
	match = match && r.filter.matchEui(a.Src)
	if !match {
		r.cancelAckLocked()
		r.discardLocked(&r.diag.DiscardAddress, "address filter: dst %04x/%s src %s", a.DstPanId, a.Dst, a.Src)
		return
	}
	r.rx.hdr = wpan.Header{
		FrameControl: fc,
		Seq:          r.rx.seq,
		DstPanId:     a.DstPanId,
		Dst:          a.Dst,
		SrcPanId:     a.SrcPanId,
		Src:          a.Src,
	}
	r.rx.ackPending = r.filter.framePending(a.Src)

	if fc.SecurityEnabled() && !r.rxSecurityLocked() {
		return
	}

	if r.outgoingAck && (!r.cfg.FrequencyHopping || fc.FrameVersion() <= wpan.FrameVersion2006) {
		if r.rx.seqSuppressed {
			// an immediate ACK echoes the sequence number
			r.outgoingAck = false
		} else {
			r.sendImmAckLocked(r.rx.seq, r.rx.ackPending)
		}
	}
	r.rxPayloadLocked()
}

// rxSecurityLocked reads the auxiliary security header. It returns false when
// the frame was halted.
func (r *Radio) rxSecurityLocked() bool {
	r.rxState = RxSecurityHeader
	sec := &r.rx.hdr.Security
	if r.rx.payloadLen < types.SecControlFieldLen {
		r.cancelAckLocked()
		r.discardLocked(&r.diag.DiscardSecurity, "no room for security control")
		return false
	}
	sc := make([]byte, types.SecControlFieldLen)
	if err := r.ring.Read(sc); err != nil {
		r.cancelAckLocked()
		r.discardLocked(&r.diag.DiscardLength, "%v", err)
		return false
	}
	sec.Control = wpan.SecurityControl(sc[0])
	if sec.Control.Level() == wpan.SecLevelNone {
		r.cancelAckLocked()
		r.discardLocked(&r.diag.DiscardSecurity, "security enabled with level 0")
		return false
	}
	next := sec.Control.KeyIdLen() + types.FrameCounterLen
	if r.rx.payloadLen < next+types.SecControlFieldLen {
		r.cancelAckLocked()
		r.discardLocked(&r.diag.DiscardSecurity, "security header %d exceeds payload %d", next+types.SecControlFieldLen, r.rx.payloadLen)
		return false
	}
	body := make([]byte, next)
	if err := r.ring.Read(body); err != nil {
		r.cancelAckLocked()
		r.discardLocked(&r.diag.DiscardLength, "%v", err)
		return false
	}
	if err := sec.DecodeBody(body); err != nil {
		r.cancelAckLocked()
		r.discardLocked(&r.diag.DiscardSecurity, "%v", err)
		return false
	}
	r.rx.payloadLen -= next + types.SecControlFieldLen
	return true
}

func (r *Radio) rxPayloadLocked() {
	r.rxState = RxPayload
	if err := r.ring.Read(r.rx.buf[:r.rx.payloadLen]); err != nil {
		r.cancelAckLocked()
		r.discardLocked(&r.diag.DiscardLength, "%v", err)
		return
	}
	r.rxTrailerLocked()
}

func (r *Radio) rxTrailerLocked() {
	r.rxState = RxTrailer
	tr := make([]byte, types.RssiFieldLen+types.TimestampFieldLen)
	if err := r.ring.Read(tr); err != nil {
		r.cancelAckLocked()
		r.discardLocked(&r.diag.DiscardLength, "trailer: %v", err)
		return
	}
	r.diag.RxCrcPass++
	rssi := int8(tr[0])
	f := &wpan.RxFrame{
		Header:    r.rx.hdr,
		Payload:   r.rx.buf[:r.rx.payloadLen],
		Rssi:      rssi,
		Lqi:       phy.ComputeLqi(rssi, 0),
		Timestamp: binary.LittleEndian.Uint32(tr[types.RssiFieldLen:]),
		Channel:   r.channel,
	}
	fc := r.rx.fc

	if fc.IEPresent() {
		hl, err := wpan.ParseHeaderIEs(f.Payload)
		if err != nil || (hl.Len == 0 && !hl.PayloadIEsFollow) {
			r.discardLocked(&r.diag.DiscardIE, "empty or broken header IE list: %v", err)
			return
		}
		f.HeaderIEs = hl
		if !fc.SecurityEnabled() && hl.PayloadIEsFollow {
			pl, err := wpan.ParsePayloadIEs(f.Payload[hl.Consumed:])
			if err != nil || pl.Len == 0 {
				r.discardLocked(&r.diag.DiscardIE, "empty or broken payload IE list: %v", err)
				return
			}
			f.PayloadIEs = pl
		}
	}

	if fc.FrameType() == wpan.FrameTypeAck && !r.promiscuous {
		if r.txState == TxListenForAck && r.ackMatchesLocked(f) {
			r.ackReceivedLocked(f.Seq, fc.FramePending())
		}
		r.alloc.Free(r.rx.buf)
		r.rx.buf = nil
		r.rxDoneLocked()
		return
	}

	if r.cfg.FrequencyHopping && r.outgoingAck && fc.FrameVersion() == wpan.FrameVersion2015 {
		r.sendEnhAckLocked(&f.Header, r.rx.ackPending, f.Rssi)
	}

	ev := &event.Event{
		Type: event.TypeFrameReceived,
		Data: f.Psdu(),
		RxInfo: event.RxInfo{
			Channel:   f.Channel,
			Rssi:      f.Rssi,
			Lqi:       f.Lqi,
			Timestamp: f.Timestamp,
		},
		Frame: f,
	}
	r.rx.buf = nil
	r.post(ev)
	r.hooks.RxFinished(false)
	logger.Tracef("rx frame: %s", f)
	r.rxDoneLocked()
}

// rxNokLocked handles a frame completed with a bad CRC. The radio core has
// dropped the frame already; any entry it left is released.
func (r *Radio) rxNokLocked() {
	r.diag.RxCrcFail++
	r.cancelAckLocked()
	if r.txState == TxListenForAck {
		r.ackNotReceivedLocked()
	}
	if r.rx.buf != nil {
		r.alloc.Free(r.rx.buf)
		r.rx.buf = nil
	}
	if r.ring.Current() != radio.EntryPending {
		r.ring.Flush()
	}
	r.ringHeld = false
	r.rxDoneLocked()
}

func (r *Radio) rxDoneLocked() {
	r.rxState = RxIdle
	r.rx = partialFrame{}
	if !r.outgoingAck {
		r.postRxUpdatesLocked()
	}
}

// haltCleanupLocked abandons the frame in progress.
func (r *Radio) haltCleanupLocked() {
	r.diag.RxHalted++
	if r.rx.buf != nil {
		r.alloc.Free(r.rx.buf)
	}
	r.rx = partialFrame{}
	r.releaseEntryLocked()
	r.rxState = RxIdle
	// an ACK already on the air completes through ackCallback
	if !r.ackHandle.Valid() {
		r.outgoingAck = false
	}
	if !r.outgoingAck {
		r.postRxUpdatesLocked()
	}
}

func (r *Radio) postRxUpdatesLocked() {
	r.rxOffRequestLocked()
	r.updateTxPowerLocked()
	if r.txState == TxQueued {
		r.txState = TxIdle
		r.startOrAbortTxLocked(r.tx, "queued tx")
	}
}

// cancelAckLocked drops the ACK for the frame being received.
func (r *Radio) cancelAckLocked() {
	if r.ackHandle.Valid() {
		if err := r.core.Cancel(r.ackHandle, false); err != nil {
			logger.Debugf("cancel ack: %v", err)
		}
	}
	r.ackHandle = radio.HandleNone
	r.outgoingAck = false
}

func (r *Radio) submitAckLocked(psdu []byte) bool {
	a := r.arena
	if err := r.checkIdle(radiocmd.TransmitAck); err != nil {
		r.diag.AckSendFailed++
		r.outgoingAck = false
		logger.Warnf("ack: %v", err)
		return false
	}
	a.Unchain(radiocmd.TransmitAck)
	if err := a.Prepare(radiocmd.TransmitAck); err != nil {
		r.diag.AckSendFailed++
		r.outgoingAck = false
		return false
	}
	cmd := a.Get(radiocmd.TransmitAck)
	cmd.StartTrigger = radiocmd.TriggerNow
	cmd.Tx = radiocmd.TxParams{Packet: append(r.phrFor(len(psdu)), psdu...)}
	params := radio.ScheduleParams{
		Duration: r.phy.CommandDuration(len(psdu)+r.cfg.fcsLen(), false),
		Priority: r.hooks.TxPriority(),
	}
	h := r.core.Schedule(a, radiocmd.TransmitAck, params, r.ackCallback, radio.EventTxDone|radio.EventsTerminal)
	if !h.Valid() {
		r.diag.AckSendFailed++
		r.outgoingAck = false
		logger.Debugf("ack rejected: handle %d", h)
		return false
	}
	r.ackHandle = h
	r.incRf(types.RadioTx)
	return true
}

func (r *Radio) sendImmAckLocked(seq uint8, pending bool) {
	if r.submitAckLocked(wpan.BuildImmAck(seq, pending)) {
		r.diag.AcksSent++
	}
}

func (r *Radio) sendEnhAckLocked(rx *wpan.Header, pending bool, rssi int8) {
	ies := []wpan.HeaderIE{wpan.RslIE(rssi)}
	if r.submitAckLocked(wpan.BuildEnhAck(rx, pending, ies)) {
		r.diag.EnhAcksSent++
	}
}

// ackCallback completes an outgoing ACK.
func (r *Radio) ackCallback(h radio.CmdHandle, e radio.EventMask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !e.Has(radio.EventsTerminal) {
		return
	}
	r.decRf()
	if h == r.ackHandle {
		r.ackHandle = radio.HandleNone
		r.outgoingAck = false
		if r.rxState == RxIdle {
			r.postRxUpdatesLocked()
			r.rxOnRequestLocked()
		}
	}
	r.powerVoteLocked()
}

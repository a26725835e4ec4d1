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

// Package radiocmd defines the radio command descriptors programmed into the
// radio core. Descriptors live in a fixed Arena built once at start-up; a
// command chain is a sequence of non-owning Refs into that arena.
package radiocmd

import (
	"fmt"
	"sync/atomic"

	"github.com/openthread/ot-rfmac/types"
)

type Kind uint8

const (
	KindSetup Kind = iota
	KindTransmit
	KindReceive
	KindFrequencySet
	KindClearChannelAssess
	KindNoOp
	KindFlushQueue
)

func (k Kind) String() string {
	switch k {
	case KindSetup:
		return "setup"
	case KindTransmit:
		return "tx"
	case KindReceive:
		return "rx"
	case KindFrequencySet:
		return "fs"
	case KindClearChannelAssess:
		return "cca"
	case KindNoOp:
		return "nop"
	case KindFlushQueue:
		return "flush-queue"
	default:
		return "INVALID"
	}
}

// Status is written by the radio core while a command is submitted; software
// only resets it to Idle before the next submission.
type Status uint16

const (
	StatusIdle        Status = 0x0000
	StatusPending     Status = 0x0001
	StatusActive      Status = 0x0002
	StatusSkipped     Status = 0x0003
	StatusDoneOk      Status = 0x3400
	StatusDoneRxErr   Status = 0x3401
	StatusDoneTimeout Status = 0x3402
	StatusDoneBusy    Status = 0x3403
	StatusDoneIdle    Status = 0x3404
	StatusDoneStopped Status = 0x3405
	StatusDoneAbort   Status = 0x3406
	StatusErrorSynth  Status = 0x0801
	StatusErrorPar    Status = 0x0802
)

// InFlight reports whether the radio core currently owns the command.
func (s Status) InFlight() bool {
	return s == StatusPending || s == StatusActive
}

// IsError reports the error class (bit 11) of a final status.
func (s Status) IsError() bool {
	return s&0x0800 != 0
}

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusSkipped:
		return "skipped"
	case StatusDoneOk:
		return "done-ok"
	case StatusDoneRxErr:
		return "done-rx-err"
	case StatusDoneTimeout:
		return "done-timeout"
	case StatusDoneBusy:
		return "done-busy"
	case StatusDoneIdle:
		return "done-idle"
	case StatusDoneStopped:
		return "done-stopped"
	case StatusDoneAbort:
		return "done-abort"
	case StatusErrorSynth:
		return "error-synth"
	case StatusErrorPar:
		return "error-par"
	default:
		return fmt.Sprintf("0x%04x", uint16(s))
	}
}

type TriggerType uint8

const (
	TriggerNow TriggerType = iota
	TriggerRelPrevEnd
	TriggerAbsTime
	TriggerRelSubmit
)

// Condition decides whether the chain continues after a command.
type Condition uint8

const (
	CondAlways Condition = iota
	CondNever
	CondStopOnTrue
	CondStopOnFalse
)

func (c Condition) String() string {
	switch c {
	case CondAlways:
		return "always"
	case CondNever:
		return "never"
	case CondStopOnTrue:
		return "stop-on-true"
	case CondStopOnFalse:
		return "stop-on-false"
	default:
		return "INVALID"
	}
}

// Continues reports whether a chain proceeds past a command that finished
// with the given result.
func (c Condition) Continues(result bool) bool {
	switch c {
	case CondAlways:
		return true
	case CondStopOnTrue:
		return !result
	case CondStopOnFalse:
		return result
	default:
		return false
	}
}

// SetupParams configure the radio core for the PHY before any other command.
type SetupParams struct {
	PhyId      uint8
	Fcs2       bool
	Whitening  bool
	TxPowerDbm int8
}

type FsParams struct {
	Channel   types.ChannelId
	FreqKHz   uint32
	TxMode    bool
	Synthesis uint16
}

type TxParams struct {
	// Packet is PHR + PSDU without FCS; the radio core appends the FCS.
	Packet   []byte
	SyncWord uint32
}

type RxParams struct {
	PanId     types.PanId
	ShortAddr types.ShortAddr
	ExtAddr   types.ExtAddr
	SyncWord  uint32
	// EndTime is a relative timeout in microseconds, 0 for no timeout.
	EndTime uint32
}

type CcaParams struct {
	RssiThresholdDbm int8
	// CorrThreshold and the busy/idle decision are left to the radio core.
	CorrThreshold uint8
}

// Command is one radio operation descriptor.
type Command struct {
	kind         Kind
	status       uint32
	StartTrigger TriggerType
	StartTime    uint32
	Next         Ref
	Condition    Condition

	Setup SetupParams
	Fs    FsParams
	Tx    TxParams
	Rx    RxParams
	Cca   CcaParams
}

func (c *Command) Kind() Kind {
	return c.kind
}

func (c *Command) Status() Status {
	return Status(atomic.LoadUint32(&c.status))
}

// SetStatus is called by the radio core as the command progresses, and by
// software to reset a completed command to Idle.
func (c *Command) SetStatus(s Status) {
	atomic.StoreUint32(&c.status, uint32(s))
}

func (c *Command) String() string {
	return fmt.Sprintf("%s(%s,next=%s,%s)", c.kind, c.Status(), c.Next, c.Condition)
}

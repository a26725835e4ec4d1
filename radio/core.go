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

// Package radio describes the boundary between the MAC and the radio core:
// the commands it accepts, the events it raises and the receive ring it fills.
package radio

import (
	"strings"

	"github.com/openthread/ot-rfmac/radiocmd"
	"github.com/openthread/ot-rfmac/types"
)

// EventMask is the set of events delivered with a command callback.
type EventMask uint64

const (
	EventCmdDone EventMask = 1 << iota
	EventLastCmdDone
	EventTxDone
	EventRxOk
	EventRxNOk
	EventRxBufFull
	EventRxAborted
	EventRxIgnored
	EventMdmSoft
	EventCmdCancelled
	EventCmdStopped
	EventCmdAborted
	EventCmdPreempted
	EventRatCh
)

// EventsTerminal are the events ending a submitted command.
const EventsTerminal = EventCmdCancelled | EventCmdStopped | EventCmdAborted | EventLastCmdDone

var eventNames = []string{"CmdDone", "LastCmdDone", "TxDone", "RxOk", "RxNOk", "RxBufFull", "RxAborted",
	"RxIgnored", "MdmSoft", "CmdCancelled", "CmdStopped", "CmdAborted", "CmdPreempted", "RatCh"}

func (e EventMask) Has(m EventMask) bool {
	return e&m != 0
}

func (e EventMask) String() string {
	var names []string
	for i, n := range eventNames {
		if e&(1<<uint(i)) != 0 {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// CmdHandle identifies a scheduled command chain. Negative values are errors.
type CmdHandle int32

const (
	HandleNone          CmdHandle = -1
	HandleAllocError    CmdHandle = -2
	HandleScheduleError CmdHandle = -3
)

func (h CmdHandle) Valid() bool {
	return h >= 0
}

// Callback receives command events. It runs in the radio core's interrupt
// context and must not block.
type Callback func(h CmdHandle, e EventMask)

type StartType uint8

const (
	StartNotSpecified StartType = iota
	StartAbs
)

// ScheduleParams carry scheduling hints for a submitted chain.
type ScheduleParams struct {
	StartTime uint32
	StartType StartType
	Duration  types.Usec
	Priority  uint32
}

// RatChannel is one of the two timer-compare channels reserved for the MAC.
type RatChannel uint8

const (
	RatChannelA RatChannel = iota
	RatChannelB
	NumRatChannels
)

func (c RatChannel) String() string {
	switch c {
	case RatChannelA:
		return "A"
	case RatChannelB:
		return "B"
	default:
		return "INVALID"
	}
}

// RatHandle identifies an armed hardware compare channel.
type RatHandle int8

const RatHandleNone RatHandle = -1

// CompareCallback runs when an armed compare channel fires.
type CompareCallback func(h RatHandle, compareTime uint32)

// Core is the radio core as seen by the MAC. Implementations never invoke a
// Callback or CompareCallback from within one of these methods; events are
// delivered from the core's own context, like an interrupt that stays masked
// while the caller runs.
type Core interface {
	// Schedule submits the chain starting at head. A negative handle means
	// the submission was refused and nothing is pending.
	Schedule(arena *radiocmd.Arena, head radiocmd.Ref, params ScheduleParams, cb Callback, mask EventMask) CmdHandle
	// Cancel stops one scheduled chain.
	Cancel(h CmdHandle, graceful bool) error
	// Flush stops every scheduled chain.
	Flush(graceful bool) error
	// RunImmediate executes a non-chained control command: the radio setup or
	// a queue flush.
	RunImmediate(arena *radiocmd.Arena, ref radiocmd.Ref) error
	SetTxPower(dbm int8) error
	// SetRxQueue hands the receive ring to the core.
	SetRxQueue(ring *RxRing)
	// ProgrammedFs returns the frequency synthesizer setting in use, if any.
	ProgrammedFs() (radiocmd.FsParams, bool)
	ArmCompare(compareTime uint32, cb CompareCallback) (RatHandle, error)
	DisableCompare(h RatHandle) error
	// CurrentTime returns the radio timer in microseconds.
	CurrentTime() uint32
}

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

// Package activity carries the optional hooks the MAC calls around radio
// activity, and a tracker accounting time spent per radio state.
package activity

import (
	"github.com/openthread/ot-rfmac/types"
)

// TxPrioritizer supplies the scheduling priority of the next transmission.
type TxPrioritizer interface {
	TxPriority() uint32
}

// RxPrioritizer supplies the scheduling priority of the next receive.
type RxPrioritizer interface {
	RxPriority() uint32
}

// TxObserver is told when a transmission is submitted and when it ends.
type TxObserver interface {
	TxSubmitted(psduLen int, ackRequested bool)
	TxFinished(status types.MacStatus, preempted bool)
}

// RxObserver is told when receive is enabled and when a receive ends.
type RxObserver interface {
	RxSubmitted()
	RxFinished(preempted bool)
}

// StateObserver follows the radio state as seen by the MAC.
type StateObserver interface {
	RadioState(state types.RadioStates, now types.Usec)
}

// Hooks resolves the optional interfaces of one value at configuration time.
// Every method is a no-op for a capability the value does not have.
type Hooks struct {
	txPrio TxPrioritizer
	rxPrio RxPrioritizer
	tx     TxObserver
	rx     RxObserver
	state  StateObserver
}

// Resolve builds Hooks from any number of values, later values taking
// precedence. nil values are skipped.
func Resolve(vals ...interface{}) Hooks {
	var h Hooks
	for _, v := range vals {
		if v == nil {
			continue
		}
		if x, ok := v.(TxPrioritizer); ok {
			h.txPrio = x
		}
		if x, ok := v.(RxPrioritizer); ok {
			h.rxPrio = x
		}
		if x, ok := v.(TxObserver); ok {
			h.tx = x
		}
		if x, ok := v.(RxObserver); ok {
			h.rx = x
		}
		if x, ok := v.(StateObserver); ok {
			h.state = x
		}
	}
	return h
}

func (h Hooks) TxPriority() uint32 {
	if h.txPrio == nil {
		return 0
	}
	return h.txPrio.TxPriority()
}

func (h Hooks) RxPriority() uint32 {
	if h.rxPrio == nil {
		return 0
	}
	return h.rxPrio.RxPriority()
}

func (h Hooks) TxSubmitted(psduLen int, ackRequested bool) {
	if h.tx != nil {
		h.tx.TxSubmitted(psduLen, ackRequested)
	}
}

func (h Hooks) TxFinished(status types.MacStatus, preempted bool) {
	if h.tx != nil {
		h.tx.TxFinished(status, preempted)
	}
}

func (h Hooks) RxSubmitted() {
	if h.rx != nil {
		h.rx.RxSubmitted()
	}
}

func (h Hooks) RxFinished(preempted bool) {
	if h.rx != nil {
		h.rx.RxFinished(preempted)
	}
}

func (h Hooks) RadioState(state types.RadioStates, now types.Usec) {
	if h.state != nil {
		h.state.RadioState(state, now)
	}
}

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

package radiocmd

import (
	"fmt"

	"github.com/pkg/errors"
)

// Ref is a weak reference to an arena slot. The zero Ref refers to nothing.
type Ref struct {
	idx uint8
}

// None is the empty reference terminating a chain.
var None = Ref{}

func (r Ref) Valid() bool {
	return r.idx != 0 && int(r.idx) <= numSlots
}

func (r Ref) String() string {
	if !r.Valid() {
		return "none"
	}
	return slotNames[r.idx-1]
}

func slot(i int) Ref {
	return Ref{idx: uint8(i + 1)}
}

// Fixed descriptor slots.
var (
	Setup       = slot(0)
	FsRx        = slot(1)
	FsTx        = slot(2)
	Receive     = slot(3)
	Transmit    = slot(4)
	Cs          = slot(5)
	CsSlotted   = slot(6)
	TransmitAck = slot(7)
	NoOp        = slot(8)
	FlushQueue  = slot(9)
)

const numSlots = 10

var slotNames = [numSlots]string{"setup", "fs-rx", "fs-tx", "rx", "tx", "cs", "cs-slotted", "tx-ack", "nop", "flush-queue"}
var slotKinds = [numSlots]Kind{KindSetup, KindFrequencySet, KindFrequencySet, KindReceive, KindTransmit,
	KindClearChannelAssess, KindClearChannelAssess, KindTransmit, KindNoOp, KindFlushQueue}

var ErrActive = errors.New("radio command still in flight")

// Arena owns every radio command descriptor.
type Arena struct {
	cmds [numSlots]Command
}

func NewArena() *Arena {
	a := &Arena{}
	for i := range a.cmds {
		a.cmds[i].kind = slotKinds[i]
		a.cmds[i].Condition = CondNever
	}
	return a
}

// Get resolves a reference. It panics on None: dereferencing the end of a
// chain is a programming error.
func (a *Arena) Get(r Ref) *Command {
	if !r.Valid() {
		panic(fmt.Sprintf("invalid radio command ref %d", r.idx))
	}
	return &a.cmds[r.idx-1]
}

// Chain links from -> to with the given continuation condition.
func (a *Arena) Chain(from, to Ref, cond Condition) {
	c := a.Get(from)
	c.Next = to
	c.Condition = cond
}

// Unchain terminates the chain at r.
func (a *Arena) Unchain(r Ref) {
	c := a.Get(r)
	c.Next = None
	c.Condition = CondNever
}

// Walk visits the chain starting at head until fn returns false or the chain
// ends. A chain visits each slot at most once.
func (a *Arena) Walk(head Ref, fn func(Ref, *Command) bool) {
	var seen [numSlots]bool
	for r := head; r.Valid() && !seen[r.idx-1]; r = a.Get(r).Next {
		seen[r.idx-1] = true
		if !fn(r, a.Get(r)) {
			return
		}
	}
}

// Prepare readies the chain at head for submission: it fails with ErrActive
// if any command of the chain is still owned by the radio core, otherwise
// resets every status to Idle.
func (a *Arena) Prepare(head Ref) error {
	var err error
	a.Walk(head, func(r Ref, c *Command) bool {
		if c.Status().InFlight() {
			err = errors.Wrapf(ErrActive, "%s is %s", r, c.Status())
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	a.Walk(head, func(_ Ref, c *Command) bool {
		c.SetStatus(StatusIdle)
		return true
	})
	return nil
}

// Refs returns the chain at head as a slice.
func (a *Arena) Refs(head Ref) []Ref {
	var refs []Ref
	a.Walk(head, func(r Ref, _ *Command) bool {
		refs = append(refs, r)
		return true
	})
	return refs
}

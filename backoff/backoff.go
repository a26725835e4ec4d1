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

// Package backoff holds the per-class retry timers armed when the radio core
// refuses a command.
package backoff

import (
	"container/heap"
	"math"
	"sync"

	"github.com/openthread/ot-rfmac/logger"
	"github.com/openthread/ot-rfmac/types"
)

type Class uint8

const (
	ClassRx Class = iota
	ClassTx
	ClassNop
	NumClasses
)

func (c Class) String() string {
	switch c {
	case ClassRx:
		return "rx"
	case ClassTx:
		return "tx"
	case ClassNop:
		return "nop"
	default:
		return "INVALID"
	}
}

// Ever is the deadline of an idle timer.
const Ever types.Usec = math.MaxUint64

// DefaultTickPeriod is the resolution of the OS timer service.
const DefaultTickPeriod types.Usec = 10

type timer struct {
	class    Class
	deadline types.Usec

	index int
}

type timerQueue []*timer

func (tq timerQueue) Len() int {
	return len(tq)
}

func (tq timerQueue) Less(i, j int) bool {
	return tq[i].deadline < tq[j].deadline
}

func (tq timerQueue) Swap(i, j int) {
	a, b := tq[i], tq[j]
	if a.index != i && b.index != j {
		logger.Panicf("wrong index")
	}

	tq[i], tq[j] = b, a
	tq[i].index, tq[j].index = i, j
}

func (tq *timerQueue) Push(x interface{}) {
	t := x.(*timer)
	*tq = append(*tq, t)
	t.index = len(*tq) - 1
}

func (tq *timerQueue) Pop() (elem interface{}) {
	n := len(*tq)
	elem = (*tq)[n-1]
	*tq = (*tq)[:n-1]
	return
}

// Timers keeps one deadline per class. A new request for a class replaces
// the previous one; a request rounding to zero ticks cancels it.
type Timers struct {
	mu         sync.Mutex
	q          timerQueue
	timers     [NumClasses]*timer
	tickPeriod types.Usec
	expire     func(Class)
	requests   [NumClasses]uint64
}

// New creates idle timers. expire runs for every expired class from Advance,
// outside the internal lock.
func New(tickPeriod types.Usec, expire func(Class)) *Timers {
	if tickPeriod == 0 {
		tickPeriod = DefaultTickPeriod
	}
	t := &Timers{
		tickPeriod: tickPeriod,
		expire:     expire,
	}
	for c := range t.timers {
		t.timers[c] = &timer{class: Class(c), deadline: Ever}
		heap.Push(&t.q, t.timers[c])
	}
	return t
}

// Request arms the class to expire delay microseconds after now, truncated to
// whole ticks, or cancels it when that rounds to zero ticks.
func (t *Timers) Request(c Class, now types.Usec, delay types.Usec) {
	logger.AssertTrue(c < NumClasses)
	t.mu.Lock()
	defer t.mu.Unlock()

	periods := delay / t.tickPeriod
	deadline := Ever
	if periods > 0 {
		deadline = now + periods*t.tickPeriod
		t.requests[c]++
		logger.Tracef("backoff %s armed for %d ticks, deadline %d", c, periods, deadline)
	} else {
		logger.Tracef("backoff %s cancelled", c)
	}
	t.setDeadline(c, deadline)
}

// Cancel stops the class timer.
func (t *Timers) Cancel(c Class) {
	t.mu.Lock()
	t.setDeadline(c, Ever)
	t.mu.Unlock()
}

func (t *Timers) setDeadline(c Class, deadline types.Usec) {
	tm := t.timers[c]
	if tm.deadline != deadline {
		tm.deadline = deadline
		heap.Fix(&t.q, tm.index)
	}
}

// Armed reports whether the class timer is running.
func (t *Timers) Armed(c Class) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timers[c].deadline != Ever
}

// NumArmed counts running timers across all classes.
func (t *Timers) NumArmed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, tm := range t.timers {
		if tm.deadline != Ever {
			n++
		}
	}
	return n
}

// Deadline returns the expiry time of the class, or Ever.
func (t *Timers) Deadline(c Class) types.Usec {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timers[c].deadline
}

// NextDeadline returns the earliest deadline over all classes, or Ever.
func (t *Timers) NextDeadline() types.Usec {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.q[0].deadline
}

// Requests returns how many times the class was armed.
func (t *Timers) Requests(c Class) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.requests[c]
}

// Advance expires every timer whose deadline is at or before now, in
// deadline order, and returns the expired classes.
func (t *Timers) Advance(now types.Usec) []Class {
	var fired []Class
	t.mu.Lock()
	for t.q[0].deadline != Ever && t.q[0].deadline <= now {
		tm := t.q[0]
		fired = append(fired, tm.class)
		tm.deadline = Ever
		heap.Fix(&t.q, tm.index)
	}
	t.mu.Unlock()

	if t.expire != nil {
		for _, c := range fired {
			t.expire(c)
		}
	}
	return fired
}

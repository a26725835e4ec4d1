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

// Package stub implements a radio core for host-side testing. Nothing happens
// on its own: the owner decides when commands finish and which events they
// raise, then calls Step to deliver them.
package stub

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/openthread/ot-rfmac/radio"
	"github.com/openthread/ot-rfmac/radiocmd"
)

// NumCompareChannels matches the compare channels left to the MAC on the device.
const NumCompareChannels = 2

// Scheduled is one chain accepted by the core.
type Scheduled struct {
	Handle radio.CmdHandle
	Arena  *radiocmd.Arena
	Head   radiocmd.Ref
	Params radio.ScheduleParams
	Mask   radio.EventMask
	Kinds  []radiocmd.Kind
	Refs   []radiocmd.Ref

	cb radio.Callback
}

// Has reports whether the chain contains a command of kind k.
func (s *Scheduled) Has(k radiocmd.Kind) bool {
	for _, kk := range s.Kinds {
		if kk == k {
			return true
		}
	}
	return false
}

type delivery struct {
	cb radio.Callback
	h  radio.CmdHandle
	e  radio.EventMask

	ccb         radio.CompareCallback
	rh          radio.RatHandle
	compareTime uint32
}

type compare struct {
	armed bool
	time  uint32
	cb    radio.CompareCallback
}

// Core is a scripted radio.Core.
type Core struct {
	mu         sync.Mutex
	now        uint32
	nextHandle radio.CmdHandle
	scheduled  map[radio.CmdHandle]*Scheduled
	queue      []delivery
	rejectNext int
	ring       *radio.RxRing
	txPower    int8
	fs         radiocmd.FsParams
	fsValid    bool
	setup      radiocmd.SetupParams
	isSetup    bool
	compares   [NumCompareChannels]compare
	disables   int
	txLog      [][]byte
	flushes    int
}

var _ radio.Core = (*Core)(nil)

func New() *Core {
	return &Core{scheduled: map[radio.CmdHandle]*Scheduled{}}
}

func (c *Core) Schedule(arena *radiocmd.Arena, head radiocmd.Ref, params radio.ScheduleParams, cb radio.Callback, mask radio.EventMask) radio.CmdHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rejectNext > 0 {
		c.rejectNext--
		return radio.HandleScheduleError
	}
	s := &Scheduled{
		Handle: c.nextHandle,
		Arena:  arena,
		Head:   head,
		Params: params,
		Mask:   mask,
		cb:     cb,
	}
	c.nextHandle++
	arena.Walk(head, func(ref radiocmd.Ref, cmd *radiocmd.Command) bool {
		s.Kinds = append(s.Kinds, cmd.Kind())
		s.Refs = append(s.Refs, ref)
		cmd.SetStatus(radiocmd.StatusPending)
		switch cmd.Kind() {
		case radiocmd.KindTransmit:
			c.txLog = append(c.txLog, append([]byte(nil), cmd.Tx.Packet...))
		case radiocmd.KindFrequencySet:
			c.fs = cmd.Fs
			c.fsValid = true
		}
		return true
	})
	c.scheduled[s.Handle] = s
	return s.Handle
}

func (c *Core) endLocked(h radio.CmdHandle, graceful bool) {
	s, ok := c.scheduled[h]
	if !ok {
		return
	}
	ev := radio.EventCmdCancelled
	st := radiocmd.StatusDoneStopped
	for _, ref := range s.Refs {
		if s.Arena.Get(ref).Status() == radiocmd.StatusActive {
			if graceful {
				ev = radio.EventCmdStopped
			} else {
				ev = radio.EventCmdAborted
				st = radiocmd.StatusDoneAbort
			}
		}
	}
	for _, ref := range s.Refs {
		cmd := s.Arena.Get(ref)
		if cmd.Status().InFlight() {
			cmd.SetStatus(st)
		}
	}
	delete(c.scheduled, h)
	c.queue = append(c.queue, delivery{cb: s.cb, h: h, e: ev})
}

func (c *Core) Cancel(h radio.CmdHandle, graceful bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.scheduled[h]; !ok {
		return errors.Errorf("command handle %d not scheduled", h)
	}
	c.endLocked(h, graceful)
	return nil
}

func (c *Core) Flush(graceful bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, h := range c.handlesLocked() {
		c.endLocked(h, graceful)
	}
	return nil
}

func (c *Core) RunImmediate(arena *radiocmd.Arena, ref radiocmd.Ref) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cmd := arena.Get(ref)
	switch cmd.Kind() {
	case radiocmd.KindSetup:
		c.setup = cmd.Setup
		c.isSetup = true
		c.txPower = cmd.Setup.TxPowerDbm
	case radiocmd.KindFlushQueue:
		if c.ring != nil {
			c.ring.Reset()
		}
		c.flushes++
	default:
		return errors.Errorf("%s cannot run immediately", cmd.Kind())
	}
	cmd.SetStatus(radiocmd.StatusDoneOk)
	return nil
}

func (c *Core) SetTxPower(dbm int8) error {
	c.mu.Lock()
	c.txPower = dbm
	c.mu.Unlock()
	return nil
}

func (c *Core) SetRxQueue(ring *radio.RxRing) {
	c.mu.Lock()
	c.ring = ring
	c.mu.Unlock()
}

// SetupParams returns the parameters of the last setup command run.
func (c *Core) SetupParams() (radiocmd.SetupParams, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setup, c.isSetup
}

func (c *Core) ProgrammedFs() (radiocmd.FsParams, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fs, c.fsValid
}

func (c *Core) ArmCompare(compareTime uint32, cb radio.CompareCallback) (radio.RatHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.compares {
		if !c.compares[i].armed {
			c.compares[i] = compare{armed: true, time: compareTime, cb: cb}
			return radio.RatHandle(i), nil
		}
	}
	return radio.RatHandleNone, errors.New("no free compare channel")
}

func (c *Core) DisableCompare(h radio.RatHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h < 0 || int(h) >= len(c.compares) {
		return errors.Errorf("invalid compare handle %d", h)
	}
	c.compares[h] = compare{}
	c.disables++
	return nil
}

func (c *Core) CurrentTime() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// SetTime sets the radio timer.
func (c *Core) SetTime(now uint32) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// RejectNext makes the next n Schedule calls fail.
func (c *Core) RejectNext(n int) {
	c.mu.Lock()
	c.rejectNext = n
	c.mu.Unlock()
}

func (c *Core) handlesLocked() []radio.CmdHandle {
	hs := make([]radio.CmdHandle, 0, len(c.scheduled))
	for h := range c.scheduled {
		hs = append(hs, h)
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i] < hs[j] })
	return hs
}

// Scheduled returns the chains still owned by the core, oldest first.
func (c *Core) Scheduled() []*Scheduled {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ret []*Scheduled
	for _, h := range c.handlesLocked() {
		ret = append(ret, c.scheduled[h])
	}
	return ret
}

// Find returns the oldest scheduled chain containing a command of kind k.
func (c *Core) Find(k radiocmd.Kind) *Scheduled {
	for _, s := range c.Scheduled() {
		if s.Has(k) {
			return s
		}
	}
	return nil
}

// Start marks the head command of a chain as running.
func (c *Core) Start(h radio.CmdHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.scheduled[h]; ok {
		s.Arena.Get(s.Head).SetStatus(radiocmd.StatusActive)
	}
}

// Raise queues events for a chain. A terminal event retires the chain and
// settles the commands still in flight: done-ok after LastCmdDone, stopped
// otherwise.
func (c *Core) Raise(h radio.CmdHandle, e radio.EventMask) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.scheduled[h]
	if !ok {
		return
	}
	if e.Has(radio.EventsTerminal) {
		st := radiocmd.StatusDoneStopped
		if e.Has(radio.EventLastCmdDone) {
			st = radiocmd.StatusDoneOk
		}
		for _, ref := range s.Refs {
			if cmd := s.Arena.Get(ref); cmd.Status().InFlight() {
				cmd.SetStatus(st)
			}
		}
		delete(c.scheduled, h)
	}
	c.queue = append(c.queue, delivery{cb: s.cb, h: h, e: e})
}

// SetStatus sets the status of one command of a scheduled chain, as the core
// does when the command finishes.
func (c *Core) SetStatus(h radio.CmdHandle, ref radiocmd.Ref, st radiocmd.Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.scheduled[h]
	if !ok {
		return false
	}
	s.Arena.Get(ref).SetStatus(st)
	return true
}

// Complete finishes chain h with the given per-command statuses and raises
// LastCmdDone.
func (c *Core) Complete(h radio.CmdHandle, statuses map[radiocmd.Ref]radiocmd.Status) {
	for ref, st := range statuses {
		c.SetStatus(h, ref, st)
	}
	c.Raise(h, radio.EventLastCmdDone)
}

// ReceiveNOk marks a frame with a bad CRC on chain h. The core drops such
// frames without using a ring entry.
func (c *Core) ReceiveNOk(h radio.CmdHandle) {
	c.Raise(h, radio.EventRxNOk)
	c.Raise(h, radio.EventLastCmdDone)
}

// Receive writes a ring entry for the receive chain h and marks it done with
// RxOk followed by LastCmdDone.
func (c *Core) Receive(h radio.CmdHandle, entry []byte) error {
	c.mu.Lock()
	ring := c.ring
	c.mu.Unlock()
	if ring == nil {
		return errors.New("no rx queue")
	}
	if err := ring.Write(entry); err != nil {
		c.Raise(h, radio.EventRxBufFull)
		return err
	}
	c.Raise(h, radio.EventRxOk)
	c.Raise(h, radio.EventLastCmdDone)
	return nil
}

// FireCompare queues the callback of an armed compare channel and frees it.
func (c *Core) FireCompare(h radio.RatHandle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h < 0 || int(h) >= len(c.compares) || !c.compares[h].armed {
		return false
	}
	cmp := c.compares[h]
	c.compares[h] = compare{}
	c.queue = append(c.queue, delivery{ccb: cmp.cb, rh: h, compareTime: cmp.time})
	return true
}

// FireDueCompares fires every armed channel whose time has been reached.
func (c *Core) FireDueCompares() int {
	c.mu.Lock()
	now := c.now
	var due []radio.RatHandle
	for i, cmp := range c.compares {
		if cmp.armed && int32(now-cmp.time) >= 0 {
			due = append(due, radio.RatHandle(i))
		}
	}
	c.mu.Unlock()
	for _, h := range due {
		c.FireCompare(h)
	}
	return len(due)
}

// Armed returns the handles of armed compare channels.
func (c *Core) Armed() []radio.RatHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ret []radio.RatHandle
	for i, cmp := range c.compares {
		if cmp.armed {
			ret = append(ret, radio.RatHandle(i))
		}
	}
	return ret
}

// NextCompare returns the earliest armed compare time.
func (c *Core) NextCompare() (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var next uint32
	found := false
	for _, cmp := range c.compares {
		if cmp.armed && (!found || int32(cmp.time-next) < 0) {
			next = cmp.time
			found = true
		}
	}
	return next, found
}

// Disables counts DisableCompare calls.
func (c *Core) Disables() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disables
}

// Step delivers queued events in order, outside the core lock. Callbacks may
// queue further events, which are delivered in the same call.
func (c *Core) Step() int {
	n := 0
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.mu.Unlock()
			return n
		}
		d := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		if d.ccb != nil {
			d.ccb(d.rh, d.compareTime)
		} else if d.cb != nil {
			d.cb(d.h, d.e)
		}
		n++
	}
}

// TxLog returns copies of every transmitted packet.
func (c *Core) TxLog() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	ret := make([][]byte, len(c.txLog))
	for i, p := range c.txLog {
		ret[i] = append([]byte(nil), p...)
	}
	return ret
}

func (c *Core) TxPower() int8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txPower
}

// QueueFlushes counts FlushQueue commands run.
func (c *Core) QueueFlushes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushes
}

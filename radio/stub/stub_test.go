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

package stub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/ot-rfmac/radio"
	"github.com/openthread/ot-rfmac/radiocmd"
)

type recorder struct {
	events []radio.EventMask
}

func (r *recorder) cb(_ radio.CmdHandle, e radio.EventMask) {
	r.events = append(r.events, e)
}

func TestScheduleAndCancel(t *testing.T) {
	c := New()
	a := radiocmd.NewArena()
	a.Get(radiocmd.Transmit).Tx.Packet = []byte{0x05, 0x00, 1, 2, 3}
	a.Chain(radiocmd.Cs, radiocmd.Transmit, radiocmd.CondStopOnTrue)
	rec := &recorder{}

	h := c.Schedule(a, radiocmd.Cs, radio.ScheduleParams{}, rec.cb, radio.EventLastCmdDone)
	require.True(t, h.Valid())
	s := c.Find(radiocmd.KindTransmit)
	require.NotNil(t, s)
	assert.Equal(t, []radiocmd.Kind{radiocmd.KindClearChannelAssess, radiocmd.KindTransmit}, s.Kinds)
	assert.Len(t, c.TxLog(), 1)
	assert.Equal(t, radiocmd.StatusPending, a.Get(radiocmd.Transmit).Status())

	require.NoError(t, c.Cancel(h, true))
	assert.Empty(t, rec.events)
	assert.Equal(t, 1, c.Step())
	assert.Equal(t, []radio.EventMask{radio.EventCmdCancelled}, rec.events)
	assert.Error(t, c.Cancel(h, true))
}

func TestFlushActive(t *testing.T) {
	c := New()
	a := radiocmd.NewArena()
	rec := &recorder{}
	h := c.Schedule(a, radiocmd.Receive, radio.ScheduleParams{}, rec.cb, radio.EventLastCmdDone)
	c.Start(h)
	require.NoError(t, c.Flush(false))
	c.Step()
	assert.Equal(t, []radio.EventMask{radio.EventCmdAborted}, rec.events)
	assert.Equal(t, radiocmd.StatusDoneAbort, a.Get(radiocmd.Receive).Status())
	assert.Empty(t, c.Scheduled())
}

func TestRejectNext(t *testing.T) {
	c := New()
	a := radiocmd.NewArena()
	c.RejectNext(1)
	assert.Equal(t, radio.HandleScheduleError, c.Schedule(a, radiocmd.Receive, radio.ScheduleParams{}, nil, 0))
	assert.True(t, c.Schedule(a, radiocmd.Receive, radio.ScheduleParams{}, nil, 0).Valid())
}

func TestReceive(t *testing.T) {
	c := New()
	ring, err := radio.NewRxRing(1, 16)
	require.NoError(t, err)
	c.SetRxQueue(ring)
	a := radiocmd.NewArena()
	rec := &recorder{}
	h := c.Schedule(a, radiocmd.Receive, radio.ScheduleParams{}, rec.cb, radio.EventRxOk|radio.EventLastCmdDone)
	require.NoError(t, c.Receive(h, []byte{1, 2, 3}))
	c.Step()
	assert.Equal(t, []radio.EventMask{radio.EventRxOk, radio.EventLastCmdDone}, rec.events)
	assert.Empty(t, c.Scheduled())
	assert.Equal(t, 1, ring.Pending())
	assert.Equal(t, radiocmd.StatusDoneOk, a.Get(radiocmd.Receive).Status())

	require.NoError(t, c.RunImmediate(a, radiocmd.FlushQueue))
	assert.Equal(t, radiocmd.StatusDoneOk, a.Get(radiocmd.FlushQueue).Status())
	assert.Equal(t, 0, ring.Pending())
	assert.Equal(t, 1, c.QueueFlushes())
	assert.Error(t, c.RunImmediate(a, radiocmd.Receive))

	_, ok := c.SetupParams()
	assert.False(t, ok)
	a.Get(radiocmd.Setup).Setup = radiocmd.SetupParams{PhyId: 3, Fcs2: true, TxPowerDbm: -5}
	require.NoError(t, c.RunImmediate(a, radiocmd.Setup))
	sp, ok := c.SetupParams()
	assert.True(t, ok)
	assert.Equal(t, uint8(3), sp.PhyId)
	assert.True(t, sp.Fcs2)
	assert.Equal(t, int8(-5), c.TxPower())
}

func TestCompareChannels(t *testing.T) {
	c := New()
	var fired []uint32
	cb := func(_ radio.RatHandle, ct uint32) { fired = append(fired, ct) }
	h1, err := c.ArmCompare(100, cb)
	require.NoError(t, err)
	_, err = c.ArmCompare(200, cb)
	require.NoError(t, err)
	_, err = c.ArmCompare(300, cb)
	assert.Error(t, err)

	require.NoError(t, c.DisableCompare(h1))
	assert.Equal(t, 1, c.Disables())
	assert.Len(t, c.Armed(), 1)

	c.SetTime(250)
	assert.Equal(t, 1, c.FireDueCompares())
	c.Step()
	assert.Equal(t, []uint32{200}, fired)
	assert.Empty(t, c.Armed())
}

func TestCompleteWithStatuses(t *testing.T) {
	c := New()
	a := radiocmd.NewArena()
	a.Chain(radiocmd.Cs, radiocmd.Transmit, radiocmd.CondStopOnTrue)
	rec := &recorder{}
	h := c.Schedule(a, radiocmd.Cs, radio.ScheduleParams{}, rec.cb, radio.EventsTerminal)
	c.Complete(h, map[radiocmd.Ref]radiocmd.Status{
		radiocmd.Cs:       radiocmd.StatusDoneBusy,
		radiocmd.Transmit: radiocmd.StatusSkipped,
	})
	c.Step()
	assert.Equal(t, []radio.EventMask{radio.EventLastCmdDone}, rec.events)
	assert.Equal(t, radiocmd.StatusDoneBusy, a.Get(radiocmd.Cs).Status())
	assert.Equal(t, radiocmd.StatusSkipped, a.Get(radiocmd.Transmit).Status())
	assert.False(t, c.SetStatus(h, radiocmd.Cs, radiocmd.StatusDoneOk))
}

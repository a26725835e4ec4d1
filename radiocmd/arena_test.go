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
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestArenaSlots(t *testing.T) {
	a := NewArena()
	assert.Equal(t, KindReceive, a.Get(Receive).Kind())
	assert.Equal(t, KindFrequencySet, a.Get(FsRx).Kind())
	assert.Equal(t, KindClearChannelAssess, a.Get(Cs).Kind())
	assert.Equal(t, StatusIdle, a.Get(Transmit).Status())
	assert.False(t, None.Valid())
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "rx", Receive.String())
	assert.Panics(t, func() { a.Get(None) })
}

func TestArenaChain(t *testing.T) {
	a := NewArena()
	a.Chain(FsTx, Cs, CondStopOnFalse)
	a.Chain(Cs, Transmit, CondStopOnTrue)
	a.Chain(Transmit, Receive, CondStopOnFalse)
	assert.Equal(t, []Ref{FsTx, Cs, Transmit, Receive}, a.Refs(FsTx))

	a.Unchain(Transmit)
	assert.Equal(t, []Ref{FsTx, Cs, Transmit}, a.Refs(FsTx))
	assert.Equal(t, CondNever, a.Get(Transmit).Condition)

	// a cycle is walked once
	a.Chain(Transmit, FsTx, CondAlways)
	assert.Len(t, a.Refs(FsTx), 3)
}

func TestArenaPrepare(t *testing.T) {
	a := NewArena()
	a.Chain(FsRx, Receive, CondStopOnFalse)
	a.Get(FsRx).SetStatus(StatusDoneOk)
	assert.Nil(t, a.Prepare(FsRx))
	assert.Equal(t, StatusIdle, a.Get(FsRx).Status())

	a.Get(Receive).SetStatus(StatusActive)
	err := a.Prepare(FsRx)
	assert.True(t, errors.Is(err, ErrActive))
	assert.Equal(t, StatusActive, a.Get(Receive).Status())
	assert.Equal(t, StatusIdle, a.Get(FsRx).Status())
}

func TestConditionContinues(t *testing.T) {
	assert.True(t, CondAlways.Continues(false))
	assert.False(t, CondNever.Continues(true))
	assert.False(t, CondStopOnTrue.Continues(true))
	assert.True(t, CondStopOnTrue.Continues(false))
	assert.True(t, CondStopOnFalse.Continues(true))
	assert.False(t, CondStopOnFalse.Continues(false))
	assert.True(t, StatusErrorSynth.IsError())
	assert.False(t, StatusDoneOk.IsError())
}

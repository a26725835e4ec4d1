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

package activity

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/ot-rfmac/types"
)

type prio struct{}

func (prio) TxPriority() uint32 { return 7 }

func TestHooksOptional(t *testing.T) {
	var h Hooks
	assert.Equal(t, uint32(0), h.TxPriority())
	h.TxSubmitted(10, true)
	h.RadioState(types.RadioRx, 0)

	h = Resolve(nil, prio{})
	assert.Equal(t, uint32(7), h.TxPriority())
	assert.Equal(t, uint32(0), h.RxPriority())
}

func TestTrackerAccounting(t *testing.T) {
	tr := NewTracker(0)
	h := Resolve(tr)
	h.RadioState(types.RadioSleep, 1000)
	h.RadioState(types.RadioRx, 3000)
	h.RadioState(types.RadioTx, 10000)
	h.RadioState(types.RadioSleep, 10500)
	h.TxSubmitted(20, false)
	h.TxFinished(types.StatusNoAck, false)
	h.RxSubmitted()
	h.RxFinished(true)

	s := tr.Status(20000)
	assert.Equal(t, types.Usec(1000), s.SpentDisabled)
	assert.Equal(t, types.Usec(2000+9500), s.SpentSleep)
	assert.Equal(t, types.Usec(7000), s.SpentRx)
	assert.Equal(t, types.Usec(500), s.SpentTx)

	tx, failed, rx, pre := tr.Counts()
	assert.Equal(t, []uint64{1, 1, 1, 1}, []uint64{tx, failed, rx, pre})

	e := tr.Energy(20000)
	assert.InDelta(t, 500*RadioTxConsumption, e.Tx, 1e-12)
	assert.Greater(t, e.Total(), e.Tx)

	var buf bytes.Buffer
	require.NoError(t, tr.WriteReport(&buf, 20000))
	assert.Contains(t, buf.String(), "Duration (in milliseconds): 20")
	assert.Contains(t, buf.String(), "rx\t7\t")
}

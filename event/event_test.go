// Copyright (c) 2022-2026, The OTNS Authors.
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

package event

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openthread/ot-rfmac/backoff"
	"github.com/openthread/ot-rfmac/dutycycle"
	"github.com/openthread/ot-rfmac/types"
)

func TestDeserializeTxDoneEvent(t *testing.T) {
	data, _ := hex.DecodeString("d4d1000000000000020100e9")
	var ev Event
	n := ev.Deserialize(data)
	assert.Equal(t, uint64(53716), ev.Timestamp)
	assert.Equal(t, TypeTxDone, ev.Type)
	assert.Equal(t, types.StatusNoAck, ev.Status)
	assert.Nil(t, ev.Data)
	assert.Equal(t, len(data), n)
}

func TestSerializeTxDoneEvent(t *testing.T) {
	ev := &Event{Timestamp: 53716, Type: TypeTxDone, Status: types.StatusNoAck}
	data := ev.Serialize()
	assert.Equal(t, "d4d1000000000000020100e9", hex.EncodeToString(data))
}

func TestDeserializeFrameReceivedEvent(t *testing.T) {
	data, _ := hex.DecodeString("0403020100000000010a000cf6802a000000010203")
	var ev Event
	n := ev.Deserialize(data)
	assert.Equal(t, uint64(16909060), ev.Timestamp)
	assert.Equal(t, TypeFrameReceived, ev.Type)
	assert.Equal(t, types.ChannelId(12), ev.RxInfo.Channel)
	assert.Equal(t, int8(-10), ev.RxInfo.Rssi)
	assert.Equal(t, uint8(0x80), ev.RxInfo.Lqi)
	assert.Equal(t, uint32(42), ev.RxInfo.Timestamp)
	assert.Equal(t, []byte{1, 2, 3}, ev.Data)
	assert.Equal(t, len(data), n)

	assert.Equal(t, data, ev.Serialize())
}

func TestDeserializeShort(t *testing.T) {
	var ev Event
	assert.Equal(t, 0, ev.Deserialize([]byte{1, 2, 3}))
	// declared length exceeds the buffer
	data, _ := hex.DecodeString("0000000000000000020500e9")
	assert.Equal(t, 0, ev.Deserialize(data))
	// ack record without its fields
	data, _ = hex.DecodeString("000000000000000003010007")
	assert.Equal(t, 0, ev.Deserialize(data))
}

func TestSerializeRecords(t *testing.T) {
	evs := []*Event{
		{Type: TypeBackoffExpired, Class: backoff.ClassTx, Timestamp: 1},
		{Type: TypeAckReceived, Seq: 9, FramePending: true, Timestamp: 2},
		{Type: TypeAckNotReceived, Timestamp: 3},
		{Type: TypeDutyCycleMode, Mode: dutycycle.ModeCritical, Timestamp: 4},
		{Type: TypeWakeup, Timestamp: 5},
	}
	var stream []byte
	for _, ev := range evs {
		stream = append(stream, ev.Serialize()...)
	}
	for _, want := range evs {
		var ev Event
		n := ev.Deserialize(stream)
		assert.True(t, n > 0)
		assert.Equal(t, want.String(), ev.String())
		stream = stream[n:]
	}
	assert.Empty(t, stream)
}

func TestMailbox(t *testing.T) {
	m := NewMailbox(2)
	assert.Nil(t, m.Drain())
	assert.True(t, m.Post(&Event{Type: TypeWakeup}))
	assert.True(t, m.Post(&Event{Type: TypeAckNotReceived}))
	assert.False(t, m.Post(&Event{Type: TypeWakeup}))
	assert.Equal(t, uint64(1), m.Dropped())
	assert.Equal(t, 2, m.Len())

	select {
	case <-m.C():
	default:
		t.Fatal("mailbox not signalled")
	}

	evs := m.Drain()
	assert.Len(t, evs, 2)
	assert.Equal(t, TypeWakeup, evs[0].Type)
	assert.Equal(t, 0, m.Len())
}

func TestMailboxConcurrentPost(t *testing.T) {
	m := NewMailbox(1000)
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				m.Post(&Event{Type: TypeWakeup})
			}
			done <- struct{}{}
		}()
	}
	total := 0
	for finished := 0; finished < 4; {
		select {
		case <-done:
			finished++
		case <-m.C():
			total += len(m.Drain())
		}
	}
	total += len(m.Drain())
	assert.Equal(t, 400, total)
}

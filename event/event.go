// Copyright (c) 2020-2026, The OTNS Authors.
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

// Package event carries notifications raised in radio interrupt context to the
// task context that owns the upper MAC layer.
package event

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/openthread/ot-rfmac/backoff"
	"github.com/openthread/ot-rfmac/dutycycle"
	"github.com/openthread/ot-rfmac/logger"
	"github.com/openthread/ot-rfmac/types"
	"github.com/openthread/ot-rfmac/wpan"
)

type Type = uint8

const (
	TypeBackoffExpired Type = 0
	TypeFrameReceived  Type = 1
	TypeTxDone         Type = 2
	TypeAckReceived    Type = 3
	TypeAckNotReceived Type = 4
	TypeDutyCycleMode  Type = 5
	TypeWakeup         Type = 6
)

const (
	InvalidTimestamp uint64 = math.MaxUint64
)

const eventMsgHeaderLen = 11 // timestamp(8) type(1) datalen(2)
type Event struct {
	Timestamp uint64
	Type      Type
	// Data is the PSDU without FCS of a received frame.
	Data []byte

	// supplementary payload data, depends on the event type.
	Class        backoff.Class
	Status       types.MacStatus
	Seq          uint8
	FramePending bool
	Mode         dutycycle.Mode
	RxInfo       RxInfo

	// Frame is the decoded frame handed over with TypeFrameReceived. It is
	// not part of the serialized form.
	Frame *wpan.RxFrame
}

const rxInfoLen = 7 // channel(1) rssi(1) lqi(1) timestamp(4)
type RxInfo struct {
	Channel   types.ChannelId
	Rssi      int8
	Lqi       uint8
	Timestamp uint32
}

func (e *Event) String() string {
	switch e.Type {
	case TypeBackoffExpired:
		return fmt.Sprintf("backoff-expired(%s)", e.Class)
	case TypeFrameReceived:
		return fmt.Sprintf("frame-received(ch=%d,rssi=%d,lqi=%d,len=%d)", e.RxInfo.Channel, e.RxInfo.Rssi, e.RxInfo.Lqi, len(e.Data))
	case TypeTxDone:
		return fmt.Sprintf("tx-done(%s)", e.Status)
	case TypeAckReceived:
		return fmt.Sprintf("ack-received(seq=%d,pending=%t)", e.Seq, e.FramePending)
	case TypeAckNotReceived:
		return "ack-not-received"
	case TypeDutyCycleMode:
		return fmt.Sprintf("duty-cycle-mode(%s)", e.Mode)
	case TypeWakeup:
		return "wakeup"
	default:
		return fmt.Sprintf("event(%d)", e.Type)
	}
}

// Serialize encodes the event as a little-endian trace record.
func (e *Event) Serialize() []byte {
	var extraFields []byte
	switch e.Type {
	case TypeBackoffExpired:
		extraFields = []byte{byte(e.Class)}
	case TypeFrameReceived:
		extraFields = []byte{e.RxInfo.Channel, byte(e.RxInfo.Rssi), e.RxInfo.Lqi, 0, 0, 0, 0}
		binary.LittleEndian.PutUint32(extraFields[3:], e.RxInfo.Timestamp)
	case TypeTxDone:
		extraFields = []byte{byte(e.Status)}
	case TypeAckReceived:
		pending := byte(0)
		if e.FramePending {
			pending = 1
		}
		extraFields = []byte{e.Seq, pending}
	case TypeDutyCycleMode:
		extraFields = []byte{byte(e.Mode)}
	default:
		break
	}

	payload := append(extraFields, e.Data...)
	msg := make([]byte, eventMsgHeaderLen+len(payload))
	binary.LittleEndian.PutUint64(msg[:8], e.Timestamp)
	msg[8] = e.Type
	binary.LittleEndian.PutUint16(msg[9:11], uint16(len(payload)))
	n := copy(msg[eventMsgHeaderLen:], payload)
	logger.AssertTrue(n == len(payload))

	return msg
}

// Deserialize decodes one trace record and returns the bytes consumed, or 0
// if data does not hold a complete record.
func (e *Event) Deserialize(data []byte) int {
	n := len(data)
	if n < eventMsgHeaderLen {
		return 0
	}
	e.Timestamp = binary.LittleEndian.Uint64(data[:8])
	e.Type = data[8]
	datalen := int(binary.LittleEndian.Uint16(data[9:11]))
	if datalen > n-eventMsgHeaderLen {
		return 0
	}
	payload := data[eventMsgHeaderLen : eventMsgHeaderLen+datalen]
	payloadOffset := 0

	need := 0
	switch e.Type {
	case TypeBackoffExpired, TypeTxDone, TypeDutyCycleMode:
		need = 1
	case TypeAckReceived:
		need = 2
	case TypeFrameReceived:
		need = rxInfoLen
	}
	if datalen < need {
		return 0
	}

	switch e.Type {
	case TypeBackoffExpired:
		e.Class = backoff.Class(payload[0])
	case TypeTxDone:
		e.Status = types.MacStatus(payload[0])
	case TypeDutyCycleMode:
		e.Mode = dutycycle.Mode(payload[0])
	case TypeAckReceived:
		e.Seq = payload[0]
		e.FramePending = payload[1] != 0
	case TypeFrameReceived:
		e.RxInfo = RxInfo{
			Channel:   payload[0],
			Rssi:      int8(payload[1]),
			Lqi:       payload[2],
			Timestamp: binary.LittleEndian.Uint32(payload[3:7]),
		}
	default:
		break
	}
	payloadOffset += need

	e.Data = nil
	if datalen > payloadOffset {
		e.Data = make([]byte, datalen-payloadOffset)
		copy(e.Data, payload[payloadOffset:])
	}
	e.Frame = nil

	return eventMsgHeaderLen + datalen
}

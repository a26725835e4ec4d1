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

package types

import "math"

type PanId = uint16
type ShortAddr = uint16
type ExtAddr = uint64
type ChannelId = uint8

// Usec is a duration or timestamp in microseconds.
type Usec = uint64

const (
	BroadcastPanId     PanId     = 0xffff
	BroadcastShortAddr ShortAddr = 0xffff
	NoShortAddr        ShortAddr = 0xfffe

	// InvalidExtAddr defines the invalid extended address.
	InvalidExtAddr ExtAddr = math.MaxUint64
)

// IEEE 802.15.4-2015 (SUN PHY) MAC and PHY related constants.
const (
	PhyPhrLen             = 2
	FcfFieldLen           = 2
	SeqNumFieldLen        = 1
	PanIdFieldLen         = 2
	ShortAddrFieldLen     = 2
	ExtAddrFieldLen       = 8
	Fcs2FieldLen          = 2
	Fcs4FieldLen          = 4
	SecControlFieldLen    = 1
	FrameCounterLen       = 4
	RssiFieldLen          = 1
	TimestampFieldLen     = 4
	AckFrameLen           = FcfFieldLen + SeqNumFieldLen + Fcs4FieldLen
	MaxSifsFrameSize      = 18
	MinSifsPeriodSymbols  = 12
	MinLifsPeriodSymbols  = 40
	TurnaroundTimeUs      = 1000
	MaxPhyPacketSize      = 2047
	DefaultMaxFrameSize   = 2047
	SupportedFrameVersion = 2
)

type RadioStates byte

const (
	RadioDisabled RadioStates = 0
	RadioSleep    RadioStates = 1
	RadioRx       RadioStates = 2
	RadioTx       RadioStates = 3
	RadioInvalid  RadioStates = 255
)

func (s RadioStates) String() string {
	switch s {
	case RadioDisabled:
		return "Off"
	case RadioSleep:
		return "Slp"
	case RadioRx:
		return "Rx_"
	case RadioTx:
		return "Tx_"
	default:
		return "INVALID"
	}
}

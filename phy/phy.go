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

// Package phy holds the SUN FSK PHY descriptor table and the airtime and link
// quality arithmetic derived from it.
package phy

import (
	"github.com/pkg/errors"

	"github.com/openthread/ot-rfmac/types"
)

type Modulation uint8

const (
	Fsk    Modulation = iota // 2-FSK SUN PHY
	FskLrm                   // 2-FSK long range mode (FEC, spread)
)

type CcaType uint8

const (
	CcaCsma CcaType = iota
	CcaLbt
)

const (
	shrLenFsk           = 10 // preamble + SFD bytes
	symbolsPerOctetFsk  = 8
	shrSymbolsLrm       = 2*64 + 64
	termSymbolsLrm      = 6 * 2
	symbolsPerOctetLrm  = 32
	ackFrameSymbolBytes = types.PhyPhrLen + types.AckFrameLen
)

// Descriptor describes one PHY configuration.
type Descriptor struct {
	Id                uint8
	Modulation        Modulation
	SymbolRateKsps    uint32
	FirstChannelKHz   uint32
	ChannelSpacingKHz uint32
	NumChannels       uint16
	Cca               CcaType
}

var descriptors = map[uint8]Descriptor{
	1:   {Id: 1, Modulation: Fsk, SymbolRateKsps: 50, FirstChannelKHz: 902200, ChannelSpacingKHz: 200, NumChannels: 129, Cca: CcaCsma},
	2:   {Id: 2, Modulation: Fsk, SymbolRateKsps: 150, FirstChannelKHz: 902400, ChannelSpacingKHz: 400, NumChannels: 64, Cca: CcaCsma},
	3:   {Id: 3, Modulation: Fsk, SymbolRateKsps: 50, FirstChannelKHz: 863125, ChannelSpacingKHz: 200, NumChannels: 34, Cca: CcaLbt},
	4:   {Id: 4, Modulation: Fsk, SymbolRateKsps: 200, FirstChannelKHz: 902400, ChannelSpacingKHz: 400, NumChannels: 64, Cca: CcaCsma},
	5:   {Id: 5, Modulation: Fsk, SymbolRateKsps: 100, FirstChannelKHz: 863225, ChannelSpacingKHz: 200, NumChannels: 34, Cca: CcaLbt},
	129: {Id: 129, Modulation: FskLrm, SymbolRateKsps: 20, FirstChannelKHz: 902200, ChannelSpacingKHz: 200, NumChannels: 129, Cca: CcaCsma},
	131: {Id: 131, Modulation: FskLrm, SymbolRateKsps: 20, FirstChannelKHz: 863125, ChannelSpacingKHz: 200, NumChannels: 34, Cca: CcaLbt},
}

// DefaultPhyId is the 50 kbps 2-FSK PHY of the 915 MHz band.
const DefaultPhyId uint8 = 1

// Lookup returns the descriptor for a PHY id.
func Lookup(id uint8) (Descriptor, error) {
	d, ok := descriptors[id]
	if !ok {
		return Descriptor{}, errors.Errorf("unknown PHY id %d", id)
	}
	return d, nil
}

// UsecPerSymbol returns the symbol period in microseconds.
func (d Descriptor) UsecPerSymbol() uint32 {
	return 1000 / d.SymbolRateKsps
}

// ChannelKHz returns the center frequency of a logical channel.
func (d Descriptor) ChannelKHz(ch types.ChannelId) (uint32, error) {
	if uint16(ch) >= d.NumChannels {
		return 0, errors.Errorf("channel %d out of range for PHY %d", ch, d.Id)
	}
	return d.FirstChannelKHz + uint32(ch)*d.ChannelSpacingKHz, nil
}

// CommandDuration returns the airtime of a transmit command for a PSDU of
// psduLen bytes (FCS included): SHR, PHR and PSDU, the turnaround and ACK
// frame when an ACK is awaited, and the following interframe spacing.
func (d Descriptor) CommandDuration(psduLen int, ackRequest bool) types.Usec {
	usPerSym := d.UsecPerSymbol()
	turnaround := uint32(types.TurnaroundTimeUs) / usPerSym
	var symbols uint32

	if d.Modulation == FskLrm {
		symbols = uint32(types.PhyPhrLen+psduLen)*symbolsPerOctetLrm + shrSymbolsLrm + termSymbolsLrm
		if ackRequest {
			symbols += turnaround + shrSymbolsLrm + termSymbolsLrm
			symbols += ackFrameSymbolBytes * symbolsPerOctetLrm
		}
	} else {
		symbols = uint32(shrLenFsk+types.PhyPhrLen+psduLen) * symbolsPerOctetFsk
		if ackRequest {
			symbols += turnaround
			symbols += (shrLenFsk + ackFrameSymbolBytes) * symbolsPerOctetFsk
		}
	}

	if psduLen > types.MaxSifsFrameSize {
		symbols += types.MinLifsPeriodSymbols
	} else {
		symbols += types.MinSifsPeriodSymbols
	}
	return types.Usec(symbols * usPerSym)
}

const (
	// enhAckFrameLen covers FCF, sequence number, destination address,
	// header IEs and FCS of an enhanced ACK.
	enhAckFrameLen    = 40
	ackProcessDelayUs = 1000
)

// AckTimeout returns how long the receiver listens for an ACK after the end
// of a transmission requesting one.
func (d Descriptor) AckTimeout() types.Usec {
	usPerSym := d.UsecPerSymbol()
	symbols := uint32(types.TurnaroundTimeUs) / usPerSym
	if d.Modulation == FskLrm {
		symbols += shrSymbolsLrm + termSymbolsLrm
		symbols += (types.PhyPhrLen + enhAckFrameLen) * symbolsPerOctetLrm
	} else {
		symbols += (shrLenFsk + types.PhyPhrLen + enhAckFrameLen) * symbolsPerOctetFsk
	}
	return types.Usec(symbols*usPerSym + ackProcessDelayUs)
}

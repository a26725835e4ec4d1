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

package wpan

import "github.com/openthread/ot-rfmac/types"

// SUN PHY header bits as laid out in the second PHR byte.
const (
	PhrModeSwitch    = 0x80
	PhrFcsType2      = 0x10
	PhrDataWhitening = 0x08
	PhrLenMsbMask    = 0x07
)

// Phr is the 2-byte SUN FSK PHY header. Length counts the PSDU including the FCS.
type Phr struct {
	Length     uint16
	Fcs2       bool
	Whitening  bool
	ModeSwitch bool
}

func DecodePhr(b []byte) Phr {
	return Phr{
		Length:     uint16(b[0]) | uint16(b[1]&PhrLenMsbMask)<<8,
		Fcs2:       b[1]&PhrFcsType2 != 0,
		Whitening:  b[1]&PhrDataWhitening != 0,
		ModeSwitch: b[1]&PhrModeSwitch != 0,
	}
}

func (p Phr) Encode() []byte {
	hi := byte(p.Length>>8) & PhrLenMsbMask
	if p.Fcs2 {
		hi |= PhrFcsType2
	}
	if p.Whitening {
		hi |= PhrDataWhitening
	}
	if p.ModeSwitch {
		hi |= PhrModeSwitch
	}
	return []byte{byte(p.Length), hi}
}

// FcsLen returns the FCS length selected by the FCS type bit.
func (p Phr) FcsLen() int {
	if p.Fcs2 {
		return types.Fcs2FieldLen
	}
	return types.Fcs4FieldLen
}

// PsduLen returns the PSDU length without the FCS; it is negative for a
// corrupt header shorter than its own FCS.
func (p Phr) PsduLen() int {
	return int(p.Length) - p.FcsLen()
}

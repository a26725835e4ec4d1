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

import (
	"encoding/binary"
	"fmt"
)

type FrameType = uint16

const (
	FrameTypeBeacon  FrameType = 0
	FrameTypeData    FrameType = 1
	FrameTypeAck     FrameType = 2
	FrameTypeCommand FrameType = 3
)

// Values for both Src and Dst addressing modes, Table 7-3, 802.15.4-2015.
const (
	AddrModeNone     = 0
	AddrModeReserved = 1
	AddrModeShort    = 2
	AddrModeExtended = 3
)

// Frame control field bits.
const (
	FcfFrameTypeMask         FrameControl = 0x0007
	FcfSecurityEnabled       FrameControl = 0x0008
	FcfFramePending          FrameControl = 0x0010
	FcfAckRequest            FrameControl = 0x0020
	FcfPanIdCompression      FrameControl = 0x0040
	FcfSeqNumSuppression     FrameControl = 0x0100
	FcfIEPresent             FrameControl = 0x0200
	FcfDstAddrModeMask       FrameControl = 0x0c00
	FcfFrameVersionMask      FrameControl = 0x3000
	FcfSrcAddrModeMask       FrameControl = 0xc000
	fcfDstAddrModeShift                   = 10
	fcfFrameVersionShift                  = 12
	fcfSrcAddrModeShift                   = 14
	FrameVersion2015         uint16       = 2
	FrameVersion2006         uint16       = 1
	FrameVersion2003         uint16       = 0
)

type FrameControl uint16

// MakeFrameControl builds a frame control value from its fields; flags are
// the single-bit Fcf* constants or'ed together.
func MakeFrameControl(frameType FrameType, version uint16, dstMode, srcMode uint16, flags FrameControl) FrameControl {
	fc := FrameControl(frameType) & FcfFrameTypeMask
	fc |= FrameControl(dstMode<<fcfDstAddrModeShift) & FcfDstAddrModeMask
	fc |= FrameControl(version<<fcfFrameVersionShift) & FcfFrameVersionMask
	fc |= FrameControl(srcMode<<fcfSrcAddrModeShift) & FcfSrcAddrModeMask
	return fc | (flags &^ (FcfFrameTypeMask | FcfDstAddrModeMask | FcfFrameVersionMask | FcfSrcAddrModeMask))
}

func (fc FrameControl) String() string {
	return fmt.Sprintf("0x%04x", uint16(fc))
}

func (fc FrameControl) FrameType() FrameType {
	return FrameType(fc & FcfFrameTypeMask)
}

func (fc FrameControl) SecurityEnabled() bool {
	return (fc & FcfSecurityEnabled) != 0
}

func (fc FrameControl) FramePending() bool {
	return (fc & FcfFramePending) != 0
}

func (fc FrameControl) AckRequest() bool {
	return (fc & FcfAckRequest) != 0
}

func (fc FrameControl) PanidCompression() bool {
	return (fc & FcfPanIdCompression) != 0
}

func (fc FrameControl) SequenceNumberSuppression() bool {
	return (fc & FcfSeqNumSuppression) != 0
}

func (fc FrameControl) IEPresent() bool {
	return (fc & FcfIEPresent) != 0
}

func (fc FrameControl) DestAddrMode() uint16 {
	return uint16((fc & FcfDstAddrModeMask) >> fcfDstAddrModeShift)
}

func (fc FrameControl) SourceAddrMode() uint16 {
	return uint16((fc & FcfSrcAddrModeMask) >> fcfSrcAddrModeShift)
}

func (fc FrameControl) FrameVersion() uint16 {
	return uint16((fc & FcfFrameVersionMask) >> fcfFrameVersionShift)
}

func (fc *FrameControl) Dissect(bytes []byte) {
	*fc = FrameControl(binary.LittleEndian.Uint16(bytes))
}

// Bytes returns the little-endian wire encoding.
func (fc FrameControl) Bytes() []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(fc))
	return b[:]
}

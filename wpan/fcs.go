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
	"hash/crc32"

	"github.com/sigurn/crc16"
)

// 802.15.4 2-byte FCS is the ITU-T CRC-16 in reflected form (KERMIT).
var fcs16Table = crc16.MakeTable(crc16.CRC16_KERMIT)

func Fcs16(data []byte) uint16 {
	return crc16.Checksum(data, fcs16Table)
}

func Fcs32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// AppendFcs appends a little-endian FCS of the given length (2 or 4) over psdu.
func AppendFcs(psdu []byte, fcsLen int) []byte {
	out := make([]byte, len(psdu), len(psdu)+fcsLen)
	copy(out, psdu)
	if fcsLen == 2 {
		return binary.LittleEndian.AppendUint16(out, Fcs16(psdu))
	}
	return binary.LittleEndian.AppendUint32(out, Fcs32(psdu))
}

// CheckFcs verifies the trailing FCS of a PSDU of the given FCS length.
func CheckFcs(psduWithFcs []byte, fcsLen int) bool {
	n := len(psduWithFcs) - fcsLen
	if n < 0 {
		return false
	}
	if fcsLen == 2 {
		return binary.LittleEndian.Uint16(psduWithFcs[n:]) == Fcs16(psduWithFcs[:n])
	}
	return binary.LittleEndian.Uint32(psduWithFcs[n:]) == Fcs32(psduWithFcs[:n])
}

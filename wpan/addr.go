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

	"github.com/pkg/errors"

	"github.com/openthread/ot-rfmac/types"
)

// reservedAddrLen marks the reserved address mode in the length table; it is
// large enough to fail any length check that reaches it.
const reservedAddrLen = 0xbe

// addrModeLen is the address field length indexed by address mode.
var addrModeLen = [4]int{0, reservedAddrLen, types.ShortAddrFieldLen, types.ExtAddrFieldLen}

// AddrModeLen returns the length in bytes of an address in the given mode.
func AddrModeLen(mode uint16) int {
	return addrModeLen[mode&0x3]
}

// AddrFieldsLen returns the length of the addressing fields (PAN ids and
// addresses) of a 2015 frame. At most one PAN id is carried: with PAN id
// compression it is only present when both addresses are absent, without it
// only when at least one address is present. ok is false if either address
// mode is reserved.
func AddrFieldsLen(fc FrameControl) (n int, ok bool) {
	dst, src := fc.DestAddrMode(), fc.SourceAddrMode()
	if dst == AddrModeReserved || src == AddrModeReserved {
		return 0, false
	}
	n = addrModeLen[dst] + addrModeLen[src]
	bothAbsent := dst == AddrModeNone && src == AddrModeNone
	if fc.PanidCompression() {
		if bothAbsent {
			n = types.PanIdFieldLen
		}
	} else if !bothAbsent {
		n += types.PanIdFieldLen
	}
	return n, true
}

// Address is a MAC address in short or extended mode.
type Address struct {
	Mode  uint16
	Short types.ShortAddr
	Ext   types.ExtAddr
}

func ShortAddress(a types.ShortAddr) Address {
	return Address{Mode: AddrModeShort, Short: a}
}

func ExtAddress(a types.ExtAddr) Address {
	return Address{Mode: AddrModeExtended, Ext: a}
}

func (a Address) String() string {
	switch a.Mode {
	case AddrModeShort:
		return fmt.Sprintf("%04x", a.Short)
	case AddrModeExtended:
		return fmt.Sprintf("%016x", a.Ext)
	default:
		return "-"
	}
}

// AddrFields is the decoded addressing block of a frame.
type AddrFields struct {
	DstPanId types.PanId
	Dst      Address
	SrcPanId types.PanId
	Src      Address
	// DstPanPresent is false when the destination PAN id was elided by PAN id
	// compression and has to be taken from the receiver.
	DstPanPresent bool
}

// DecodeAddrFields decodes the addressing fields following the sequence number.
func DecodeAddrFields(fc FrameControl, b []byte) (AddrFields, error) {
	var a AddrFields
	n, ok := AddrFieldsLen(fc)
	if !ok {
		return a, errors.Errorf("reserved address mode in %s", fc)
	}
	if len(b) < n {
		return a, errors.Errorf("address fields truncated: %d < %d", len(b), n)
	}
	dst, src := fc.DestAddrMode(), fc.SourceAddrMode()
	pc := fc.PanidCompression()
	p := 0
	readPan := func() types.PanId {
		v := binary.LittleEndian.Uint16(b[p:])
		p += types.PanIdFieldLen
		return v
	}
	readAddr := func(mode uint16) Address {
		if mode == AddrModeExtended {
			v := binary.LittleEndian.Uint64(b[p:])
			p += types.ExtAddrFieldLen
			return ExtAddress(v)
		}
		v := binary.LittleEndian.Uint16(b[p:])
		p += types.ShortAddrFieldLen
		return ShortAddress(v)
	}

	if dst != AddrModeNone {
		if !pc {
			a.DstPanId = readPan()
			a.DstPanPresent = true
		}
		a.Dst = readAddr(dst)
	}
	a.SrcPanId = a.DstPanId
	if src != AddrModeNone {
		if !pc && dst == AddrModeNone {
			a.SrcPanId = readPan()
		}
		a.Src = readAddr(src)
	}
	if pc && dst == AddrModeNone && src == AddrModeNone {
		a.DstPanId = readPan()
		a.SrcPanId = a.DstPanId
		a.DstPanPresent = true
	}
	return a, nil
}

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

	"github.com/pkg/errors"
)

// Header IE element ids with special meaning (802.15.4-2015 Table 7-7).
const (
	HeaderIeTermination1 = 0x7e // header termination, payload IEs follow
	HeaderIeTermination2 = 0x7f // header termination, payload follows
	PayloadIeTermination = 0x0f // payload IE group id terminating the list
	ieDescriptorLen      = 2
)

// Wi-SUN header IE carrying the received signal level of an acknowledged
// frame.
const (
	HeaderIeWisun   = 0x2a
	WisunSubIdRsl   = 0x04
	RslNotMeasured  = 0xff
	RssiNotMeasured = -128

	rslThermalNoise = 174
	rslMaxRssi      = 80
)

type HeaderIE struct {
	ElementId uint8
	Content   []byte
}

type PayloadIE struct {
	GroupId uint8
	Content []byte
}

// HeaderIEList is the located header IE block of a frame.
type HeaderIEList struct {
	IEs []HeaderIE
	// Len is the byte length of the IEs before the termination IE.
	Len int
	// PayloadIEsFollow reports an HT1 termination.
	PayloadIEsFollow bool
	// Consumed is the byte length including the termination IE.
	Consumed int
}

// ParseHeaderIEs walks the header IE list at the start of b.
func ParseHeaderIEs(b []byte) (HeaderIEList, error) {
	var l HeaderIEList
	for l.Consumed+ieDescriptorLen <= len(b) {
		d := binary.LittleEndian.Uint16(b[l.Consumed:])
		if d&0x8000 != 0 {
			return l, errors.Errorf("payload IE descriptor in header IE list at %d", l.Consumed)
		}
		n := int(d & 0x7f)
		id := uint8((d >> 7) & 0xff)
		start := l.Consumed + ieDescriptorLen
		if start+n > len(b) {
			return l, errors.Errorf("header IE 0x%02x overruns frame", id)
		}
		l.Consumed = start + n
		if id == HeaderIeTermination1 || id == HeaderIeTermination2 {
			l.PayloadIEsFollow = id == HeaderIeTermination1
			return l, nil
		}
		l.IEs = append(l.IEs, HeaderIE{ElementId: id, Content: b[start : start+n]})
		l.Len = l.Consumed
	}
	return l, nil
}

// PayloadIEList is the located payload IE block of a frame.
type PayloadIEList struct {
	IEs      []PayloadIE
	Len      int
	Consumed int
}

// ParsePayloadIEs walks the payload IE list at the start of b.
func ParsePayloadIEs(b []byte) (PayloadIEList, error) {
	var l PayloadIEList
	for l.Consumed+ieDescriptorLen <= len(b) {
		d := binary.LittleEndian.Uint16(b[l.Consumed:])
		if d&0x8000 == 0 {
			return l, errors.Errorf("header IE descriptor in payload IE list at %d", l.Consumed)
		}
		n := int(d & 0x07ff)
		gid := uint8((d >> 11) & 0x0f)
		start := l.Consumed + ieDescriptorLen
		if start+n > len(b) {
			return l, errors.Errorf("payload IE group 0x%x overruns frame", gid)
		}
		l.Consumed = start + n
		if gid == PayloadIeTermination {
			return l, nil
		}
		l.IEs = append(l.IEs, PayloadIE{GroupId: gid, Content: b[start : start+n]})
		l.Len = l.Consumed
	}
	return l, nil
}

func (ie HeaderIE) Encode() []byte {
	d := uint16(len(ie.Content)&0x7f) | uint16(ie.ElementId)<<7
	return append(binary.LittleEndian.AppendUint16(nil, d), ie.Content...)
}

func (ie PayloadIE) Encode() []byte {
	d := uint16(len(ie.Content)&0x07ff) | uint16(ie.GroupId&0x0f)<<11 | 0x8000
	return append(binary.LittleEndian.AppendUint16(nil, d), ie.Content...)
}

// RslIE returns the Wi-SUN RSL header IE for a frame received at rssi dBm.
// The level is reported on a 0..254 scale above the thermal noise floor.
func RslIE(rssi int8) HeaderIE {
	rsl := uint8(RslNotMeasured)
	if rssi != RssiNotMeasured {
		v := int(rssi)
		if v > rslMaxRssi {
			v = rslMaxRssi
		}
		v += rslThermalNoise
		if v < 0 {
			v = 0
		}
		rsl = uint8(v)
	}
	return HeaderIE{ElementId: HeaderIeWisun, Content: []byte{WisunSubIdRsl, rsl}}
}

// Rsl returns the level carried by a Wi-SUN RSL header IE.
func (ie HeaderIE) Rsl() (uint8, bool) {
	if ie.ElementId != HeaderIeWisun || len(ie.Content) != 2 || ie.Content[0] != WisunSubIdRsl {
		return 0, false
	}
	return ie.Content[1], true
}

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAddrFieldsLenTable(t *testing.T) {
	type tc struct {
		dst, src uint16
		pc       bool
		expected int
	}
	cases := []tc{
		{AddrModeNone, AddrModeNone, false, 0},
		{AddrModeNone, AddrModeNone, true, 2},
		{AddrModeShort, AddrModeNone, false, 4},
		{AddrModeShort, AddrModeNone, true, 2},
		{AddrModeExtended, AddrModeNone, false, 10},
		{AddrModeExtended, AddrModeNone, true, 8},
		{AddrModeNone, AddrModeShort, false, 4},
		{AddrModeNone, AddrModeExtended, true, 8},
		{AddrModeShort, AddrModeShort, false, 6},
		{AddrModeShort, AddrModeShort, true, 4},
		{AddrModeExtended, AddrModeExtended, false, 18},
		{AddrModeExtended, AddrModeExtended, true, 16},
		{AddrModeShort, AddrModeExtended, false, 12},
		{AddrModeExtended, AddrModeShort, true, 10},
	}
	for _, c := range cases {
		var flags FrameControl
		if c.pc {
			flags = FcfPanIdCompression
		}
		fc := MakeFrameControl(FrameTypeData, FrameVersion2015, c.dst, c.src, flags)
		n, ok := AddrFieldsLen(fc)
		assert.True(t, ok)
		assert.Equalf(t, c.expected, n, "dst=%d src=%d pc=%v", c.dst, c.src, c.pc)
	}

	for _, m := range []uint16{AddrModeNone, AddrModeShort, AddrModeExtended} {
		_, ok := AddrFieldsLen(MakeFrameControl(FrameTypeData, FrameVersion2015, AddrModeReserved, m, 0))
		assert.False(t, ok)
		_, ok = AddrFieldsLen(MakeFrameControl(FrameTypeData, FrameVersion2015, m, AddrModeReserved, 0))
		assert.False(t, ok)
	}
}

func TestAddrFieldsLenMatchesEncoder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		modes := rapid.SampledFrom([]uint16{AddrModeNone, AddrModeShort, AddrModeExtended})
		dst := modes.Draw(t, "dst")
		src := modes.Draw(t, "src")
		var flags FrameControl
		if rapid.Bool().Draw(t, "pc") {
			flags |= FcfPanIdCompression
		}
		if rapid.Bool().Draw(t, "seqSuppressed") {
			flags |= FcfSeqNumSuppression
		}
		h := Header{
			FrameControl: MakeFrameControl(FrameTypeData, FrameVersion2015, dst, src, flags),
			Seq:          rapid.Uint8().Draw(t, "seq"),
			DstPanId:     rapid.Uint16().Draw(t, "dstPan"),
			Dst:          Address{Mode: dst, Short: rapid.Uint16().Draw(t, "dstShort"), Ext: rapid.Uint64().Draw(t, "dstExt")},
			SrcPanId:     rapid.Uint16().Draw(t, "srcPan"),
			Src:          Address{Mode: src, Short: rapid.Uint16().Draw(t, "srcShort"), Ext: rapid.Uint64().Draw(t, "srcExt")},
		}
		n, ok := AddrFieldsLen(h.FrameControl)
		assert.True(t, ok)
		seqLen := 1
		if h.FrameControl.SequenceNumberSuppression() {
			seqLen = 0
		}
		assert.Equal(t, 2+seqLen+n, len(h.Encode()))
	})
}

func TestDecodeAddrFields(t *testing.T) {
	h := Header{
		FrameControl: MakeFrameControl(FrameTypeData, FrameVersion2015, AddrModeShort, AddrModeExtended, 0),
		Seq:          3,
		DstPanId:     0xface,
		Dst:          ShortAddress(0x1234),
		Src:          ExtAddress(0x1122334455667788),
	}
	b := h.Encode()[3:]
	a, err := DecodeAddrFields(h.FrameControl, b)
	assert.Nil(t, err)
	assert.True(t, a.DstPanPresent)
	assert.Equal(t, uint16(0xface), a.DstPanId)
	assert.Equal(t, uint16(0xface), a.SrcPanId)
	assert.Equal(t, h.Dst, a.Dst)
	assert.Equal(t, h.Src, a.Src)

	h.FrameControl |= FcfPanIdCompression
	a, err = DecodeAddrFields(h.FrameControl, h.Encode()[3:])
	assert.Nil(t, err)
	assert.False(t, a.DstPanPresent)
	assert.Equal(t, h.Src, a.Src)

	none := MakeFrameControl(FrameTypeData, FrameVersion2015, AddrModeNone, AddrModeNone, FcfPanIdCompression)
	a, err = DecodeAddrFields(none, []byte{0xcd, 0xab})
	assert.Nil(t, err)
	assert.True(t, a.DstPanPresent)
	assert.Equal(t, uint16(0xabcd), a.DstPanId)

	_, err = DecodeAddrFields(h.FrameControl, b[:3])
	assert.NotNil(t, err)
}

func TestFrameControlFields(t *testing.T) {
	fc := MakeFrameControl(FrameTypeCommand, FrameVersion2015, AddrModeShort, AddrModeExtended,
		FcfAckRequest|FcfSecurityEnabled|FcfIEPresent)
	assert.Equal(t, FrameTypeCommand, fc.FrameType())
	assert.Equal(t, FrameVersion2015, fc.FrameVersion())
	assert.Equal(t, uint16(AddrModeShort), fc.DestAddrMode())
	assert.Equal(t, uint16(AddrModeExtended), fc.SourceAddrMode())
	assert.True(t, fc.AckRequest())
	assert.True(t, fc.SecurityEnabled())
	assert.True(t, fc.IEPresent())
	assert.False(t, fc.PanidCompression())
	assert.False(t, fc.FramePending())

	var back FrameControl
	back.Dissect(fc.Bytes())
	assert.Equal(t, fc, back)
}

func TestPhrRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := Phr{
			Length:     rapid.Uint16Range(0, 2047).Draw(t, "len"),
			Fcs2:       rapid.Bool().Draw(t, "fcs2"),
			Whitening:  rapid.Bool().Draw(t, "dw"),
			ModeSwitch: rapid.Bool().Draw(t, "ms"),
		}
		assert.Equal(t, p, DecodePhr(p.Encode()))
	})

	p := DecodePhr([]byte{0x19, 0x08})
	assert.Equal(t, uint16(25), p.Length)
	assert.Equal(t, 4, p.FcsLen())
	assert.Equal(t, 21, p.PsduLen())
	assert.False(t, p.ModeSwitch)
}

func TestFcs(t *testing.T) {
	check := []byte("123456789")
	assert.Equal(t, uint16(0x2189), Fcs16(check))
	assert.Equal(t, uint32(0xcbf43926), Fcs32(check))

	framed := AppendFcs(check, 2)
	assert.Len(t, framed, 11)
	assert.True(t, CheckFcs(framed, 2))
	framed[0] ^= 0x01
	assert.False(t, CheckFcs(framed, 2))

	assert.True(t, CheckFcs(AppendFcs(check, 4), 4))
	assert.False(t, CheckFcs([]byte{0x01}, 4))
}

func TestIEWalk(t *testing.T) {
	h := Header{FrameControl: MakeFrameControl(FrameTypeData, FrameVersion2015, AddrModeNone, AddrModeNone, FcfSeqNumSuppression)}
	psdu := BuildPsdu(h,
		[]HeaderIE{{ElementId: 0x2a, Content: []byte{1, 2, 3}}},
		[]PayloadIE{{GroupId: 0x1, Content: []byte{9, 9}}},
		[]byte{0xaa, 0xbb})
	fc := FrameControl(uint16(psdu[0]) | uint16(psdu[1])<<8)
	assert.True(t, fc.IEPresent())

	body := psdu[2:]
	hl, err := ParseHeaderIEs(body)
	assert.Nil(t, err)
	assert.Len(t, hl.IEs, 1)
	assert.Equal(t, uint8(0x2a), hl.IEs[0].ElementId)
	assert.Equal(t, []byte{1, 2, 3}, hl.IEs[0].Content)
	assert.Equal(t, 5, hl.Len)
	assert.Equal(t, 7, hl.Consumed)
	assert.True(t, hl.PayloadIEsFollow)

	pl, err := ParsePayloadIEs(body[hl.Consumed:])
	assert.Nil(t, err)
	assert.Len(t, pl.IEs, 1)
	assert.Equal(t, uint8(1), pl.IEs[0].GroupId)
	assert.Equal(t, 4, pl.Len)
	assert.Equal(t, []byte{0xaa, 0xbb}, body[hl.Consumed+pl.Consumed:])

	empty, err := ParseHeaderIEs(HeaderIE{ElementId: HeaderIeTermination2}.Encode())
	assert.Nil(t, err)
	assert.Equal(t, 0, empty.Len)
	assert.Equal(t, 2, empty.Consumed)

	_, err = ParseHeaderIEs([]byte{0x05, 0x15})
	assert.NotNil(t, err)
}

func TestSecurityHeader(t *testing.T) {
	sh := AuxSecurityHeader{
		Control:      SecurityControl(0x05 | KeyIdModeSource4<<3),
		FrameCounter: 0x01020304,
		KeySource:    []byte{0xde, 0xad, 0xbe, 0xef},
		KeyIndex:     7,
	}
	b := sh.Encode()
	assert.Equal(t, 10, len(b))
	assert.Equal(t, sh.Len(), len(b))

	var back AuxSecurityHeader
	back.Control = SecurityControl(b[0])
	assert.Nil(t, back.DecodeBody(b[1:]))
	assert.Equal(t, sh, back)
	assert.Equal(t, uint8(5), back.Control.Level())

	assert.NotNil(t, back.DecodeBody(b[1:4]))
}

func TestAckBuilders(t *testing.T) {
	imm := BuildImmAck(0x42, true)
	assert.Equal(t, []byte{0x12, 0x00, 0x42}, imm)
	assert.Equal(t, []byte{0x02, 0x20, 0x07}, BuildAck(7, false, FrameVersion2015))

	rx := Header{
		FrameControl: MakeFrameControl(FrameTypeData, FrameVersion2015, AddrModeShort, AddrModeExtended, FcfAckRequest),
		Seq:          9,
		DstPanId:     0xabcd,
		Src:          ExtAddress(0x0102030405060708),
	}
	enh := BuildEnhAck(&rx, false, nil)
	var fc FrameControl
	fc.Dissect(enh)
	assert.Equal(t, FrameTypeAck, fc.FrameType())
	assert.Equal(t, FrameVersion2015, fc.FrameVersion())
	assert.Equal(t, uint16(AddrModeExtended), fc.DestAddrMode())
	assert.Equal(t, uint8(9), enh[2])
	assert.Len(t, enh, 2+1+8)
}

func TestRslIE(t *testing.T) {
	for _, c := range []struct {
		rssi int8
		rsl  uint8
	}{
		{-60, 114},
		{-127, 47},
		{80, 254},
		{127, 254},
		{RssiNotMeasured, RslNotMeasured},
	} {
		ie := RslIE(c.rssi)
		rsl, ok := ie.Rsl()
		assert.True(t, ok)
		assert.Equal(t, c.rsl, rsl, "rssi %d", c.rssi)
	}

	rx := Header{
		FrameControl: MakeFrameControl(FrameTypeData, FrameVersion2015, AddrModeShort, AddrModeShort, FcfAckRequest|FcfPanIdCompression),
		Seq:          3,
		Src:          ShortAddress(0x0002),
	}
	enh := BuildEnhAck(&rx, false, []HeaderIE{RslIE(-60)})
	var fc FrameControl
	fc.Dissect(enh)
	assert.True(t, fc.IEPresent())
	addrLen, ok := AddrFieldsLen(fc)
	require.True(t, ok)
	l, err := ParseHeaderIEs(enh[3+addrLen:])
	require.NoError(t, err)
	require.Len(t, l.IEs, 1)
	rsl, ok := l.IEs[0].Rsl()
	assert.True(t, ok)
	assert.Equal(t, uint8(114), rsl)

	_, ok = HeaderIE{ElementId: HeaderIeWisun, Content: []byte{0x01, 0, 0, 0, 0}}.Rsl()
	assert.False(t, ok)
}

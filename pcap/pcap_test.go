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

package pcap

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/ot-rfmac/wpan"
)

var testPsdu = []byte{0x41, 0xd8, 0x05, 0xce, 0xfa, 0x01, 0x00, 0x02, 0x00, 0xaa}

func TestWpanWriter(t *testing.T) {
	var buf bytes.Buffer
	pw, err := NewWriter(&buf, FormatWpan)
	require.NoError(t, err)
	require.Equal(t, pcapFileHeaderSize, buf.Len())
	assert.Equal(t, uint32(dltIeee802154), binary.LittleEndian.Uint32(buf.Bytes()[20:24]))

	for i := 0; i < 3; i++ {
		require.NoError(t, pw.AppendFrame(Frame{Timestamp: 1500000 + uint64(i), Psdu: testPsdu, FcsLen: 2}))
	}
	assert.Equal(t, 3, pw.Frames())
	rec := pcapFrameHeaderSize + len(testPsdu) + 2
	require.Equal(t, pcapFileHeaderSize+3*rec, buf.Len())

	first := buf.Bytes()[pcapFileHeaderSize:]
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(first[0:4]))
	assert.Equal(t, uint32(500000), binary.LittleEndian.Uint32(first[4:8]))
	assert.Equal(t, uint32(len(testPsdu)+2), binary.LittleEndian.Uint32(first[8:12]))
	assert.True(t, wpan.CheckFcs(first[pcapFrameHeaderSize:rec], 2))
}

func TestWpanTapWriter(t *testing.T) {
	var buf bytes.Buffer
	pw, err := NewWriter(&buf, FormatWpanTap)
	require.NoError(t, err)
	require.NoError(t, pw.AppendFrame(Frame{Psdu: testPsdu, Channel: 11, Rssi: -60, Lqi: 200}))

	rec := buf.Bytes()[pcapFileHeaderSize+pcapFrameHeaderSize:]
	hdrLen := int(binary.LittleEndian.Uint16(rec[2:4]))
	assert.Equal(t, 36, hdrLen)
	require.Equal(t, hdrLen+len(testPsdu)+4, len(rec))
	// FCS type TLV: 32-bit
	assert.Equal(t, byte(2), rec[8])
	assert.Equal(t, float32(-60), math.Float32frombits(binary.LittleEndian.Uint32(rec[16:20])))
	assert.Equal(t, uint16(11), binary.LittleEndian.Uint16(rec[24:26]))
	assert.Equal(t, byte(200), rec[32])
	assert.True(t, wpan.CheckFcs(rec[hdrLen:], 4))
}

func TestNewFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "frames.pcap")
	pw, err := NewFile(name, FormatWpan)
	require.NoError(t, err)
	require.NoError(t, pw.AppendFrame(Frame{Psdu: testPsdu}))
	require.NoError(t, pw.Sync())
	require.NoError(t, pw.Close())

	info, err := os.Stat(name)
	require.NoError(t, err)
	assert.Equal(t, int64(pcapFileHeaderSize+pcapFrameHeaderSize+len(testPsdu)+4), info.Size())

	_, err = NewFile(name, FormatOff)
	assert.Error(t, err)
}

func TestFormatText(t *testing.T) {
	var f Format
	require.NoError(t, f.UnmarshalText([]byte("wpan-tap")))
	assert.Equal(t, FormatWpanTap, f)
	assert.Error(t, f.UnmarshalText([]byte("usb")))
}

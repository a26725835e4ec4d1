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

// Package pcap writes frames delivered by the MAC to a pcap stream.
package pcap

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/openthread/ot-rfmac/types"
	"github.com/openthread/ot-rfmac/wpan"
)

// Format is the link type used for the stream.
type Format int

const (
	FormatOff Format = iota
	FormatWpan
	FormatWpanTap
)

var formatNames = []string{"off", "wpan", "wpan-tap"}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "INVALID"
}

func (f *Format) UnmarshalText(text []byte) error {
	s := strings.ToLower(string(text))
	for i, n := range formatNames {
		if n == s {
			*f = Format(i)
			return nil
		}
	}
	return errors.Errorf("unknown pcap format %q", s)
}

const (
	dltIeee802154       = 195
	dltIeee802154Tap    = 283
	pcapMagicNumber     = 0xA1B2C3D4
	pcapVersionMajor    = 2
	pcapVersionMinor    = 4
	pcapSnapLen         = 4096
	pcapFileHeaderSize  = 24
	pcapFrameHeaderSize = 16
)

// wpan-tap TLVs, see https://gitlab.com/exegin/ieee802-15-4-tap
const (
	tapHeaderSize        = 4
	tlvFcsType           = 0
	tlvRss               = 1
	tlvChannelAssignment = 3
	tlvLqi               = 10
)

// Frame is a received PSDU without FCS, as handed to the upper layer.
type Frame struct {
	Timestamp types.Usec
	Psdu      []byte
	// FcsLen is the FCS length computed and appended on output, 2 or 4.
	FcsLen  int
	Channel types.ChannelId
	Rssi    int8
	Lqi     uint8
}

// Writer appends frames to a pcap stream.
type Writer struct {
	w      io.Writer
	format Format
	closer io.Closer
	frames int
}

// NewWriter writes the pcap file header to w.
func NewWriter(w io.Writer, format Format) (*Writer, error) {
	var dlt uint32
	switch format {
	case FormatWpan:
		dlt = dltIeee802154
	case FormatWpanTap:
		dlt = dltIeee802154Tap
	default:
		return nil, errors.Errorf("invalid pcap format: %s", format)
	}
	var header [pcapFileHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:4], pcapMagicNumber)
	binary.LittleEndian.PutUint16(header[4:6], pcapVersionMajor)
	binary.LittleEndian.PutUint16(header[6:8], pcapVersionMinor)
	binary.LittleEndian.PutUint32(header[16:20], pcapSnapLen)
	binary.LittleEndian.PutUint32(header[20:24], dlt)
	if _, err := w.Write(header[:]); err != nil {
		return nil, errors.Wrap(err, "write pcap header")
	}
	return &Writer{w: w, format: format}, nil
}

// NewFile creates filename and writes the pcap file header.
func NewFile(filename string, format Format) (*Writer, error) {
	fd, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	pw, err := NewWriter(fd, format)
	if err != nil {
		_ = fd.Close()
		return nil, err
	}
	pw.closer = fd
	return pw, nil
}

// Frames returns the number of frames written.
func (pw *Writer) Frames() int {
	return pw.frames
}

func (pw *Writer) AppendFrame(f Frame) error {
	fcsLen := f.FcsLen
	if fcsLen != types.Fcs2FieldLen {
		fcsLen = types.Fcs4FieldLen
	}
	data := wpan.AppendFcs(f.Psdu, fcsLen)
	var tap []byte
	if pw.format == FormatWpanTap {
		tap = tapHeader(f, fcsLen)
	}

	var header [pcapFrameHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:4], uint32(f.Timestamp/1000000))
	binary.LittleEndian.PutUint32(header[4:8], uint32(f.Timestamp%1000000))
	plen := uint32(len(tap) + len(data))
	binary.LittleEndian.PutUint32(header[8:12], plen)
	binary.LittleEndian.PutUint32(header[12:16], plen)

	for _, b := range [][]byte{header[:], tap, data} {
		if _, err := pw.w.Write(b); err != nil {
			return errors.Wrap(err, "write pcap frame")
		}
	}
	pw.frames++
	return nil
}

func tapHeader(f Frame, fcsLen int) []byte {
	fcsType := byte(2)
	if fcsLen == types.Fcs2FieldLen {
		fcsType = 1
	}
	rss := make([]byte, 4)
	binary.LittleEndian.PutUint32(rss, math.Float32bits(float32(f.Rssi)))
	channel := make([]byte, 3)
	binary.LittleEndian.PutUint16(channel, uint16(f.Channel))

	hdr := make([]byte, tapHeaderSize)
	hdr = appendTlv(hdr, tlvFcsType, []byte{fcsType})
	hdr = appendTlv(hdr, tlvRss, rss)
	hdr = appendTlv(hdr, tlvChannelAssignment, channel)
	hdr = appendTlv(hdr, tlvLqi, []byte{f.Lqi})
	binary.LittleEndian.PutUint16(hdr[2:4], uint16(len(hdr)))
	return hdr
}

// appendTlv appends a TLV padded to a 4 byte boundary.
func appendTlv(b []byte, typ uint16, data []byte) []byte {
	b = binary.LittleEndian.AppendUint16(b, typ)
	b = binary.LittleEndian.AppendUint16(b, uint16(len(data)))
	b = append(b, data...)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

func (pw *Writer) Sync() error {
	if s, ok := pw.w.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}

func (pw *Writer) Close() error {
	if pw.closer == nil {
		return nil
	}
	return pw.closer.Close()
}

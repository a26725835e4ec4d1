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

	"github.com/openthread/ot-rfmac/types"
)

// Header is a MAC header (MHR) of a 2015 frame.
type Header struct {
	FrameControl FrameControl
	Seq          uint8
	DstPanId     types.PanId
	Dst          Address
	SrcPanId     types.PanId
	Src          Address
	Security     AuxSecurityHeader
}

// Encode returns the MHR bytes: frame control, sequence number unless
// suppressed, the addressing fields sized by AddrFieldsLen and the auxiliary
// security header if security is enabled.
func (h *Header) Encode() []byte {
	fc := h.FrameControl
	out := append([]byte(nil), fc.Bytes()...)
	if !fc.SequenceNumberSuppression() {
		out = append(out, h.Seq)
	}
	dst, src := fc.DestAddrMode(), fc.SourceAddrMode()
	pc := fc.PanidCompression()
	if dst != AddrModeNone {
		if !pc {
			out = binary.LittleEndian.AppendUint16(out, h.DstPanId)
		}
		out = appendAddr(out, dst, h.Dst)
	}
	if src != AddrModeNone {
		if !pc && dst == AddrModeNone {
			out = binary.LittleEndian.AppendUint16(out, h.SrcPanId)
		}
		out = appendAddr(out, src, h.Src)
	}
	if pc && dst == AddrModeNone && src == AddrModeNone {
		out = binary.LittleEndian.AppendUint16(out, h.DstPanId)
	}
	if fc.SecurityEnabled() {
		out = append(out, h.Security.Encode()...)
	}
	return out
}

func appendAddr(out []byte, mode uint16, a Address) []byte {
	if mode == AddrModeExtended {
		return binary.LittleEndian.AppendUint64(out, a.Ext)
	}
	return binary.LittleEndian.AppendUint16(out, a.Short)
}

func (h *Header) String() string {
	if h.FrameControl.FrameType() == FrameTypeAck {
		return fmt.Sprintf("ACK,FC:%s,Seq:%d", h.FrameControl, h.Seq)
	}
	return fmt.Sprintf("MAC,FC:%s,Seq:%d,Dst:%04x/%s,Src:%s", h.FrameControl, h.Seq, h.DstPanId, h.Dst, h.Src)
}

// BuildPsdu returns the PSDU (without FCS) for the given header, optional
// header and payload IEs and payload. IEs set the IE-present bit and are
// terminated with HT1 when payload IEs follow, HT2 when only a payload follows.
func BuildPsdu(h Header, hdrIEs []HeaderIE, payloadIEs []PayloadIE, payload []byte) []byte {
	if len(hdrIEs) > 0 || len(payloadIEs) > 0 {
		h.FrameControl |= FcfIEPresent
	}
	out := h.Encode()
	for _, ie := range hdrIEs {
		out = append(out, ie.Encode()...)
	}
	switch {
	case len(payloadIEs) > 0:
		out = append(out, HeaderIE{ElementId: HeaderIeTermination1}.Encode()...)
		for _, ie := range payloadIEs {
			out = append(out, ie.Encode()...)
		}
		if len(payload) > 0 {
			out = append(out, PayloadIE{GroupId: PayloadIeTermination}.Encode()...)
		}
	case len(hdrIEs) > 0 && len(payload) > 0:
		out = append(out, HeaderIE{ElementId: HeaderIeTermination2}.Encode()...)
	}
	return append(out, payload...)
}

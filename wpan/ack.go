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

// BuildImmAck returns the PSDU (without FCS) of an immediate acknowledgment.
func BuildImmAck(seq uint8, framePending bool) []byte {
	return BuildAck(seq, framePending, FrameVersion2003)
}

// BuildAck returns an acknowledgment without addressing fields in the given
// frame version.
func BuildAck(seq uint8, framePending bool, version uint16) []byte {
	var flags FrameControl
	if framePending {
		flags |= FcfFramePending
	}
	h := Header{
		FrameControl: MakeFrameControl(FrameTypeAck, version, AddrModeNone, AddrModeNone, flags),
		Seq:          seq,
	}
	return h.Encode()
}

// BuildEnhAck returns the PSDU (without FCS) of an enhanced acknowledgment to
// the received frame rx, addressed back to its source. The sequence number is
// suppressed when the received frame suppressed it.
func BuildEnhAck(rx *Header, framePending bool, hdrIEs []HeaderIE) []byte {
	flags := FcfPanIdCompression
	if framePending {
		flags |= FcfFramePending
	}
	if rx.FrameControl.SequenceNumberSuppression() {
		flags |= FcfSeqNumSuppression
	}
	h := Header{
		FrameControl: MakeFrameControl(FrameTypeAck, FrameVersion2015, rx.Src.Mode, AddrModeNone, flags),
		Seq:          rx.Seq,
		DstPanId:     rx.SrcPanId,
		Dst:          rx.Src,
	}
	return BuildPsdu(h, hdrIEs, nil, nil)
}

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

	"github.com/openthread/ot-rfmac/types"
)

const (
	SecLevelNone = 0

	KeyIdModeImplicit = 0
	KeyIdModeIndex    = 1
	KeyIdModeSource4  = 2
	KeyIdModeSource8  = 3
)

// keyIdFieldLen is the key identifier field length (key source plus key index) per key id mode.
var keyIdFieldLen = [4]int{0, 1, 5, 9}

// SecurityControl is the auxiliary security header control byte.
type SecurityControl uint8

func (s SecurityControl) Level() uint8 {
	return uint8(s & 0x07)
}

func (s SecurityControl) KeyIdMode() uint8 {
	return uint8(s&0x18) >> 3
}

// KeyIdLen returns the length of the key identifier field.
func (s SecurityControl) KeyIdLen() int {
	return keyIdFieldLen[s.KeyIdMode()]
}

// AuxSecurityHeader is the decoded auxiliary security header. Frames are not
// decrypted at this layer.
type AuxSecurityHeader struct {
	Control      SecurityControl
	FrameCounter uint32
	KeySource    []byte
	KeyIndex     uint8
}

// Len returns the encoded header length including the control byte.
func (h *AuxSecurityHeader) Len() int {
	return types.SecControlFieldLen + types.FrameCounterLen + h.Control.KeyIdLen()
}

// DecodeBody decodes the frame counter and key identifier that follow the
// control byte. b must hold exactly FrameCounterLen+KeyIdLen bytes.
func (h *AuxSecurityHeader) DecodeBody(b []byte) error {
	n := types.FrameCounterLen + h.Control.KeyIdLen()
	if len(b) < n {
		return errors.Errorf("security header truncated: %d < %d", len(b), n)
	}
	h.FrameCounter = binary.LittleEndian.Uint32(b)
	if kl := h.Control.KeyIdLen(); kl > 0 {
		h.KeySource = append([]byte(nil), b[types.FrameCounterLen:n-1]...)
		h.KeyIndex = b[n-1]
	}
	return nil
}

func (h *AuxSecurityHeader) Encode() []byte {
	out := make([]byte, 0, h.Len())
	out = append(out, byte(h.Control))
	out = binary.LittleEndian.AppendUint32(out, h.FrameCounter)
	if kl := h.Control.KeyIdLen(); kl > 0 {
		src := make([]byte, kl-1)
		copy(src, h.KeySource)
		out = append(out, src...)
		out = append(out, h.KeyIndex)
	}
	return out
}

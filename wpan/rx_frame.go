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
	"fmt"

	"github.com/openthread/ot-rfmac/types"
)

// RxFrame is a validated received frame handed to the upper MAC layer, which
// owns it from then on.
type RxFrame struct {
	Header
	// Payload is the MAC payload including any IEs; secured frames are left encrypted.
	Payload    []byte
	HeaderIEs  HeaderIEList
	PayloadIEs PayloadIEList
	Rssi       int8
	Lqi        uint8
	Timestamp  uint32
	Channel    types.ChannelId
}

func (f *RxFrame) String() string {
	return fmt.Sprintf("%s,Len:%d,RSSI:%d,LQI:%d", f.Header.String(), len(f.Payload), f.Rssi, f.Lqi)
}

// Psdu re-encodes the frame without FCS.
func (f *RxFrame) Psdu() []byte {
	return append(f.Header.Encode(), f.Payload...)
}

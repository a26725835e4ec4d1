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

package mac

import (
	"fmt"
	"io"
	"reflect"
)

// Diagnostics counts low-level events that are never surfaced as errors.
type Diagnostics struct {
	RxCrcPass uint64
	RxCrcFail uint64

	DiscardModeSwitch uint64
	DiscardLength     uint64
	DiscardVersion    uint64
	DiscardFrameType  uint64
	DiscardSecurity   uint64
	DiscardAddrMode   uint64
	DiscardAddress    uint64
	DiscardIE         uint64
	DiscardRing       uint64

	AllocFailed     uint64
	UnexpectedOrder uint64
	RxHalted        uint64

	AcksSent       uint64
	EnhAcksSent    uint64
	AckSendFailed  uint64
	AcksReceived   uint64
	AcksMissed     uint64
	TxSuccess      uint64
	TxChannelBusy  uint64
	TxAborted      uint64
	TxDutyCycle    uint64
	SubmitRejected uint64
	EventsDropped  uint64
	CompareFailed  uint64
}

// WriteTo prints every counter as a name/value line.
func (d Diagnostics) WriteTo(w io.Writer) (int64, error) {
	var total int64
	v := reflect.ValueOf(d)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		n, err := fmt.Fprintf(w, "%-18s %d\n", t.Field(i).Name, v.Field(i).Uint())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

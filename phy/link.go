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

package phy

const (
	ReceiverSensitivityDbm = -110
	ReceiverSaturationDbm  = 10

	EdMax = 0xff
	// edMinAboveSensitivity is the ED floor above receiver sensitivity (802.15.4 clause 10.2.5).
	edMinAboveSensitivity = 10
	edMinDbm              = ReceiverSensitivityDbm + edMinAboveSensitivity
	edMaxDbm              = ReceiverSaturationDbm

	// CcaThresholdDbm is the energy above which the channel is reported busy.
	CcaThresholdDbm int8 = -83

	// RssiInvalid is reported by the radio core when no RSSI was measured.
	RssiInvalid int8 = -128
)

// ClipRssi clips an RSSI reading to the range the ED scale covers.
func ClipRssi(rssiDbm int8) int {
	r := int(rssiDbm)
	if r < edMinDbm {
		r = edMinDbm
	} else if r > edMaxDbm {
		r = edMaxDbm
	}
	return r
}

// ComputeEd scales an RSSI reading to the 0..255 energy detect range.
func ComputeEd(rssiDbm int8) uint8 {
	r := ClipRssi(rssiDbm)
	return uint8(EdMax * (r - edMinDbm) / (edMaxDbm - edMinDbm))
}

// ComputeLqi derives the link quality indication. The correlation value is
// not used by SUN FSK radios; LQI equals ED.
func ComputeLqi(rssiDbm int8, correlation uint8) uint8 {
	_ = correlation
	return ComputeEd(rssiDbm)
}

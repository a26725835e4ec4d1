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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/ot-rfmac/types"
	"github.com/openthread/ot-rfmac/wpan"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultRejectedBackoff, cfg.RejectedBackoff)
	assert.Equal(t, types.Fcs4FieldLen, cfg.fcsLen())
	assert.Equal(t, 2+types.DefaultMaxFrameSize+1+4, cfg.rxEntrySize())
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig([]byte(`
phy-id: 3
channel: 10
min-be: 5
fcs2: true
rx-filter: non-beacon
security-enabled: true
rejected-backoff: 2000
duty-cycle:
  enabled: false
`))
	require.NoError(t, err)
	assert.Equal(t, uint8(3), cfg.PhyId)
	assert.Equal(t, types.ChannelId(10), cfg.Channel)
	assert.Equal(t, uint8(5), cfg.MinBe)
	assert.True(t, cfg.Fcs2)
	assert.Equal(t, RxFilterNonBeacon, cfg.RxFilter)
	assert.True(t, cfg.SecurityEnabled)
	assert.Equal(t, types.Usec(2000), cfg.RejectedBackoff)
	assert.False(t, cfg.DutyCycle.Enabled)
	// untouched fields keep their defaults
	assert.Equal(t, types.DefaultMaxFrameSize, cfg.MaxFrameSize)
	assert.Equal(t, 12, cfg.DutyCycle.Buckets)
	assert.Equal(t, types.Fcs2FieldLen, cfg.fcsLen())
}

func TestLoadConfigInvalid(t *testing.T) {
	for _, doc := range []string{
		"phy-id: 9",
		"channel: 200",
		"min-be: 9",
		"rx-filter: everything",
		"rx-ring-entries: 0",
		"max-frame-size: 4096",
		"tick-period: 0",
		"duty-cycle: {limited: 10, critical: 5, regulated: 20}",
		"phy-id: [1",
	} {
		_, err := LoadConfig([]byte(doc))
		assert.Error(t, err, doc)
	}
}

func TestRxFilterText(t *testing.T) {
	for f := RxFilterNone; f <= RxFilterNonCommand; f++ {
		text, err := f.MarshalText()
		require.NoError(t, err)
		var back RxFilter
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, f, back)
	}
	var m EuiFilterMode
	require.NoError(t, m.UnmarshalText([]byte("Denylist")))
	assert.Equal(t, EuiDenylist, m)
	assert.Error(t, m.UnmarshalText([]byte("blocklist")))
}

func TestFrameFilterMatch(t *testing.T) {
	f := newFrameFilter()
	f.PanId = testPan
	f.ShortAddr = testShort
	f.ExtAddr = 0x0102030405060708

	shortShort := wpan.MakeFrameControl(wpan.FrameTypeData, wpan.FrameVersion2015, wpan.AddrModeShort, wpan.AddrModeShort, 0)
	cases := []struct {
		name string
		fc   wpan.FrameControl
		a    wpan.AddrFields
		want bool
	}{
		{"unicast", shortShort, wpan.AddrFields{DstPanId: testPan, Dst: wpan.ShortAddress(testShort)}, true},
		{"broadcast addr", shortShort, wpan.AddrFields{DstPanId: testPan, Dst: wpan.ShortAddress(types.BroadcastShortAddr)}, true},
		{"broadcast pan", shortShort, wpan.AddrFields{DstPanId: types.BroadcastPanId, Dst: wpan.ShortAddress(testShort)}, true},
		{"other pan", shortShort, wpan.AddrFields{DstPanId: 0x1111, Dst: wpan.ShortAddress(testShort)}, false},
		{"other addr", shortShort, wpan.AddrFields{DstPanId: testPan, Dst: wpan.ShortAddress(0x0bad)}, false},
		{"ext", wpan.MakeFrameControl(wpan.FrameTypeData, wpan.FrameVersion2015, wpan.AddrModeExtended, wpan.AddrModeNone, 0),
			wpan.AddrFields{DstPanId: testPan, Dst: wpan.ExtAddress(0x0102030405060708)}, true},
		{"no dst", wpan.MakeFrameControl(wpan.FrameTypeData, wpan.FrameVersion2015, wpan.AddrModeNone, wpan.AddrModeShort, 0),
			wpan.AddrFields{Src: wpan.ShortAddress(peerShort)}, true},
		{"pan only", wpan.MakeFrameControl(wpan.FrameTypeData, wpan.FrameVersion2015, wpan.AddrModeNone, wpan.AddrModeNone, wpan.FcfPanIdCompression),
			wpan.AddrFields{DstPanId: 0x1111}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := c.a
			assert.Equal(t, c.want, f.matchDst(&a, c.fc))
		})
	}
}

func TestFrameFilterEuiAndPending(t *testing.T) {
	r, _, _ := newTestRadio(t, nil)
	const ext types.ExtAddr = 0xaabbccddeeff0011
	r.AddEui(ext)
	r.SetEuiFilter(EuiAllowlist)
	r.SetFramePending(wpan.ShortAddress(peerShort), true)

	f := r.Filter()
	assert.True(t, f.matchEui(wpan.ExtAddress(ext)))
	assert.False(t, f.matchEui(wpan.ExtAddress(ext+1)))
	assert.True(t, f.matchEui(wpan.ShortAddress(peerShort)))
	assert.True(t, f.framePending(wpan.ShortAddress(peerShort)))

	// the snapshot is independent of later changes
	r.RemoveEui(ext)
	r.SetFramePending(wpan.ShortAddress(peerShort), false)
	assert.True(t, f.matchEui(wpan.ExtAddress(ext)))
	now := r.Filter()
	assert.False(t, now.matchEui(wpan.ExtAddress(ext)))
	assert.False(t, now.framePending(wpan.ShortAddress(peerShort)))
}

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

package dutycycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/openthread/ot-rfmac/types"
)

func testConfig() Config {
	return Config{
		Enabled:      true,
		Buckets:      4,
		BucketPeriod: 1000,
		Limited:      100,
		Critical:     200,
		Regulated:    300,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, types.Usec(360000000), cfg.Regulated)
}

func TestInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Critical = 50
	_, err := New(cfg, nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Buckets = 0
	_, err = New(cfg, nil)
	assert.Error(t, err)
}

func TestCheckAllowed(t *testing.T) {
	e, err := New(testConfig(), nil)
	require.NoError(t, err)

	// nothing recorded yet
	assert.True(t, e.CheckAllowed(1000))

	e.RecordTransmission(50)
	assert.True(t, e.CheckAllowed(40))
	assert.True(t, e.CheckAllowed(249))
	assert.False(t, e.CheckAllowed(250))
	assert.False(t, e.CheckAllowed(1000))

	e.SetEnabled(false)
	assert.True(t, e.CheckAllowed(1000))
}

func TestModeNotifiedOncePerCrossing(t *testing.T) {
	var modes []Mode
	e, err := New(testConfig(), func(m Mode) { modes = append(modes, m) })
	require.NoError(t, err)

	e.RecordTransmission(60)
	e.RecordTransmission(60)
	e.RecordTransmission(10)
	e.RecordTransmission(10)
	assert.Equal(t, []Mode{ModeLimited}, modes)

	e.RecordTransmission(200)
	assert.Equal(t, []Mode{ModeLimited, ModeRegulated}, modes)
	e.RecordTransmission(1)
	assert.Len(t, modes, 2)
	assert.Equal(t, ModeRegulated, e.Mode())
}

func TestAdvanceWindowLowersMode(t *testing.T) {
	var modes []Mode
	e, err := New(testConfig(), func(m Mode) { modes = append(modes, m) })
	require.NoError(t, err)

	e.RecordTransmission(250)
	e.AdvanceWindow()
	e.RecordTransmission(60)
	assert.Equal(t, ModeRegulated, e.Mode())

	e.AdvanceWindow()
	e.AdvanceWindow()
	assert.Equal(t, ModeRegulated, e.Mode())
	// the bucket holding 250 is evicted now
	e.AdvanceWindow()
	assert.Equal(t, types.Usec(60), e.Used())
	assert.Equal(t, ModeNormal, e.Mode())
	assert.Equal(t, []Mode{ModeCritical, ModeRegulated, ModeNormal}, modes)
}

func TestTick(t *testing.T) {
	e, err := New(testConfig(), nil)
	require.NoError(t, err)
	e.RecordTransmission(10)
	assert.Equal(t, 0, e.Tick(999))
	assert.Equal(t, 1, e.Tick(1000))
	e.RecordTransmission(20)
	assert.Equal(t, []types.Usec{0, 0, 10, 20}, e.Buckets())
	assert.Equal(t, 4, e.Tick(100000))
	assert.Equal(t, types.Usec(0), e.Used())
	assert.Equal(t, 0, e.Tick(100999))
	assert.Equal(t, 1, e.Tick(101000))
}

func TestBeaconAdjustment(t *testing.T) {
	e, err := New(testConfig(), nil)
	require.NoError(t, err)
	e.RecordBeacon(100)
	e.RecordTransmission(50)
	assert.True(t, e.CheckAllowed(200))

	e.SetCoordinator(true, true)
	l, c, r := e.Thresholds()
	assert.Equal(t, []types.Usec{0, 100, 200}, []types.Usec{l, c, r})
	assert.False(t, e.CheckAllowed(150))
	assert.Equal(t, types.Usec(50), e.Used())

	e.SetCoordinator(true, false)
	assert.True(t, e.CheckAllowed(150))
}

func TestBeaconRaisesMode(t *testing.T) {
	var modes []Mode
	e, err := New(testConfig(), func(m Mode) { modes = append(modes, m) })
	require.NoError(t, err)
	e.SetCoordinator(true, true)

	// nothing is evaluated before the first transmission
	e.RecordBeacon(50)
	assert.Equal(t, ModeNormal, e.Mode())

	e.RecordTransmission(60)
	assert.Equal(t, ModeLimited, e.Mode())
	e.RecordBeacon(100)
	assert.Equal(t, ModeCritical, e.Mode())
	assert.Equal(t, []Mode{ModeLimited, ModeCritical}, modes)
}

func TestWindowRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := testConfig()
		cfg.Buckets = rapid.IntRange(1, 8).Draw(t, "buckets")
		cfg.Regulated = 1 << 40
		cfg.Critical = cfg.Regulated
		cfg.Limited = cfg.Regulated
		e, err := New(cfg, nil)
		require.NoError(t, err)

		n := rapid.IntRange(0, 40).Draw(t, "n")
		for i := 0; i < n; i++ {
			if rapid.Bool().Draw(t, "advance") {
				before := e.Buckets()
				used := e.Used()
				e.AdvanceWindow()
				if e.Used() != used-before[0] {
					t.Fatalf("evicted %d but total went %d -> %d", before[0], used, e.Used())
				}
			} else {
				e.RecordTransmission(types.Usec(rapid.IntRange(0, 1000).Draw(t, "d")))
			}
			var sum types.Usec
			for _, b := range e.Buckets() {
				sum += b
			}
			if sum != e.Used() {
				t.Fatalf("total %d != bucket sum %d", e.Used(), sum)
			}
		}
		for i := 0; i < cfg.Buckets; i++ {
			e.AdvanceWindow()
		}
		if e.Used() != 0 {
			t.Fatalf("window not empty after full cycle: %d", e.Used())
		}
	})
}

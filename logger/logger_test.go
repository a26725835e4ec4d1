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

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevelString(t *testing.T) {
	for _, s := range []string{"micro", "trace", "debug", "info", "note", "warn", "crit", "off"} {
		lv, err := ParseLevelString(s)
		assert.Nil(t, err)
		assert.Equal(t, s, GetLevelString(lv))
	}

	lv, err := ParseLevelString("none")
	assert.Nil(t, err)
	assert.Equal(t, OffLevel, lv)

	lv, err = ParseLevelString("bogus")
	assert.NotNil(t, err)
	assert.Equal(t, DefaultLevel, lv)
}

func TestSetLevel(t *testing.T) {
	old := GetLevel()
	defer SetLevel(old)

	SetLevel(WarnLevel)
	assert.True(t, Enabled(ErrorLevel))
	assert.True(t, Enabled(WarnLevel))
	assert.False(t, Enabled(InfoLevel))
	Debugf("not logged %d", 1)
}

func TestPanicfAlwaysPanics(t *testing.T) {
	old := GetLevel()
	defer SetLevel(old)

	SetLevel(OffLevel)
	assert.Panics(t, func() {
		Panicf("boom %d", 42)
	})
	assert.Panics(t, func() {
		AssertTrue(false, "must hold")
	})
	assert.NotPanics(t, func() {
		AssertEqual(1, 1)
	})
}

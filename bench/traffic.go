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

package bench

import (
	"github.com/pkg/errors"

	"github.com/openthread/ot-rfmac/mac"
	"github.com/openthread/ot-rfmac/prng"
	"github.com/openthread/ot-rfmac/types"
)

// TrafficConfig generates random frames in both directions. Spacing between
// frames is uniform in [Interval/2, 3*Interval/2).
type TrafficConfig struct {
	// Seed 0 draws a seed from the bench root seed.
	Seed     int64      `yaml:"seed"`
	Frames   int        `yaml:"frames"`
	Start    types.Usec `yaml:"start"`
	Interval types.Usec `yaml:"interval"`
	MinSize  int        `yaml:"min-size"`
	MaxSize  int        `yaml:"max-size"`
	// The probabilities below apply per frame.
	AckRequest float64 `yaml:"ack-request"`
	Foreign    float64 `yaml:"foreign"`
	CrcError   float64 `yaml:"crc-error"`
	Transmit   float64 `yaml:"transmit"`
}

func (tc *TrafficConfig) Validate(maxFrameSize int) error {
	if tc.Frames < 0 || tc.Interval == 0 {
		return errors.Errorf("traffic needs a positive interval, got %d frames every %d us", tc.Frames, tc.Interval)
	}
	if tc.MinSize < minDataFrameLen || tc.MaxSize < tc.MinSize || tc.MaxSize+types.Fcs4FieldLen > maxFrameSize {
		return errors.Errorf("traffic frame sizes %d..%d out of range", tc.MinSize, tc.MaxSize)
	}
	for _, p := range []float64{tc.AckRequest, tc.Foreign, tc.CrcError, tc.Transmit} {
		if p < 0 || p > 1 {
			return errors.Errorf("traffic probability %v out of range", p)
		}
	}
	return nil
}

// Steps generates the traffic timeline. The same seed yields the same steps.
func (tc *TrafficConfig) Steps() []Step {
	seed := prng.RandomSeed(tc.Seed)
	if seed == 0 {
		seed = prng.NewTrafficSeed()
	}
	rng := seed.NewRand()
	steps := make([]Step, 0, tc.Frames)
	at := tc.Start
	for i := 0; i < tc.Frames; i++ {
		at += tc.Interval/2 + types.Usec(rng.Int63n(int64(tc.Interval)))
		size := tc.MinSize + rng.Intn(tc.MaxSize-tc.MinSize+1)
		ack := rng.Float64() < tc.AckRequest
		switch {
		case rng.Float64() < tc.Transmit:
			steps = append(steps, Step{At: at, Transmit: &TxSpec{Size: size, AckRequest: ack, Type: mac.TxUnslottedCsma}})
		case rng.Float64() < tc.CrcError:
			steps = append(steps, Step{At: at, CrcError: true})
		default:
			f := &FrameSpec{Size: size, AckRequest: ack}
			if rng.Float64() < tc.Foreign {
				dst := types.ShortAddr(0x1000 + rng.Intn(0x1000))
				f.Dst = &dst
			}
			steps = append(steps, Step{At: at, Inject: f})
		}
	}
	return steps
}

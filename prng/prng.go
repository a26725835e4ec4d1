// Copyright (c) 2024-2026, The OTNS Authors.
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

package prng

import (
	"math/rand"
	"sync"
	"time"
)

type RandomSeed int64

var (
	mu                 sync.Mutex
	radioSeedGenerator *rand.Rand
	trafficGenerator   *rand.Rand
	unitRandGenerator  *rand.Rand
)

// Init initializes the prng package, either with a fixed PRNG seed (rootSeed != 0) or a 'random' time-based PRNG
// seed (if rootSeed == 0).
func Init(rootSeed int64) {
	mu.Lock()
	defer mu.Unlock()
	initLocked(rootSeed)
}

func initLocked(rootSeed int64) {
	if rootSeed == 0 {
		rootSeed = time.Now().UnixNano()
	}
	root := rand.New(rand.NewSource(rootSeed))
	radioSeedGenerator = rand.New(rand.NewSource(rootSeed + root.Int63n(1e10)))
	trafficGenerator = rand.New(rand.NewSource(rootSeed + root.Int63n(1e10)))
	unitRandGenerator = rand.New(rand.NewSource(rootSeed + root.Int63n(1e10)))
}

func ensureLocked() {
	if radioSeedGenerator == nil {
		initLocked(0)
	}
}

// NewRadioRandomSeed generates unique random-seeds for newly created MAC radio contexts.
func NewRadioRandomSeed() RandomSeed {
	mu.Lock()
	defer mu.Unlock()
	ensureLocked()
	return RandomSeed(radioSeedGenerator.Int63())
}

// NewTrafficSeed generates the seed of a generated traffic pattern.
func NewTrafficSeed() RandomSeed {
	mu.Lock()
	defer mu.Unlock()
	ensureLocked()
	return RandomSeed(trafficGenerator.Int63())
}

// NewUnitRandom generates a new random unit [0, 1] float, which can be used as a random probability.
func NewUnitRandom() float64 {
	mu.Lock()
	defer mu.Unlock()
	ensureLocked()
	return unitRandGenerator.Float64()
}

// NewRand returns a generator seeded with seed.
func (seed RandomSeed) NewRand() *rand.Rand {
	return rand.New(rand.NewSource(int64(seed)))
}

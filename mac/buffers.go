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

import "sync"

// Allocator provides the buffers that received frames are decoded into. A
// buffer handed to the upper layer with a frame is owned by it from then on;
// Free is only called for frames the receive path discards.
type Allocator interface {
	Alloc(n int) ([]byte, bool)
	Free(b []byte)
}

type heapAllocator struct{}

func (heapAllocator) Alloc(n int) ([]byte, bool) {
	return make([]byte, n), true
}

func (heapAllocator) Free([]byte) {}

// LimitedAllocator fails once Limit buffers are outstanding. Release returns a
// delivered buffer to the pool.
type LimitedAllocator struct {
	mu          sync.Mutex
	Limit       int
	outstanding int
	allocs      uint64
	failures    uint64
}

func NewLimitedAllocator(limit int) *LimitedAllocator {
	return &LimitedAllocator{Limit: limit}
}

func (a *LimitedAllocator) Alloc(n int) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.outstanding >= a.Limit {
		a.failures++
		return nil, false
	}
	a.outstanding++
	a.allocs++
	return make([]byte, n), true
}

func (a *LimitedAllocator) Free([]byte) {
	a.Release()
}

func (a *LimitedAllocator) Release() {
	a.mu.Lock()
	if a.outstanding > 0 {
		a.outstanding--
	}
	a.mu.Unlock()
}

func (a *LimitedAllocator) Outstanding() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.outstanding
}

func (a *LimitedAllocator) Stats() (allocs, failures uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocs, a.failures
}

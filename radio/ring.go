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

package radio

import (
	"sync"

	"github.com/pkg/errors"
)

// EntryStatus is the state of one receive ring entry.
type EntryStatus uint8

const (
	EntryPending EntryStatus = iota // free, may be written by the core
	EntryActive                     // being written by the core
	EntryBusy                       // being drained by software
	EntryFinished                   // holds a complete frame
)

func (s EntryStatus) String() string {
	switch s {
	case EntryPending:
		return "pending"
	case EntryActive:
		return "active"
	case EntryBusy:
		return "busy"
	case EntryFinished:
		return "finished"
	default:
		return "INVALID"
	}
}

// RxEntry is one slot of the receive ring. Data holds PHR, PSDU without
// FCS, then the appended RSSI byte and 4-byte little-endian timestamp.
type RxEntry struct {
	Status EntryStatus
	Next   int
	Data   []byte
	Len    int
}

// RxRing is the circular receive queue shared with the radio core. Entries are
// allocated once and reused; only their status changes.
type RxRing struct {
	mu      sync.Mutex
	entries []RxEntry
	curr    int
	write   int
	offset  int
}

// NewRxRing allocates n entries of entrySize bytes each.
func NewRxRing(n int, entrySize int) (*RxRing, error) {
	if n < 1 || entrySize < 1 {
		return nil, errors.Errorf("invalid rx ring geometry %dx%d", n, entrySize)
	}
	r := &RxRing{entries: make([]RxEntry, n)}
	for i := range r.entries {
		r.entries[i] = RxEntry{
			Status: EntryPending,
			Next:   (i + 1) % n,
			Data:   make([]byte, entrySize),
		}
	}
	return r, nil
}

func (r *RxRing) Size() int {
	return len(r.entries)
}

func (r *RxRing) EntrySize() int {
	return len(r.entries[0].Data)
}

// Write copies one received frame into the next pending entry. It is the
// radio core side of the ring and fails when no entry is free or the frame
// does not fit.
func (r *RxRing) Write(frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := &r.entries[r.write]
	if e.Status != EntryPending {
		return errors.Errorf("rx ring full at entry %d (%s)", r.write, e.Status)
	}
	if len(frame) > len(e.Data) {
		return errors.Errorf("frame of %d bytes exceeds entry size %d", len(frame), len(e.Data))
	}
	copy(e.Data, frame)
	e.Len = len(frame)
	e.Status = EntryFinished
	r.write = e.Next
	return nil
}

// Current returns the status of the entry software reads next.
func (r *RxRing) Current() EntryStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[r.curr].Status
}

// Len returns the number of bytes held by the current entry.
func (r *RxRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[r.curr].Len
}

// Rewind resets the read offset into the current entry.
func (r *RxRing) Rewind() {
	r.mu.Lock()
	r.offset = 0
	r.mu.Unlock()
}

// Unread returns how many bytes of the current entry have not been read.
func (r *RxRing) Unread() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[r.curr].Len - r.offset
}

// Read copies len(buf) bytes from the current entry at the read offset.
func (r *RxRing) Read(buf []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := &r.entries[r.curr]
	if r.offset+len(buf) > e.Len {
		return errors.Errorf("rx read of %d at offset %d overruns entry of %d", len(buf), r.offset, e.Len)
	}
	copy(buf, e.Data[r.offset:])
	r.offset += len(buf)
	return nil
}

// Peek returns a copy of n bytes at the read offset without consuming them.
func (r *RxRing) Peek(n int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := &r.entries[r.curr]
	if r.offset+n > e.Len {
		return nil, errors.Errorf("rx peek of %d at offset %d overruns entry of %d", n, r.offset, e.Len)
	}
	return append([]byte(nil), e.Data[r.offset:r.offset+n]...), nil
}

// Skip moves the read offset by n bytes, which may be negative.
func (r *RxRing) Skip(n int) {
	r.mu.Lock()
	r.offset += n
	if r.offset < 0 {
		r.offset = 0
	}
	r.mu.Unlock()
}

// Flush releases the current entry back to the core and advances to the
// next one.
func (r *RxRing) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := &r.entries[r.curr]
	e.Status = EntryPending
	e.Len = 0
	r.curr = e.Next
	r.offset = 0
}

// Reset marks every entry pending, as a queue flush command does.
func (r *RxRing) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		r.entries[i].Status = EntryPending
		r.entries[i].Len = 0
	}
	r.curr, r.write, r.offset = 0, 0, 0
}

// Pending returns the number of entries holding a frame.
func (r *RxRing) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for i := range r.entries {
		if r.entries[i].Status == EntryFinished || r.entries[i].Status == EntryBusy {
			n++
		}
	}
	return n
}

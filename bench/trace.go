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
	"fmt"
	"io"

	"github.com/openthread/ot-rfmac/logger"
	"github.com/openthread/ot-rfmac/types"
)

// DefaultTraceLimit is the number of entries kept; older ones are dropped.
const DefaultTraceLimit = 10000

type TraceEntry struct {
	Time   types.Usec
	What   string
	Detail string
}

func (e TraceEntry) String() string {
	return fmt.Sprintf("%12d %-10s %s", e.Time, e.What, e.Detail)
}

// Trace is the bench event log.
type Trace struct {
	entries []TraceEntry
	limit   int
	dropped int
	out     io.Writer
}

func NewTrace() *Trace {
	return &Trace{limit: DefaultTraceLimit}
}

// SetOutput echoes new entries to w; nil disables the echo.
func (t *Trace) SetOutput(w io.Writer) {
	t.out = w
}

func (t *Trace) Add(now types.Usec, what string, format string, args ...interface{}) {
	e := TraceEntry{Time: now, What: what, Detail: fmt.Sprintf(format, args...)}
	if len(t.entries) >= t.limit {
		t.entries = t.entries[1:]
		t.dropped++
	}
	t.entries = append(t.entries, e)
	logger.Tracef("bench %s", e)
	if t.out != nil {
		_, _ = fmt.Fprintln(t.out, e)
	}
}

func (t *Trace) Entries() []TraceEntry {
	return append([]TraceEntry(nil), t.entries...)
}

// Last returns up to n most recent entries.
func (t *Trace) Last(n int) []TraceEntry {
	if n > len(t.entries) {
		n = len(t.entries)
	}
	return append([]TraceEntry(nil), t.entries[len(t.entries)-n:]...)
}

// Count returns the number of kept entries of the given kind.
func (t *Trace) Count(what string) int {
	n := 0
	for _, e := range t.entries {
		if e.What == what {
			n++
		}
	}
	return n
}

func (t *Trace) Dropped() int {
	return t.dropped
}

func (t *Trace) Clear() {
	t.entries = nil
	t.dropped = 0
}

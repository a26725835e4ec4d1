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

package activity

import (
	"fmt"
	"io"
	"sync"

	"github.com/openthread/ot-rfmac/logger"
	"github.com/openthread/ot-rfmac/types"
)

/*
 * Default consumption values by state of a CC1312R at 3.3V.
 * Consumption in kilowatts, time in microseconds, resulting energy in mJ.
 */
const (
	RadioDisabledConsumption float64 = 0.0000000026 // kilowatts @ i = 0.8 uA
	RadioSleepConsumption    float64 = 0.0000023    // kilowatts @ i = 0.7 mA
	RadioRxConsumption       float64 = 0.0000188    // kilowatts @ i = 5.7 mA
	RadioTxConsumption       float64 = 0.0000815    // kilowatts @ i = 24.7 mA, +14 dBm
)

type RadioStatus struct {
	State         types.RadioStates
	SpentDisabled types.Usec
	SpentSleep    types.Usec
	SpentTx       types.Usec
	SpentRx       types.Usec
	Timestamp     types.Usec
}

// Energy in mJ per radio state.
type Energy struct {
	Disabled float64
	Sleep    float64
	Tx       float64
	Rx       float64
}

func (e Energy) Total() float64 {
	return e.Disabled + e.Sleep + e.Tx + e.Rx
}

// Tracker accumulates time per radio state and counts MAC activity. It
// implements StateObserver, TxObserver and RxObserver.
type Tracker struct {
	mu     sync.Mutex
	radio  RadioStatus
	txs    uint64
	txFail uint64
	rxs    uint64
	preemp uint64
}

func NewTracker(now types.Usec) *Tracker {
	return &Tracker{
		radio: RadioStatus{
			State:     types.RadioDisabled,
			Timestamp: now,
		},
	}
}

func (t *Tracker) computeRadioState(now types.Usec) {
	if now < t.radio.Timestamp {
		logger.Warnf("radio activity time went backwards: %d < %d", now, t.radio.Timestamp)
		t.radio.Timestamp = now
		return
	}
	delta := now - t.radio.Timestamp
	switch t.radio.State {
	case types.RadioDisabled:
		t.radio.SpentDisabled += delta
	case types.RadioSleep:
		t.radio.SpentSleep += delta
	case types.RadioTx:
		t.radio.SpentTx += delta
	case types.RadioRx:
		t.radio.SpentRx += delta
	default:
		logger.Panicf("unknown radio state: %v", t.radio.State)
	}
	t.radio.Timestamp = now
}

func (t *Tracker) RadioState(state types.RadioStates, now types.Usec) {
	t.mu.Lock()
	defer t.mu.Unlock()
	// time spent so far belongs to the previous state
	t.computeRadioState(now)
	t.radio.State = state
}

func (t *Tracker) TxSubmitted(int, bool) {
	t.mu.Lock()
	t.txs++
	t.mu.Unlock()
}

func (t *Tracker) TxFinished(status types.MacStatus, preempted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if status != types.StatusSuccess {
		t.txFail++
	}
	if preempted {
		t.preemp++
	}
}

func (t *Tracker) RxSubmitted() {
	t.mu.Lock()
	t.rxs++
	t.mu.Unlock()
}

func (t *Tracker) RxFinished(preempted bool) {
	if preempted {
		t.mu.Lock()
		t.preemp++
		t.mu.Unlock()
	}
}

// Status returns the time accounting up to now.
func (t *Tracker) Status(now types.Usec) RadioStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.computeRadioState(now)
	return t.radio
}

// Energy returns the consumption up to now.
func (t *Tracker) Energy(now types.Usec) Energy {
	s := t.Status(now)
	return Energy{
		Disabled: float64(s.SpentDisabled) * RadioDisabledConsumption,
		Sleep:    float64(s.SpentSleep) * RadioSleepConsumption,
		Tx:       float64(s.SpentTx) * RadioTxConsumption,
		Rx:       float64(s.SpentRx) * RadioRxConsumption,
	}
}

// Counts returns transmissions submitted, failed, receives submitted and
// preemptions.
func (t *Tracker) Counts() (tx, txFailed, rx, preempted uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.txs, t.txFail, t.rxs, t.preemp
}

// WriteReport writes a tab separated summary of time and energy per state.
func (t *Tracker) WriteReport(w io.Writer, now types.Usec) error {
	s := t.Status(now)
	e := t.Energy(now)
	tx, txFailed, rx, preempted := t.Counts()
	if _, err := fmt.Fprintf(w, "Duration (in milliseconds): %d\n", now/1000); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "State\tTime (ms)\tEnergy (mJ)\n"); err != nil {
		return err
	}
	rows := []struct {
		name  string
		spent types.Usec
		mj    float64
	}{
		{"disabled", s.SpentDisabled, e.Disabled},
		{"sleep", s.SpentSleep, e.Sleep},
		{"rx", s.SpentRx, e.Rx},
		{"tx", s.SpentTx, e.Tx},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s\t%d\t%f\n", r.name, r.spent/1000, r.mj); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "tx %d (failed %d), rx %d, preempted %d\n", tx, txFailed, rx, preempted)
	return err
}

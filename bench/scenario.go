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
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openthread/ot-rfmac/logger"
	"github.com/openthread/ot-rfmac/types"
)

// Step is one scenario action, run once virtual time reaches At. Exactly one
// action field is set.
type Step struct {
	At         types.Usec       `yaml:"at"`
	RxOn       *bool            `yaml:"rx-on,omitempty"`
	Inject     *FrameSpec       `yaml:"inject,omitempty"`
	CrcError   bool             `yaml:"crc-error,omitempty"`
	Transmit   *TxSpec          `yaml:"transmit,omitempty"`
	Stop       *StopSpec        `yaml:"stop,omitempty"`
	Reject     int              `yaml:"reject,omitempty"`
	Channel    *types.ChannelId `yaml:"channel,omitempty"`
	TxPower    *int8            `yaml:"tx-power,omitempty"`
	Wakeup     *types.Usec      `yaml:"wakeup,omitempty"`
	FlushQueue bool             `yaml:"flush-queue,omitempty"`
	Release    bool             `yaml:"release,omitempty"`
}

type StopSpec struct {
	Graceful bool `yaml:"graceful"`
}

func (s *Step) actions() int {
	n := 0
	for _, set := range []bool{
		s.RxOn != nil, s.Inject != nil, s.CrcError, s.Transmit != nil, s.Stop != nil, s.Reject > 0,
		s.Channel != nil, s.TxPower != nil, s.Wakeup != nil, s.FlushQueue, s.Release,
	} {
		if set {
			n++
		}
	}
	return n
}

// Expect lists the counters checked after a scenario; unset fields are not checked.
type Expect struct {
	Delivered    *int           `yaml:"delivered"`
	Lost         *int           `yaml:"lost"`
	AcksSent     *int           `yaml:"acks-sent"`
	AcksReceived *int           `yaml:"acks-received"`
	AcksMissed   *int           `yaml:"acks-missed"`
	Backoffs     *int           `yaml:"backoffs"`
	Wakeups      *int           `yaml:"wakeups"`
	TxDone       map[string]int `yaml:"tx-done"`
}

// Check compares the expectations with s.
func (e *Expect) Check(s Stats) error {
	var bad []string
	check := func(name string, want *int, got int) {
		if want != nil && *want != got {
			bad = append(bad, name+": want "+strconv.Itoa(*want)+", got "+strconv.Itoa(got))
		}
	}
	check("delivered", e.Delivered, s.Delivered)
	check("lost", e.Lost, s.Lost)
	check("acks-sent", e.AcksSent, s.AcksSent)
	check("acks-received", e.AcksReceived, s.AcksReceived)
	check("acks-missed", e.AcksMissed, s.AcksMissed)
	check("backoffs", e.Backoffs, s.Backoffs)
	check("wakeups", e.Wakeups, s.Wakeups)
	names := make([]string, 0, len(e.TxDone))
	for k := range e.TxDone {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		want := e.TxDone[k]
		check("tx-done "+k, &want, s.TxDone[k])
	}
	if len(bad) > 0 {
		return errors.Errorf("unmet expectations: %s", strings.Join(bad, "; "))
	}
	return nil
}

// Scenario is a scripted bench run loaded from YAML.
type Scenario struct {
	Name    string         `yaml:"name"`
	Bench   Config         `yaml:"bench"`
	Traffic *TrafficConfig `yaml:"traffic"`
	Steps   []Step         `yaml:"steps"`
	// Until is the end of the run; the last step time when zero.
	Until  types.Usec `yaml:"until"`
	Expect Expect     `yaml:"expect"`
}

// ParseScenario decodes a scenario over the bench defaults.
func ParseScenario(data []byte) (*Scenario, error) {
	sc := &Scenario{Bench: DefaultConfig()}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, errors.Wrap(err, "parse scenario")
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func LoadScenario(filename string) (*Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, errors.Wrap(err, filename)
	}
	return sc, nil
}

func (sc *Scenario) Validate() error {
	if err := sc.Bench.Validate(); err != nil {
		return err
	}
	for i := range sc.Steps {
		if n := sc.Steps[i].actions(); n != 1 {
			return errors.Errorf("step %d at %d us has %d actions, want 1", i, sc.Steps[i].At, n)
		}
	}
	if sc.Traffic != nil {
		return sc.Traffic.Validate(sc.Bench.Mac.MaxFrameSize)
	}
	return nil
}

// Timeline returns the scripted and generated steps in time order.
func (sc *Scenario) Timeline() []Step {
	steps := append([]Step(nil), sc.Steps...)
	if sc.Traffic != nil {
		steps = append(steps, sc.Traffic.Steps()...)
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].At < steps[j].At })
	return steps
}

// Run plays the scenario on a new bench and checks the expectations. The
// bench is returned for reporting even when the expectations fail.
func (sc *Scenario) Run(setup func(*Bench) error) (*Bench, error) {
	b, err := New(sc.Bench)
	if err != nil {
		return nil, err
	}
	if setup != nil {
		if err := setup(b); err != nil {
			return b, err
		}
	}
	steps := sc.Timeline()
	end := sc.Until
	for _, st := range steps {
		b.RunUntil(st.At)
		b.Apply(st)
		if st.At > end {
			end = st.At
		}
	}
	b.RunUntil(end)
	logger.Infof("scenario %q done at %d us", sc.Name, b.Now())
	return b, sc.Expect.Check(b.Stats())
}

// Apply runs a single step now. Errors from the MAC are traced, not returned:
// a refused request is part of what a scenario exercises.
func (b *Bench) Apply(st Step) {
	var err error
	switch {
	case st.RxOn != nil:
		b.SetRxOnWhenIdle(*st.RxOn)
	case st.Inject != nil:
		b.Inject(*st.Inject)
	case st.CrcError:
		b.InjectCrcError()
	case st.Transmit != nil:
		err = b.Transmit(*st.Transmit)
	case st.Stop != nil:
		err = b.Stop(st.Stop.Graceful)
	case st.Reject > 0:
		b.Reject(st.Reject)
	case st.Channel != nil:
		err = b.SetChannel(*st.Channel)
	case st.TxPower != nil:
		b.SetTxPower(*st.TxPower)
	case st.Wakeup != nil:
		err = b.ScheduleWakeup(*st.Wakeup)
	case st.FlushQueue:
		err = b.FlushQueue()
	case st.Release:
		b.Release()
	}
	if err != nil {
		b.trace.Add(b.now, "error", "%v", err)
	}
}

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

// Package dutycycle accounts transmit airtime over a sliding window and gates
// transmissions against regulatory thresholds.
package dutycycle

import (
	"github.com/pkg/errors"

	"github.com/openthread/ot-rfmac/logger"
	"github.com/openthread/ot-rfmac/types"
)

type Mode uint8

const (
	ModeNormal Mode = iota
	ModeLimited
	ModeCritical
	ModeRegulated
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeLimited:
		return "limited"
	case ModeCritical:
		return "critical"
	case ModeRegulated:
		return "regulated"
	default:
		return "INVALID"
	}
}

// Config of the window. A 1 hour window of 12 buckets with a 10% regulated
// limit matches the ETSI sub-GHz rule.
type Config struct {
	Enabled      bool       `yaml:"enabled"`
	Buckets      int        `yaml:"buckets"`
	BucketPeriod types.Usec `yaml:"bucket-period"`
	Limited      types.Usec `yaml:"limited"`
	Critical     types.Usec `yaml:"critical"`
	Regulated    types.Usec `yaml:"regulated"`
}

const (
	defaultBuckets      = 12
	defaultBucketPeriod = 300 * 1000000
	defaultRegulated    = defaultBuckets * defaultBucketPeriod / 10
)

func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		Buckets:      defaultBuckets,
		BucketPeriod: defaultBucketPeriod,
		Limited:      defaultRegulated * 3 / 4,
		Critical:     defaultRegulated * 9 / 10,
		Regulated:    defaultRegulated,
	}
}

func (cfg *Config) Validate() error {
	if cfg.Buckets < 1 {
		return errors.Errorf("duty cycle needs at least one bucket, got %d", cfg.Buckets)
	}
	if cfg.BucketPeriod == 0 {
		return errors.New("duty cycle bucket period is zero")
	}
	if !(cfg.Limited <= cfg.Critical && cfg.Critical <= cfg.Regulated) {
		return errors.Errorf("duty cycle thresholds not ascending: %d/%d/%d", cfg.Limited, cfg.Critical, cfg.Regulated)
	}
	return nil
}

// Engine is the sliding airtime window. It is not safe for concurrent use;
// the owner serializes access.
type Engine struct {
	cfg      Config
	buckets  []types.Usec
	beacons  []types.Usec
	total    types.Usec
	beaconed types.Usec
	idx      int
	mode     Mode
	recorded bool
	lastTick types.Usec

	coordinator   bool
	beaconEnabled bool

	onChange func(Mode)
}

// New creates an engine in Normal mode. onChange may be nil.
func New(cfg Config, onChange func(Mode)) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:      cfg,
		buckets:  make([]types.Usec, cfg.Buckets),
		beacons:  make([]types.Usec, cfg.Buckets),
		onChange: onChange,
	}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) SetEnabled(enabled bool) {
	e.cfg.Enabled = enabled
}

// SetCoordinator tells the engine whether beacon airtime is exempt.
func (e *Engine) SetCoordinator(panCoordinator bool, beaconEnabled bool) {
	e.coordinator = panCoordinator
	e.beaconEnabled = beaconEnabled
}

func (e *Engine) beaconExempt() bool {
	return e.coordinator && e.beaconEnabled
}

func (e *Engine) adjust(threshold types.Usec) types.Usec {
	if !e.beaconExempt() {
		return threshold
	}
	if e.beaconed >= threshold {
		return 0
	}
	return threshold - e.beaconed
}

// Thresholds returns the limited, critical and regulated thresholds in
// effect, after the beacon adjustment.
func (e *Engine) Thresholds() (limited, critical, regulated types.Usec) {
	return e.adjust(e.cfg.Limited), e.adjust(e.cfg.Critical), e.adjust(e.cfg.Regulated)
}

func (e *Engine) modeFor(total types.Usec) Mode {
	limited, critical, regulated := e.Thresholds()
	switch {
	case total >= regulated:
		return ModeRegulated
	case total >= critical:
		return ModeCritical
	case total >= limited:
		return ModeLimited
	default:
		return ModeNormal
	}
}

func (e *Engine) setMode(m Mode) {
	if m == e.mode {
		return
	}
	logger.Debugf("duty cycle mode %s -> %s, used %d us", e.mode, m, e.total)
	e.mode = m
	if e.onChange != nil {
		e.onChange(m)
	}
}

// RecordTransmission accounts d microseconds of airtime in the current
// bucket. The mode may only rise here.
func (e *Engine) RecordTransmission(d types.Usec) {
	e.recorded = true
	e.buckets[e.idx] += d
	e.total += d
	if m := e.modeFor(e.total); m > e.mode {
		e.setMode(m)
	}
}

// RecordBeacon accounts beacon airtime, which lowers the thresholds while the
// device is a beacon-enabled PAN coordinator.
func (e *Engine) RecordBeacon(d types.Usec) {
	e.beacons[e.idx] += d
	e.beaconed += d
	if !e.recorded {
		return
	}
	if m := e.modeFor(e.total); m > e.mode {
		e.setMode(m)
	}
}

// CheckAllowed reports whether d more microseconds stay below the regulated
// threshold. It allows everything until a transmission has been recorded.
func (e *Engine) CheckAllowed(d types.Usec) bool {
	if !e.cfg.Enabled || !e.recorded {
		return true
	}
	_, _, regulated := e.Thresholds()
	return e.total+d < regulated
}

// AdvanceWindow evicts the oldest bucket and re-evaluates the mode.
func (e *Engine) AdvanceWindow() {
	e.idx = (e.idx + 1) % len(e.buckets)
	e.total -= e.buckets[e.idx]
	e.beaconed -= e.beacons[e.idx]
	e.buckets[e.idx] = 0
	e.beacons[e.idx] = 0
	e.setMode(e.modeFor(e.total))
}

// Tick advances the window by every bucket period elapsed since the previous
// tick and returns how many buckets were evicted.
func (e *Engine) Tick(now types.Usec) int {
	if now < e.lastTick {
		e.lastTick = now
		return 0
	}
	n := int((now - e.lastTick) / e.cfg.BucketPeriod)
	if n > len(e.buckets) {
		e.lastTick += types.Usec(n-len(e.buckets)) * e.cfg.BucketPeriod
		n = len(e.buckets)
	}
	for i := 0; i < n; i++ {
		e.AdvanceWindow()
		e.lastTick += e.cfg.BucketPeriod
	}
	return n
}

// Status is a snapshot of the regulation state.
type Status struct {
	Enabled    bool         `yaml:"enabled"`
	Mode       string       `yaml:"mode"`
	Used       types.Usec   `yaml:"used"`
	BeaconUsed types.Usec   `yaml:"beacon-used"`
	Limited    types.Usec   `yaml:"limited"`
	Critical   types.Usec   `yaml:"critical"`
	Regulated  types.Usec   `yaml:"regulated"`
	Buckets    []types.Usec `yaml:"buckets,flow"`
}

func (e *Engine) Status() Status {
	l, c, r := e.Thresholds()
	return Status{
		Enabled:    e.cfg.Enabled,
		Mode:       e.mode.String(),
		Used:       e.total,
		BeaconUsed: e.beaconed,
		Limited:    l,
		Critical:   c,
		Regulated:  r,
		Buckets:    e.Buckets(),
	}
}

func (e *Engine) Mode() Mode {
	return e.mode
}

// Used returns the airtime accounted in the window.
func (e *Engine) Used() types.Usec {
	return e.total
}

// BeaconUsed returns the beacon airtime accounted in the window.
func (e *Engine) BeaconUsed() types.Usec {
	return e.beaconed
}

// Buckets returns a copy of the bucket contents, oldest first.
func (e *Engine) Buckets() []types.Usec {
	n := len(e.buckets)
	ret := make([]types.Usec, 0, n)
	for i := 1; i <= n; i++ {
		ret = append(ret, e.buckets[(e.idx+i)%n])
	}
	return ret
}

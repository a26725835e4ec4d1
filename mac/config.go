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

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openthread/ot-rfmac/dutycycle"
	"github.com/openthread/ot-rfmac/event"
	"github.com/openthread/ot-rfmac/phy"
	"github.com/openthread/ot-rfmac/types"
)

// RxFilter selects which frame types are dropped at frame start.
type RxFilter uint8

const (
	RxFilterNone RxFilter = iota
	RxFilterAll
	RxFilterNonBeacon
	RxFilterNonCommand
)

var rxFilterNames = []string{"none", "all", "non-beacon", "non-command"}

func (f RxFilter) String() string {
	if int(f) < len(rxFilterNames) {
		return rxFilterNames[f]
	}
	return "INVALID"
}

func (f RxFilter) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *RxFilter) UnmarshalText(text []byte) error {
	s := strings.ToLower(string(text))
	for i, n := range rxFilterNames {
		if n == s {
			*f = RxFilter(i)
			return nil
		}
	}
	return errors.Errorf("unknown rx filter %q", s)
}

// EuiFilterMode selects how the extended source address list is applied.
type EuiFilterMode uint8

const (
	EuiFilterOff EuiFilterMode = iota
	EuiAllowlist
	EuiDenylist
)

var euiFilterNames = []string{"off", "allowlist", "denylist"}

func (m EuiFilterMode) String() string {
	if int(m) < len(euiFilterNames) {
		return euiFilterNames[m]
	}
	return "INVALID"
}

func (m EuiFilterMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *EuiFilterMode) UnmarshalText(text []byte) error {
	s := strings.ToLower(string(text))
	for i, n := range euiFilterNames {
		if n == s {
			*m = EuiFilterMode(i)
			return nil
		}
	}
	return errors.Errorf("unknown EUI filter mode %q", s)
}

const (
	DefaultRejectedBackoff types.Usec = 5000
	DefaultRxRingEntries              = 1
	DefaultTxPowerDbm                 = 14
	maxMinBe                          = 8
)

type Config struct {
	MaxFrameSize    int   `yaml:"max-frame-size"`
	PhyId           uint8 `yaml:"phy-id"`
	SecurityEnabled bool  `yaml:"security-enabled"`
	MinBe           uint8 `yaml:"min-be"`
	// Fcs2 selects the 2-byte FCS for outgoing frames and ACKs.
	Fcs2             bool            `yaml:"fcs2"`
	Promiscuous      bool            `yaml:"promiscuous"`
	RxFilter         RxFilter        `yaml:"rx-filter"`
	FrequencyHopping bool            `yaml:"frequency-hopping"`
	PanCoordinator   bool            `yaml:"pan-coordinator"`
	BeaconEnabled    bool            `yaml:"beacon-enabled"`
	Channel          types.ChannelId `yaml:"channel"`
	TxPowerDbm       int8            `yaml:"tx-power"`

	// RejectedBackoff is the retry delay after the radio core refuses a command.
	RejectedBackoff types.Usec `yaml:"rejected-backoff"`
	TickPeriod      types.Usec `yaml:"tick-period"`
	// AckTimeout of 0 derives the ACK wait from the PHY.
	AckTimeout    types.Usec `yaml:"ack-timeout"`
	RxRingEntries int        `yaml:"rx-ring-entries"`
	MailboxSize   int        `yaml:"mailbox-size"`

	DutyCycle dutycycle.Config `yaml:"duty-cycle"`
}

func DefaultConfig() Config {
	return Config{
		MaxFrameSize:    types.DefaultMaxFrameSize,
		PhyId:           phy.DefaultPhyId,
		MinBe:           3,
		TxPowerDbm:      DefaultTxPowerDbm,
		RejectedBackoff: DefaultRejectedBackoff,
		TickPeriod:      10,
		RxRingEntries:   DefaultRxRingEntries,
		MailboxSize:     event.DefaultMailboxSize,
		DutyCycle:       dutycycle.DefaultConfig(),
	}
}

func (cfg *Config) Validate() error {
	if cfg.MaxFrameSize <= 0 || cfg.MaxFrameSize > types.MaxPhyPacketSize {
		return errors.Errorf("max frame size %d out of range", cfg.MaxFrameSize)
	}
	d, err := phy.Lookup(cfg.PhyId)
	if err != nil {
		return err
	}
	if uint16(cfg.Channel) >= d.NumChannels {
		return errors.Errorf("channel %d out of range for PHY %d", cfg.Channel, cfg.PhyId)
	}
	if cfg.MinBe > maxMinBe {
		return errors.Errorf("min backoff exponent %d out of range", cfg.MinBe)
	}
	if cfg.TickPeriod == 0 {
		return errors.New("tick period must be positive")
	}
	if cfg.RxRingEntries < 1 {
		return errors.Errorf("rx ring needs at least one entry, got %d", cfg.RxRingEntries)
	}
	if cfg.MailboxSize < 1 {
		return errors.Errorf("mailbox size %d out of range", cfg.MailboxSize)
	}
	return errors.Wrap(cfg.DutyCycle.Validate(), "duty cycle")
}

// LoadConfig parses a YAML document over the defaults.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parse mac config")
	}
	return cfg, cfg.Validate()
}

// rxEntrySize is the ring entry size needed for the largest frame: PHR, PSDU
// without FCS, RSSI and timestamp.
func (cfg *Config) rxEntrySize() int {
	return types.PhyPhrLen + cfg.MaxFrameSize + types.RssiFieldLen + types.TimestampFieldLen
}

func (cfg *Config) fcsLen() int {
	if cfg.Fcs2 {
		return types.Fcs2FieldLen
	}
	return types.Fcs4FieldLen
}

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
	"github.com/openthread/ot-rfmac/types"
	"github.com/openthread/ot-rfmac/wpan"
)

const (
	DefaultPanId     types.PanId     = 0xface
	DefaultShortAddr types.ShortAddr = 0x0001
	DefaultPeerAddr  types.ShortAddr = 0x0002
	DefaultPeerRssi  int8            = -60

	// maxStepsPerInstant bounds the work done without virtual time moving.
	maxStepsPerInstant = 1000
)

// PeerConfig describes the simulated neighbor and channel.
type PeerConfig struct {
	ShortAddr types.ShortAddr `yaml:"short-addr"`
	Rssi      int8            `yaml:"rssi"`
	// AckProbability is the chance the peer acknowledges a frame that requests it.
	AckProbability float64 `yaml:"ack-probability"`
	// BusyProbability is the chance a clear channel assessment finds the channel busy.
	BusyProbability float64 `yaml:"busy-probability"`
}

// Config is the bench setup: the MAC under test, its addressing and the peer.
type Config struct {
	Mac          mac.Config      `yaml:"mac"`
	Seed         int64           `yaml:"seed"`
	PanId        types.PanId     `yaml:"pan-id"`
	ShortAddr    types.ShortAddr `yaml:"short-addr"`
	ExtAddr      types.ExtAddr   `yaml:"ext-addr"`
	RxOnWhenIdle bool            `yaml:"rx-on-when-idle"`
	// RxBuffers limits the frame buffers outstanding at the upper layer; 0 means unlimited.
	RxBuffers int        `yaml:"rx-buffers"`
	Peer      PeerConfig `yaml:"peer"`
}

func DefaultConfig() Config {
	return Config{
		Mac:          mac.DefaultConfig(),
		PanId:        DefaultPanId,
		ShortAddr:    DefaultShortAddr,
		ExtAddr:      types.InvalidExtAddr,
		RxOnWhenIdle: true,
		Peer: PeerConfig{
			ShortAddr:      DefaultPeerAddr,
			Rssi:           DefaultPeerRssi,
			AckProbability: 1,
		},
	}
}

func (cfg *Config) Validate() error {
	if err := cfg.Mac.Validate(); err != nil {
		return errors.Wrap(err, "mac")
	}
	for _, p := range []float64{cfg.Peer.AckProbability, cfg.Peer.BusyProbability} {
		if p < 0 || p > 1 {
			return errors.Errorf("probability %v out of range", p)
		}
	}
	if cfg.RxBuffers < 0 {
		return errors.Errorf("rx buffers %d out of range", cfg.RxBuffers)
	}
	if cfg.Peer.ShortAddr == cfg.ShortAddr {
		return errors.Errorf("peer and bench share short address %#04x", cfg.ShortAddr)
	}
	return nil
}

// FrameSpec describes a data frame sent by the peer.
type FrameSpec struct {
	Seq        *uint8           `yaml:"seq"`
	Size       int              `yaml:"size"`
	AckRequest bool             `yaml:"ack-request"`
	Dst        *types.ShortAddr `yaml:"dst"`
	Rssi       *int8            `yaml:"rssi"`
}

// TxSpec describes a data frame sent by the MAC under test to the peer.
type TxSpec struct {
	Seq        *uint8     `yaml:"seq"`
	Size       int        `yaml:"size"`
	AckRequest bool       `yaml:"ack-request"`
	Type       mac.TxType `yaml:"type"`
	Beacon     bool       `yaml:"beacon"`
}

// minDataFrameLen is an intra-PAN short-addressed data MHR.
const minDataFrameLen = types.FcfFieldLen + types.SeqNumFieldLen + types.PanIdFieldLen + 2*types.ShortAddrFieldLen

// dataFrame builds an intra-PAN data frame padded to size.
func dataFrame(seq uint8, size int, ackReq bool, pan types.PanId, dst, src types.ShortAddr) []byte {
	flags := wpan.FcfPanIdCompression
	if ackReq {
		flags |= wpan.FcfAckRequest
	}
	h := wpan.Header{
		FrameControl: wpan.MakeFrameControl(wpan.FrameTypeData, wpan.FrameVersion2015, wpan.AddrModeShort, wpan.AddrModeShort, flags),
		Seq:          seq,
		DstPanId:     pan,
		Dst:          wpan.ShortAddress(dst),
		Src:          wpan.ShortAddress(src),
	}
	psdu := h.Encode()
	for len(psdu) < size {
		psdu = append(psdu, byte(len(psdu)))
	}
	return psdu
}

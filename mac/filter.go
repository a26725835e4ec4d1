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
	"github.com/openthread/ot-rfmac/types"
	"github.com/openthread/ot-rfmac/wpan"
)

// FrameFilter holds the local addressing used to accept incoming frames and
// the per-source tables consulted during the address stage.
type FrameFilter struct {
	PanId     types.PanId
	ShortAddr types.ShortAddr
	ExtAddr   types.ExtAddr
	EuiMode   EuiFilterMode

	euis    map[types.ExtAddr]struct{}
	pending map[wpan.Address]struct{}
}

func newFrameFilter() FrameFilter {
	return FrameFilter{
		PanId:     types.BroadcastPanId,
		ShortAddr: types.NoShortAddr,
		ExtAddr:   types.InvalidExtAddr,
		euis:      map[types.ExtAddr]struct{}{},
		pending:   map[wpan.Address]struct{}{},
	}
}

// matchDst applies PAN id and destination address filtering. The destination
// PAN id of a compressed frame must already be resolved.
func (f *FrameFilter) matchDst(a *wpan.AddrFields, fc wpan.FrameControl) bool {
	if fc.DestAddrMode() == wpan.AddrModeNone {
		if fc.SourceAddrMode() == wpan.AddrModeNone && fc.PanidCompression() {
			return f.matchPan(a.DstPanId)
		}
		return true
	}
	if !f.matchPan(a.DstPanId) {
		return false
	}
	if a.Dst.Mode == wpan.AddrModeExtended {
		return a.Dst.Ext == f.ExtAddr
	}
	return a.Dst.Short == f.ShortAddr || a.Dst.Short == types.BroadcastShortAddr
}

func (f *FrameFilter) matchPan(pan types.PanId) bool {
	return pan == f.PanId || pan == types.BroadcastPanId
}

// matchEui applies the allow/deny list to an extended source address.
func (f *FrameFilter) matchEui(src wpan.Address) bool {
	if src.Mode != wpan.AddrModeExtended {
		return true
	}
	_, listed := f.euis[src.Ext]
	switch f.EuiMode {
	case EuiAllowlist:
		return listed
	case EuiDenylist:
		return !listed
	default:
		return true
	}
}

// framePending reports whether an ACK to src should carry the frame pending bit.
func (f *FrameFilter) framePending(src wpan.Address) bool {
	_, ok := f.pending[src]
	return ok
}

func (f *FrameFilter) clone() FrameFilter {
	c := *f
	c.euis = make(map[types.ExtAddr]struct{}, len(f.euis))
	for k := range f.euis {
		c.euis[k] = struct{}{}
	}
	c.pending = make(map[wpan.Address]struct{}, len(f.pending))
	for k := range f.pending {
		c.pending[k] = struct{}{}
	}
	return c
}

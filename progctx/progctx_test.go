// Copyright (c) 2020-2026, The OTNS Authors.
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

package progctx

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var _ context.Context = New(context.Background())
	ctx := New(nil) // nolint
	assert.NoError(t, ctx.Err())
}

func TestCancelOnce(t *testing.T) {
	ctx := New(context.Background())
	var order []int
	ctx.Defer(func() { order = append(order, 1) })
	ctx.Defer(func() { order = append(order, 2) })

	first := errors.New("first")
	ctx.Cancel(first)
	ctx.Cancel(errors.New("second"))
	<-ctx.Done()
	assert.Equal(t, context.Canceled, ctx.Err())
	assert.Equal(t, first, ctx.Cause())
	assert.Equal(t, []int{2, 1}, order)
	assert.Panics(t, func() { ctx.Defer(func() {}) })
}

func TestCancelNil(t *testing.T) {
	ctx := New(context.Background())
	ctx.Cancel(nil)
	<-ctx.Done()
	assert.NoError(t, ctx.Cause())
}

func TestGoErrorCancels(t *testing.T) {
	ctx := New(context.Background())
	ctx.Go("worker", func(*ProgCtx) error {
		return errors.New("boom")
	})
	ctx.Go("waiter", func(ctx *ProgCtx) error {
		<-ctx.Done()
		return nil
	})
	ctx.Wait()
	require.Error(t, ctx.Cause())
	assert.Contains(t, ctx.Cause().Error(), "routine worker: boom")
	assert.Equal(t, 0, ctx.WaitCount())
}

func TestGoPanicCancels(t *testing.T) {
	ctx := New(context.Background())
	ctx.Go("bad", func(*ProgCtx) error {
		panic("oops")
	})
	ctx.Wait()
	assert.Contains(t, ctx.Cause().Error(), "panicked: oops")
}

func TestWaitDoneUnknownPanics(t *testing.T) {
	ctx := New(context.Background())
	assert.Panics(t, func() { ctx.WaitDone("missing") })
}

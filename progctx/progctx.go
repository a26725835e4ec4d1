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

// Package progctx manages the lifetime of the bench program and its routines.
package progctx

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"github.com/pkg/errors"

	"github.com/openthread/ot-rfmac/logger"
)

// ProgCtx is a cancellable context that tracks named routines and runs
// deferred cleanups once on cancellation.
type ProgCtx struct {
	context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	routines map[string]int
	deferred []func()
	cause    error
}

func New(parent context.Context) *ProgCtx {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &ProgCtx{
		Context:  ctx,
		cancel:   cancel,
		routines: map[string]int{},
	}
}

// Cancel stops the program. Only the first call has an effect; err may be nil
// for a regular exit.
func (ctx *ProgCtx) Cancel(err error) {
	ctx.mu.Lock()
	if ctx.Err() != nil {
		ctx.mu.Unlock()
		return
	}
	ctx.cancel()
	ctx.cause = err
	deferred := ctx.deferred
	ctx.deferred = nil
	ctx.mu.Unlock()

	if err != nil {
		logger.TraceError("program exit: %v", err)
	} else {
		logger.Infof("program exit")
	}
	for i := len(deferred) - 1; i >= 0; i-- {
		deferred[i]()
	}
}

// Cause returns the error passed to the first Cancel.
func (ctx *ProgCtx) Cause() error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.cause
}

// Defer registers f to run when the context is cancelled, last registered
// first.
func (ctx *ProgCtx) Defer(f func()) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.Err() != nil {
		panic(errors.New("Defer called after the program context is done"))
	}
	ctx.deferred = append(ctx.deferred, f)
}

// Go runs fn as a tracked routine. A panic or error in fn cancels the context.
func (ctx *ProgCtx) Go(name string, fn func(ctx *ProgCtx) error) {
	ctx.WaitAdd(name, 1)
	go func() {
		defer ctx.WaitDone(name)
		defer func() {
			if r := recover(); r != nil {
				ctx.Cancel(errors.Errorf("routine %s panicked: %v", name, r))
			}
		}()
		if err := fn(ctx); err != nil {
			ctx.Cancel(errors.Wrapf(err, "routine %s", name))
		}
	}()
}

// CancelOnSignal cancels the context when one of sigs arrives.
func (ctx *ProgCtx) CancelOnSignal(sigs ...os.Signal) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	ctx.Go("signal", func(ctx *ProgCtx) error {
		defer signal.Stop(ch)
		select {
		case s := <-ch:
			logger.Infof("received signal %v", s)
			ctx.Cancel(nil)
		case <-ctx.Done():
		}
		return nil
	})
}

func (ctx *ProgCtx) WaitAdd(name string, delta int) {
	ctx.mu.Lock()
	ctx.routines[name] += delta
	ctx.mu.Unlock()
	ctx.wg.Add(delta)
}

func (ctx *ProgCtx) WaitDone(name string) {
	ctx.mu.Lock()
	if ctx.routines[name] <= 0 {
		ctx.mu.Unlock()
		logger.Panicf("routine %s is not running", name)
	}
	ctx.routines[name]--
	ctx.mu.Unlock()
	ctx.wg.Done()
}

// WaitCount returns the number of routines still running.
func (ctx *ProgCtx) WaitCount() int {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	total := 0
	for _, c := range ctx.routines {
		total += c
	}
	return total
}

func (ctx *ProgCtx) Wait() {
	ctx.mu.Lock()
	logger.Debugf("waiting for routines: %v", ctx.routines)
	ctx.mu.Unlock()
	ctx.wg.Wait()
}

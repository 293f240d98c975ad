// Copyright (c) 2021 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package router

import (
	"github.com/opentracing/opentracing-go"
	"github.com/uber-go/tally"
	"go.uber.org/thriftrelay/internal/clock"
	"go.uber.org/zap"
)

// Option describes a func that can modify Router options.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(opts *options) { f(opts) }

// options represents the combined options supplied by the user.
type options struct {
	logger *zap.Logger
	scope  tally.Scope
	clock  clock.Clock
	tracer opentracing.Tracer
}

// Logger specifies the logger that should be used to log.
func Logger(logger *zap.Logger) Option {
	return optionFunc(func(opts *options) {
		opts.logger = logger
	})
}

// Scope specifies the metrics scope routing outcomes are recorded to.
func Scope(scope tally.Scope) Option {
	return optionFunc(func(opts *options) {
		opts.scope = scope
	})
}

// WithClock specifies the time source used for latency accounting. Intended
// for tests.
func WithClock(c clock.Clock) Option {
	return optionFunc(func(opts *options) {
		opts.clock = c
	})
}

// Tracer specifies an opentracing tracer; when set, the Router reports one
// client span per upstream request.
func Tracer(tracer opentracing.Tracer) Option {
	return optionFunc(func(opts *options) {
		opts.tracer = tracer
	})
}

// applyOptions creates new options based on the given option list.
func applyOptions(opts ...Option) options {
	options := options{
		logger: zap.NewNop(),
		scope:  tally.NoopScope,
		clock:  clock.NewReal(),
	}
	for _, opt := range opts {
		opt.apply(&options)
	}
	return options
}

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

package routertest

import (
	"bytes"

	"go.uber.org/thriftrelay/api/health"
	"go.uber.org/thriftrelay/api/pool"
)

// FakePool is a scriptable connection pool. An asynchronous pool records the
// acquisition's callbacks and returns a cancellable handle; the test then
// delivers the outcome with DeliverReady or DeliverFailure. A synchronous
// pool (Sync set) delivers the scripted outcome from inside NewConnection.
type FakePool struct {
	// Sync makes NewConnection deliver the outcome synchronously.
	Sync bool

	// Conn and Host are delivered on DeliverReady (or synchronously).
	Conn *FakeConn
	Host *FakeHost

	// FailureReason is delivered instead when Fail is set.
	Fail          bool
	FailureReason pool.FailureReason

	// FailureHost, which may be nil, accompanies a failure delivery.
	FailureHost *FakeHost

	// Acquisitions counts NewConnection calls; Cancelled counts handle
	// cancellations.
	Acquisitions int
	Cancelled    int

	pending pool.Callbacks
}

var _ pool.Pool = (*FakePool)(nil)

// NewConnection implements pool.Pool.
func (p *FakePool) NewConnection(cb pool.Callbacks) pool.Cancellable {
	p.Acquisitions++
	if p.Sync {
		p.deliver(cb)
		return nil
	}
	p.pending = cb
	return fakeCancellable{pool: p}
}

// DeliverReady completes a pending acquisition with the scripted connection.
func (p *FakePool) DeliverReady() {
	cb := p.pending
	p.pending = nil
	cb.OnPoolReady(p.Conn, p.Host)
}

// DeliverFailure completes a pending acquisition with the scripted failure.
func (p *FakePool) DeliverFailure() {
	cb := p.pending
	p.pending = nil
	var host pool.Host
	if p.FailureHost != nil {
		host = p.FailureHost
	}
	cb.OnPoolFailure(p.FailureReason, host)
}

// Pending reports whether an acquisition is awaiting delivery.
func (p *FakePool) Pending() bool { return p.pending != nil }

func (p *FakePool) deliver(cb pool.Callbacks) {
	if p.Fail {
		var host pool.Host
		if p.FailureHost != nil {
			host = p.FailureHost
		}
		cb.OnPoolFailure(p.FailureReason, host)
		return
	}
	cb.OnPoolReady(p.Conn, p.Host)
}

type fakeCancellable struct {
	pool *FakePool
}

func (c fakeCancellable) Cancel() {
	c.pool.Cancelled++
	c.pool.pending = nil
}

// FakeConn is a scriptable pooled connection that records writes and its
// release disposition.
type FakeConn struct {
	// Written accumulates all bytes written to the connection.
	Written bytes.Buffer

	// WriteErr, when set, is returned by every Write.
	WriteErr error

	// Closed and Released record how the borrow ended.
	Closed   bool
	Released bool

	// Callbacks is whatever was last attached.
	Callbacks pool.UpstreamCallbacks

	state interface{}
}

var _ pool.Conn = (*FakeConn)(nil)

// Write implements pool.Conn.
func (c *FakeConn) Write(b []byte) error {
	if c.WriteErr != nil {
		return c.WriteErr
	}
	c.Written.Write(b)
	return nil
}

// Close implements pool.Conn.
func (c *FakeConn) Close() { c.Closed = true }

// Release implements pool.Conn.
func (c *FakeConn) Release() { c.Released = true }

// AttachCallbacks implements pool.Conn.
func (c *FakeConn) AttachCallbacks(cb pool.UpstreamCallbacks) { c.Callbacks = cb }

// State implements pool.Conn.
func (c *FakeConn) State() interface{} { return c.state }

// SetState implements pool.Conn.
func (c *FakeConn) SetState(s interface{}) { c.state = s }

// FakeHost is a host description backed by a recording outlier sink.
type FakeHost struct {
	Addr string
	Sink *FakeSink
}

var _ pool.Host = (*FakeHost)(nil)

// NewFakeHost builds a host with a fresh recording sink.
func NewFakeHost(addr string) *FakeHost {
	return &FakeHost{Addr: addr, Sink: &FakeSink{}}
}

// Address implements pool.Host.
func (h *FakeHost) Address() string { return h.Addr }

// Outlier implements pool.Host.
func (h *FakeHost) Outlier() health.Sink { return h.Sink }

// FakeSink records every health result reported against a host.
type FakeSink struct {
	Results []health.Result
}

var _ health.Sink = (*FakeSink)(nil)

// PutResult implements health.Sink.
func (s *FakeSink) PutResult(r health.Result) {
	s.Results = append(s.Results, r)
}

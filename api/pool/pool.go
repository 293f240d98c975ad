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

// Package pool declares the upstream connection-pool contract consumed by
// the routing core. Pool implementations own connection establishment,
// reuse, eviction, and health; the core only borrows connections for the
// duration of one request.
package pool

import "go.uber.org/thriftrelay/api/health"

// FailureReason explains why a connection acquisition failed.
type FailureReason int

const (
	// Overflow means the pool is at its connection or pending-request limit.
	Overflow FailureReason = iota

	// LocalConnectionFailure means the connection was torn down locally
	// before it was ready.
	LocalConnectionFailure

	// RemoteConnectionFailure means the remote host refused or dropped the
	// connection.
	RemoteConnectionFailure

	// Timeout means the connection attempt timed out.
	Timeout
)

func (r FailureReason) String() string {
	switch r {
	case Overflow:
		return "overflow"
	case LocalConnectionFailure:
		return "local connection failure"
	case RemoteConnectionFailure:
		return "remote connection failure"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ConnectionEvent is a lifecycle event on an established connection.
type ConnectionEvent int

const (
	// RemoteClose means the remote end closed the connection.
	RemoteClose ConnectionEvent = iota

	// LocalClose means this end closed the connection.
	LocalClose
)

// Host describes the upstream host a connection was (or would have been)
// established to.
type Host interface {
	// Address is the host's address in host:port form.
	Address() string

	// Outlier is the health-signaling sink for this host.
	Outlier() health.Sink
}

// Conn is an established pooled connection, borrowed by exactly one request
// at a time. The borrower returns it by dropping its reference after the
// request completes, or closes it to take it out of circulation.
type Conn interface {
	// Write transmits bytes on the connection.
	Write(b []byte) error

	// Close tears the connection down without flushing and takes it out of
	// circulation. Close is terminal for the borrow: no further events are
	// delivered to the attached callbacks once it returns.
	Close()

	// Release returns the borrowed connection to the pool for reuse and
	// detaches the callbacks. The borrower must not use the connection
	// afterwards.
	Release()

	// AttachCallbacks registers the borrower for data and lifecycle events.
	AttachCallbacks(UpstreamCallbacks)

	// State returns the opaque per-connection state blob, nil if none has
	// been set.
	State() interface{}

	// SetState attaches an opaque per-connection state blob. Its lifetime is
	// the connection's.
	SetState(interface{})
}

// UpstreamCallbacks receives data and lifecycle events for a borrowed
// connection. Events are delivered into the owning session's cooperative
// context; no delivery happens after the borrow is released.
type UpstreamCallbacks interface {
	// OnUpstreamData is invoked when response bytes arrive. endStream means
	// no further bytes will follow.
	OnUpstreamData(data []byte, endStream bool)

	// OnEvent is invoked when the connection closes.
	OnEvent(ConnectionEvent)
}

// Callbacks receives the outcome of one connection acquisition. Exactly one
// of the two methods is invoked per acquisition, unless the acquisition is
// cancelled first.
type Callbacks interface {
	// OnPoolReady delivers a ready connection and the host it reaches.
	OnPoolReady(conn Conn, host Host)

	// OnPoolFailure reports a failed acquisition. host identifies the
	// selected host if one had been chosen, and may be nil.
	OnPoolFailure(reason FailureReason, host Host)
}

// Cancellable is a handle to a pending acquisition.
type Cancellable interface {
	// Cancel withdraws the acquisition. No callback fires after Cancel
	// returns.
	Cancel()
}

// Pool hands out connections to the hosts of one cluster.
type Pool interface {
	// NewConnection requests a connection. If one is immediately available,
	// the callbacks are invoked synchronously and NewConnection returns nil.
	// Otherwise it returns a handle for the pending acquisition and the
	// callbacks are invoked later, exactly once.
	NewConnection(cb Callbacks) Cancellable
}

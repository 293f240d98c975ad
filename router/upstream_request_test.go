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
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/thriftrelay/api/codec"
	"go.uber.org/thriftrelay/api/pool"
	"go.uber.org/thriftrelay/api/session"
	"go.uber.org/thriftrelay/api/thrift"
	"go.uber.org/thriftrelay/routertest"
)

func TestUpgradeHandshake(t *testing.T) {
	f := newFixture(t, fixtureConfig{upgrade: true})
	f.session.Protocol = thrift.ProtocolTwitter
	f.router = New(
		f.resolver,
		f.session,
		routertest.Factories(thrift.TransportFramed, thrift.ProtocolTwitter, true),
		Scope(f.scope),
		WithClock(f.clock),
	)

	// The handshake suspends the call until the upgrade response arrives.
	status := f.router.CallBegin(callMetadata("add"))
	assert.Equal(t, session.StopIteration, status)
	assert.Equal(t, "upgrade-request", f.conn.Written.String())
	assert.Equal(t, 0, f.session.ContinueCount)

	f.conn.Callbacks.OnUpstreamData([]byte("U"), false)
	assert.Equal(t, 1, f.session.ContinueCount, "pipeline resumes after the handshake")

	state, ok := f.conn.State().(*codec.ConnState)
	require.True(t, ok)
	attempted, accepted := state.Upgraded()
	assert.True(t, attempted)
	assert.True(t, accepted)

	f.router.CallData([]byte("payload"))
	f.router.CallEnd()
	assert.Equal(t, "upgrade-requestframe[add](begin[add seq=0]payload)", f.conn.Written.String())

	f.conn.Callbacks.OnUpstreamData([]byte("response"), false)
	assert.True(t, f.conn.Released)
}

func TestUpgradeRunsOncePerConnection(t *testing.T) {
	f := newFixture(t, fixtureConfig{upgrade: true})
	f.session.Protocol = thrift.ProtocolTwitter
	f.router = New(
		f.resolver,
		f.session,
		routertest.Factories(thrift.TransportFramed, thrift.ProtocolTwitter, true),
		Scope(f.scope),
		WithClock(f.clock),
	)

	// First call performs the handshake.
	require.Equal(t, session.StopIteration, f.router.CallBegin(callMetadata("add")))
	f.conn.Callbacks.OnUpstreamData([]byte("U"), false)
	f.router.CallEnd()
	f.conn.Callbacks.OnUpstreamData([]byte("response"), false)
	require.True(t, f.conn.Released)

	// The second call on the same connection skips it.
	f.conn.Written.Reset()
	f.conn.Released = false
	status := f.router.CallBegin(callMetadata("sub"))
	assert.Equal(t, session.Continue, status)
	f.router.CallEnd()

	written := f.conn.Written.String()
	assert.False(t, strings.Contains(written, "upgrade-request"))
	assert.Contains(t, written, "seq=1", "sequence IDs continue across the handshake boundary")
}

func TestUpgradeRejectionRecorded(t *testing.T) {
	f := newFixture(t, fixtureConfig{upgrade: true})
	f.session.Protocol = thrift.ProtocolTwitter
	f.router = New(
		f.resolver,
		f.session,
		routertest.Factories(thrift.TransportFramed, thrift.ProtocolTwitter, true),
		Scope(f.scope),
		WithClock(f.clock),
	)

	require.Equal(t, session.StopIteration, f.router.CallBegin(callMetadata("add")))

	// An incomplete response keeps the handshake pending.
	f.conn.Callbacks.OnUpstreamData(nil, false)
	assert.Equal(t, 0, f.session.ContinueCount)

	// A non-acceptance byte completes the handshake as rejected.
	f.conn.Callbacks.OnUpstreamData([]byte("X"), false)
	assert.Equal(t, 1, f.session.ContinueCount)

	state := f.conn.State().(*codec.ConnState)
	attempted, accepted := state.Upgraded()
	assert.True(t, attempted)
	assert.False(t, accepted)
}

func TestUpgradeWriteFailure(t *testing.T) {
	f := newFixture(t, fixtureConfig{upgrade: true})
	f.session.Protocol = thrift.ProtocolTwitter
	f.conn.WriteErr = errors.New("broken pipe")
	f.router = New(
		f.resolver,
		f.session,
		routertest.Factories(thrift.TransportFramed, thrift.ProtocolTwitter, true),
		Scope(f.scope),
		WithClock(f.clock),
	)

	f.router.CallBegin(callMetadata("add"))

	require.Len(t, f.session.LocalReplies, 1)
	assert.Contains(t, f.session.LocalReplies[0].Err.Message(), "10.0.0.1:9090")
	assert.True(t, f.conn.Closed)
}

func TestAsyncUpgradeResumesOnlyAfterHandshake(t *testing.T) {
	f := newFixture(t, fixtureConfig{upgrade: true, asyncPool: true})
	f.session.Protocol = thrift.ProtocolTwitter
	f.router = New(
		f.resolver,
		f.session,
		routertest.Factories(thrift.TransportFramed, thrift.ProtocolTwitter, true),
		Scope(f.scope),
		WithClock(f.clock),
	)

	require.Equal(t, session.StopIteration, f.router.CallBegin(callMetadata("add")))
	f.pool.DeliverReady()
	assert.Equal(t, "upgrade-request", f.conn.Written.String())
	assert.Equal(t, 0, f.session.ContinueCount,
		"the connection alone must not resume the pipeline while upgrading")

	f.conn.Callbacks.OnUpstreamData([]byte("U"), false)
	assert.Equal(t, 1, f.session.ContinueCount)
}

func TestNoTimingChargedBeforeRequestComplete(t *testing.T) {
	f := newFixture(t, fixtureConfig{})

	require.Equal(t, session.Continue, f.router.CallBegin(callMetadata("add")))
	// The upstream drops the connection before the request finished sending.
	f.conn.Callbacks.OnEvent(pool.RemoteClose)

	require.Len(t, f.session.LocalReplies, 1)
	assert.Empty(t, f.timerValues(t, "upstream_rq_time+cluster=C1"),
		"latency must not be charged for a request that never completed")
}

func TestOnDestroyClosesBorrowedConnection(t *testing.T) {
	f := newFixture(t, fixtureConfig{})

	require.Equal(t, session.Continue, f.router.CallBegin(callMetadata("add")))
	f.router.CallEnd()

	f.router.OnDestroy()
	assert.True(t, f.conn.Closed)

	// Destroy is idempotent once the request is gone.
	f.router.OnDestroy()
}

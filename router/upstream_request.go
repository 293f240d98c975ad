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
	"time"

	"go.uber.org/atomic"
	"go.uber.org/thriftrelay/api/codec"
	"go.uber.org/thriftrelay/api/health"
	"go.uber.org/thriftrelay/api/pool"
	"go.uber.org/thriftrelay/api/session"
	"go.uber.org/thriftrelay/api/thrift"
	"go.uber.org/thriftrelay/apperror"
	"go.uber.org/zap"
)

var _ pool.Callbacks = (*upstreamRequest)(nil)

// upstreamRequest owns the lifecycle of one outstanding call on its upstream
// leg: connection acquisition, the optional upgrade handshake, request
// transmission, response tracking, latency timing, and failure translation.
//
// At most one of poolHandle and conn is set at any time: either an
// acquisition is pending, or a connection has been borrowed.
type upstreamRequest struct {
	parent   *Router
	connPool pool.Pool
	metadata *thrift.MessageMetadata

	transport codec.Transport
	protocol  codec.Protocol
	obs       clusterObserver

	poolHandle      pool.Cancellable
	conn            pool.Conn
	connState       *codec.ConnState
	upstreamHost    pool.Host
	upgradeResponse codec.UpgradeResponse

	requestCompleteTime   time.Time
	requestComplete       bool
	responseStarted       bool
	responseComplete      bool
	chargedResponseTiming atomic.Bool
}

func newUpstreamRequest(
	parent *Router,
	connPool pool.Pool,
	metadata *thrift.MessageMetadata,
	transport codec.Transport,
	protocol codec.Protocol,
	obs clusterObserver,
) *upstreamRequest {
	return &upstreamRequest{
		parent:    parent,
		connPool:  connPool,
		metadata:  metadata,
		transport: transport,
		protocol:  protocol,
		obs:       obs,
	}
}

// start asks the pool for a connection. A pending acquisition, a pending
// upgrade handshake, and a synchronously failed acquisition all suspend the
// decode pipeline; only a synchronously ready connection lets it continue.
func (ur *upstreamRequest) start() session.FilterStatus {
	if handle := ur.connPool.NewConnection(ur); handle != nil {
		// Pause while we wait for a connection.
		ur.poolHandle = handle
		return session.StopIteration
	}

	if ur.upgradeResponse != nil {
		// Pause while we wait for an upgrade response.
		return session.StopIteration
	}

	if ur.upstreamHost == nil {
		// The synchronous acquisition failed; failure handling already ran.
		return session.StopIteration
	}

	return session.Continue
}

// OnPoolFailure translates a failed acquisition into a reset, so failure
// handling has a single code path with upstream-initiated resets.
func (ur *upstreamRequest) OnPoolFailure(reason pool.FailureReason, host pool.Host) {
	ur.poolHandle = nil
	ur.upstreamHost = host
	ur.onResetStream(reason)
}

// OnPoolReady takes ownership of the borrowed connection, initializes the
// per-connection protocol state, and either begins the upgrade handshake or
// proceeds straight to request transmission.
func (ur *upstreamRequest) OnPoolReady(conn pool.Conn, host pool.Host) {
	// Only resume decoding if we'd previously suspended the pipeline.
	resume := ur.poolHandle != nil

	ur.upstreamHost = host
	host.Outlier().PutResult(health.LocalOriginConnectSuccess)

	ur.conn = conn
	ur.conn.AttachCallbacks(ur.parent)
	ur.poolHandle = nil

	// The sequence counter must survive this request: it is attached to the
	// connection, and lazily created on first use.
	if state, ok := conn.State().(*codec.ConnState); ok {
		ur.connState = state
	} else {
		ur.connState = codec.NewConnState()
		conn.SetState(ur.connState)
	}

	if ur.protocol.SupportsUpgrade() {
		ur.upgradeResponse = ur.protocol.AttemptUpgrade(ur.transport, ur.connState, &ur.parent.requestBuffer)
		if ur.upgradeResponse != nil {
			ur.parent.requestSize += ur.parent.requestBuffer.Len()
			if err := ur.conn.Write(ur.parent.requestBuffer.Bytes()); err != nil {
				ur.parent.logger.Debug("upgrade request write failed", zap.Error(err))
				ur.upgradeResponse = nil
				ur.onResetStream(pool.RemoteConnectionFailure)
				ur.releaseConnection(true)
				return
			}
			ur.parent.requestBuffer.Reset()
			return
		}
	}

	ur.onRequestStart(resume)
}

// onRequestStart binds the output codec to the request buffer, assigns the
// connection's next sequence ID, and re-emits the call's envelope. resume
// restarts a decode pipeline that was suspended awaiting the connection.
func (ur *upstreamRequest) onRequestStart(resume bool) {
	ur.metadata.SequenceID = ur.connState.NextSequenceID()
	if err := ur.protocol.WriteMessageBegin(&ur.parent.requestBuffer, ur.metadata); err != nil {
		ur.parent.logger.Error("message envelope encoding failed", zap.Error(err))
		ur.onResetStream(pool.LocalConnectionFailure)
		ur.releaseConnection(true)
		return
	}

	if resume {
		ur.parent.callbacks.ContinueDecoding()
	}
}

// onRequestComplete captures the request-complete timestamp for latency
// accounting.
func (ur *upstreamRequest) onRequestComplete() {
	ur.requestCompleteTime = ur.parent.clock.Now()
	ur.requestComplete = true
}

// onResponseComplete finalizes latency timing and returns the borrowed
// connection to the pool.
func (ur *upstreamRequest) onResponseComplete() {
	ur.chargeResponseTiming()
	ur.responseComplete = true
	ur.connState = nil
	if conn := ur.conn; conn != nil {
		ur.conn = nil
		conn.Release()
	}
}

// releaseConnection cancels any pending acquisition and drops the borrowed
// connection, force-closing it only when close is set. Close events already
// tore the socket down, so event-driven releases pass close=false.
func (ur *upstreamRequest) releaseConnection(close bool) {
	if ur.poolHandle != nil {
		ur.poolHandle.Cancel()
		ur.poolHandle = nil
	}

	ur.connState = nil

	// The close below may fire an event that reaches back into this request,
	// so the reference is cleared first.
	conn := ur.conn
	ur.conn = nil
	if conn != nil {
		if close {
			conn.Close()
		} else {
			conn.Release()
		}
	}
}

func (ur *upstreamRequest) resetStream() {
	ur.releaseConnection(true)
}

// onResetStream translates a connection failure into the caller-visible
// outcome: a synthesized application reply when one is still possible, or a
// forced downstream termination when it is not.
func (ur *upstreamRequest) onResetStream(reason pool.FailureReason) {
	if ur.metadata.MessageType == thrift.MessageTypeOneway {
		// The protocol permits no reply to a oneway call; resetting the
		// downstream connection is the only way to signal the failure.
		ur.parent.callbacks.ResetDownstreamConnection()
		ur.parent.failSpan()
		return
	}

	ur.chargeResponseTiming()
	ur.parent.failSpan()

	switch reason {
	case pool.Overflow:
		ur.parent.callbacks.SendLocalReply(
			apperror.New(apperror.TypeInternalError, "upstream request: too many connections"),
			true)
	case pool.LocalConnectionFailure:
		ur.putOutlierResult(health.LocalOriginConnectFailed)
		// Only happens when this end closed the connection on an error
		// condition, in which case any possible downstream response was
		// already handled.
		ur.parent.callbacks.ResetDownstreamConnection()
	case pool.RemoteConnectionFailure, pool.Timeout:
		if reason == pool.Timeout {
			ur.putOutlierResult(health.LocalOriginTimeout)
		} else {
			ur.putOutlierResult(health.LocalOriginConnectFailed)
		}

		if !ur.responseStarted {
			host := "to upstream"
			if ur.upstreamHost != nil {
				host = ur.upstreamHost.Address()
			}
			ur.parent.callbacks.SendLocalReply(
				apperror.Newf(apperror.TypeInternalError, "connection failure %q", host),
				true)
			return
		}

		// The failure landed after a partial response was already relayed;
		// a half-delivered response cannot be salvaged.
		ur.parent.callbacks.ResetDownstreamConnection()
	}
}

// chargeResponseTiming records the request-to-response latency at most once
// per request, and only after the request was fully transmitted.
func (ur *upstreamRequest) chargeResponseTiming() {
	if !ur.requestComplete || !ur.chargedResponseTiming.CAS(false, true) {
		return
	}
	ur.obs.rqTime.Record(ur.parent.clock.Now().Sub(ur.requestCompleteTime))
}

func (ur *upstreamRequest) putOutlierResult(result health.Result) {
	if ur.upstreamHost != nil {
		ur.upstreamHost.Outlier().PutResult(result)
	}
}

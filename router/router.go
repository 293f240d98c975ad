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

// Package router implements the per-call orchestration of the proxy: it
// consumes a resolved route, looks the destination cluster up, acquires a
// pooled upstream connection, forwards the re-encoded call, and relays the
// response (or a translated failure) back to the downstream caller.
//
// A Router serializes all call handling for one downstream session. The
// modeled protocol is call-at-a-time, so at most one upstream request is in
// flight per Router; parallelism comes from running many sessions, each with
// its own Router.
package router

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"go.uber.org/thriftrelay/api/cluster"
	"go.uber.org/thriftrelay/api/codec"
	"go.uber.org/thriftrelay/api/health"
	"go.uber.org/thriftrelay/api/pool"
	"go.uber.org/thriftrelay/api/session"
	"go.uber.org/thriftrelay/api/thrift"
	"go.uber.org/thriftrelay/apperror"
	"go.uber.org/thriftrelay/internal/bufferpool"
	"go.uber.org/thriftrelay/internal/clock"
	"go.uber.org/thriftrelay/route"
	"go.uber.org/zap"
)

var _ pool.UpstreamCallbacks = (*Router)(nil)

// Router drives one downstream session's calls to their upstream clusters.
type Router struct {
	resolver  cluster.Resolver
	callbacks session.Callbacks
	factories codec.Factories
	logger    *zap.Logger
	observer  *observer
	clock     clock.Clock
	tracer    opentracing.Tracer

	// Per-call state, reset at the start of each call.
	route                route.ResolvedRoute
	passthroughSupported bool
	requestBuffer        bytes.Buffer
	responseBuffer       bytes.Buffer
	requestSize          int
	responseSize         int
	upstreamRequest      *upstreamRequest
	span                 opentracing.Span
}

// New builds a Router for one downstream session.
func New(resolver cluster.Resolver, callbacks session.Callbacks, factories codec.Factories, opts ...Option) *Router {
	o := applyOptions(opts...)
	return &Router{
		resolver:  resolver,
		callbacks: callbacks,
		factories: factories,
		logger:    o.logger,
		observer:  newObserver(o.scope),
		clock:     o.clock,
		tracer:    o.tracer,
	}
}

// PassthroughSupported reports whether the current call's payload may be
// copied between the downstream and upstream legs without re-encoding. It is
// purely an optimization hint; correctness never depends on it.
func (r *Router) PassthroughSupported() bool {
	return r.passthroughSupported
}

// CallBegin handles the decoded envelope of a new call: it consumes the
// session's resolved route, resolves the cluster, and starts connection
// acquisition. StopIteration suspends the decode pipeline until the
// connection (and any upgrade handshake) is ready.
func (r *Router) CallBegin(md *thrift.MessageMetadata) session.FilterStatus {
	r.resetCallState()

	r.route = r.callbacks.Route()
	if r.route == nil {
		r.logger.Debug("no route match", zap.String("method", md.MethodName))
		r.observer.routeMissing.Inc(1)
		r.callbacks.SendLocalReply(
			apperror.Newf(apperror.TypeUnknownMethod, "no route for method %q", md.MethodName),
			true)
		return session.StopIteration
	}

	clusterName := r.route.ClusterName()
	dest, ok := r.resolver.Lookup(clusterName)
	if !ok {
		r.logger.Debug("unknown cluster", zap.String("cluster", clusterName))
		r.observer.unknownCluster.Inc(1)
		r.callbacks.SendLocalReply(
			apperror.Newf(apperror.TypeInternalError, "unknown cluster %q", clusterName),
			true)
		return session.StopIteration
	}

	r.logger.Debug("cluster match",
		zap.String("cluster", clusterName),
		zap.String("method", md.MethodName),
	)
	obs := r.observer.cluster(clusterName)
	switch md.MessageType {
	case thrift.MessageTypeCall:
		obs.rqCall.Inc(1)
	case thrift.MessageTypeOneway:
		obs.rqOneway.Inc(1)
	default:
		obs.rqInvalidType.Inc(1)
	}

	if dest.MaintenanceMode() {
		r.observer.maintenanceMode.Inc(1)
		r.callbacks.SendLocalReply(
			apperror.Newf(apperror.TypeInternalError, "maintenance mode for cluster %q", clusterName),
			true)
		return session.StopIteration
	}

	transportType := r.callbacks.DownstreamTransportType()
	protocolType := r.callbacks.DownstreamProtocolType()
	if opts := dest.ProtocolOptions(); opts != nil {
		transportType = opts.Transport(transportType)
		protocolType = opts.Protocol(protocolType)
	}
	// Auto-detection must be resolved before the forwarding stage; reaching
	// it here means the surrounding pipeline is broken.
	if transportType == thrift.TransportAuto {
		panic("thriftrelay: unresolved auto transport at forwarding stage")
	}
	if protocolType == thrift.ProtocolAuto {
		panic("thriftrelay: unresolved auto protocol at forwarding stage")
	}

	r.passthroughSupported = r.callbacks.DownstreamTransportType() == thrift.TransportFramed &&
		transportType == thrift.TransportFramed &&
		r.callbacks.DownstreamProtocolType() == protocolType &&
		protocolType != thrift.ProtocolTwitter

	connPool, ok := dest.ConnPool(cluster.Default, r.route.MetadataMatchCriteria())
	if !ok {
		r.observer.noHealthyUpstream.Inc(1)
		r.callbacks.SendLocalReply(
			apperror.Newf(apperror.TypeInternalError, "no healthy upstream for %q", clusterName),
			true)
		return session.StopIteration
	}

	if r.route.StripServiceName() {
		if idx := strings.Index(md.MethodName, ":"); idx >= 0 {
			md.SetMethodName(md.MethodName[idx+1:])
		}
	}

	if r.tracer != nil {
		r.span = r.tracer.StartSpan("thriftrelay.upstream", ext.SpanKindRPCClient)
		ext.PeerService.Set(r.span, clusterName)
		r.span.SetTag("thrift.method", md.MethodName)
	}

	transport, ok := r.factories.NewTransport(transportType)
	if !ok {
		panic(fmt.Sprintf("thriftrelay: no transport factory registered for %v", transportType))
	}
	protocol, ok := r.factories.NewProtocol(protocolType)
	if !ok {
		panic(fmt.Sprintf("thriftrelay: no protocol factory registered for %v", protocolType))
	}

	r.upstreamRequest = newUpstreamRequest(r, connPool, md, transport, protocol, obs)
	return r.upstreamRequest.start()
}

// CallData stages re-encoded call bytes for upstream transmission.
func (r *Router) CallData(b []byte) {
	r.requestBuffer.Write(b)
}

// CallEnd handles the end of the downstream call: it frames and transmits
// the staged request bytes, and for fire-and-forget calls completes the
// whole exchange immediately.
func (r *Router) CallEnd() session.FilterStatus {
	ur := r.upstreamRequest

	frame := bufferpool.Get()
	defer bufferpool.Put(frame)

	ur.metadata.Protocol = ur.protocol.Type()
	if err := ur.transport.EncodeFrame(frame, ur.metadata, &r.requestBuffer); err != nil {
		r.logger.Error("request frame encoding failed", zap.Error(err))
		ur.onResetStream(pool.LocalConnectionFailure)
		ur.releaseConnection(true)
		r.cleanup()
		return session.Continue
	}

	r.requestSize += frame.Len()
	ur.obs.rqSize.RecordValue(float64(r.requestSize))

	if err := ur.conn.Write(frame.Bytes()); err != nil {
		r.logger.Debug("upstream write failed", zap.Error(err))
		ur.onResetStream(pool.RemoteConnectionFailure)
		ur.releaseConnection(true)
		r.cleanup()
		return session.Continue
	}

	ur.onRequestComplete()

	if ur.metadata.MessageType == thrift.MessageTypeOneway {
		// No response expected.
		ur.onResponseComplete()
		r.cleanup()
	}
	return session.Continue
}

// OnUpstreamData receives response bytes from the borrowed upstream
// connection. It feeds an outstanding upgrade handshake first; otherwise the
// bytes are response payload relayed to the downstream caller.
func (r *Router) OnUpstreamData(data []byte, endStream bool) {
	ur := r.upstreamRequest
	if ur == nil || ur.responseComplete {
		panic("thriftrelay: upstream data after response completion")
	}

	r.responseSize += len(data)
	r.responseBuffer.Write(data)

	if ur.upgradeResponse != nil {
		r.logger.Debug("reading upgrade response", zap.Int("bytes", len(data)))
		if !ur.upgradeResponse.OnData(&r.responseBuffer) {
			// Wait for more data.
			return
		}

		r.logger.Debug("upgrade response complete")
		ur.protocol.CompleteUpgrade(ur.connState, ur.upgradeResponse)
		ur.upgradeResponse = nil
		ur.onRequestStart(true)
	} else {
		r.logger.Debug("reading response", zap.Int("bytes", len(data)))

		if !ur.responseStarted {
			r.callbacks.StartUpstreamResponse(ur.transport, ur.protocol)
			ur.responseStarted = true
		}

		switch r.callbacks.UpstreamData(&r.responseBuffer) {
		case session.Complete:
			r.logger.Debug("response complete")
			ur.obs.respSize.RecordValue(float64(r.responseSize))

			switch r.callbacks.ResponseMetadata().MessageType {
			case thrift.MessageTypeReply:
				ur.obs.respReply.Inc(1)
				if r.callbacks.ResponseSuccess() {
					ur.putOutlierResult(health.ExtOriginRequestSuccess)
					ur.obs.respReplySuccess.Inc(1)
				} else {
					ur.putOutlierResult(health.ExtOriginRequestFailed)
					ur.obs.respReplyError.Inc(1)
					r.failSpan()
				}
			case thrift.MessageTypeException:
				ur.putOutlierResult(health.ExtOriginRequestFailed)
				ur.obs.respException.Inc(1)
				r.failSpan()
			default:
				ur.obs.respInvalidType.Inc(1)
				r.failSpan()
			}
			ur.onResponseComplete()
			r.cleanup()
			return
		case session.Reset:
			// Invalid responses are not accounted in the response size
			// histogram.
			r.logger.Debug("upstream reset")
			ur.putOutlierResult(health.ExtOriginRequestFailed)
			ur.resetStream()
			// Closing the borrow delivers no event, so the local-close
			// handling runs inline. The response already started, which
			// makes a synthesized reply impossible; the downstream
			// connection is torn down instead.
			ur.onResetStream(pool.LocalConnectionFailure)
			r.cleanup()
			return
		}
	}

	if endStream {
		// Response is incomplete, but no more data is coming.
		r.logger.Debug("response underflow")
		ur.onResponseComplete()
		ur.onResetStream(pool.RemoteConnectionFailure)
		r.cleanup()
	}
}

// OnEvent receives lifecycle events for the borrowed upstream connection.
// Both close directions translate into a reset; the event already tore the
// socket down, so the borrow is released without forcing a close.
func (r *Router) OnEvent(event pool.ConnectionEvent) {
	ur := r.upstreamRequest
	if ur == nil || ur.responseComplete {
		panic("thriftrelay: connection event after response completion")
	}

	switch event {
	case pool.RemoteClose:
		r.logger.Debug("upstream remote close")
		ur.onResetStream(pool.RemoteConnectionFailure)
	case pool.LocalClose:
		r.logger.Debug("upstream local close")
		ur.onResetStream(pool.LocalConnectionFailure)
	}

	ur.releaseConnection(false)
}

// OnDestroy tears the Router down with its session. Any live upstream
// request is force-reset so no pooled-connection borrow survives.
func (r *Router) OnDestroy() {
	if r.upstreamRequest != nil {
		r.upstreamRequest.resetStream()
		r.cleanup()
	}
}

// cleanup drops ownership of the current upstream request, making the Router
// ready for the next call.
func (r *Router) cleanup() {
	r.upstreamRequest = nil
	if r.span != nil {
		r.span.Finish()
		r.span = nil
	}
}

func (r *Router) resetCallState() {
	r.route = nil
	r.passthroughSupported = false
	r.requestBuffer.Reset()
	r.responseBuffer.Reset()
	r.requestSize = 0
	r.responseSize = 0
}

func (r *Router) failSpan() {
	if r.span != nil {
		ext.Error.Set(r.span, true)
	}
}

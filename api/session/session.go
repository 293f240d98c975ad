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

// Package session declares the contract between the routing core and the
// downstream session that hosts it. The session owns protocol decoding for
// the caller's connection and delivers decoded call events into the Router;
// the Router reaches back through Callbacks to reply, relay response bytes,
// and control decode flow.
package session

import (
	"bytes"

	"go.uber.org/thriftrelay/api/codec"
	"go.uber.org/thriftrelay/api/thrift"
	"go.uber.org/thriftrelay/apperror"
	"go.uber.org/thriftrelay/route"
)

// FilterStatus tells the session's decode pipeline whether to keep going.
type FilterStatus int

const (
	// Continue lets the pipeline proceed to the next event.
	Continue FilterStatus = iota

	// StopIteration suspends the pipeline until the Router resumes it via
	// Callbacks.ContinueDecoding.
	StopIteration
)

// ResponseStatus is the outcome of feeding upstream response bytes to the
// session's response decoder.
type ResponseStatus int

const (
	// MoreData means the response is incomplete; wait for more bytes.
	MoreData ResponseStatus = iota

	// Complete means a full response message was decoded and relayed.
	Complete

	// Reset means the response was malformed and the stream must be reset.
	Reset
)

// Callbacks is the downstream session surface the Router drives. All methods
// are invoked from the session's own cooperative context.
type Callbacks interface {
	// Route returns the route resolved for the current call, or nil when no
	// rule matched. The session resolves the route once per call, so
	// decisions may be cached earlier in the pipeline.
	Route() route.ResolvedRoute

	// DownstreamTransportType is the transport negotiated with the caller.
	// Never TransportAuto by the time the Router runs.
	DownstreamTransportType() thrift.TransportType

	// DownstreamProtocolType is the protocol negotiated with the caller.
	// Never ProtocolAuto by the time the Router runs.
	DownstreamProtocolType() thrift.ProtocolType

	// SendLocalReply responds to the caller with an application exception
	// synthesized locally. endStream completes the exchange.
	SendLocalReply(err *apperror.Error, endStream bool)

	// ContinueDecoding resumes a pipeline previously suspended with
	// StopIteration.
	ContinueDecoding()

	// ResetDownstreamConnection force-terminates the caller's connection.
	// Used when a reply is impossible: oneway failures and half-delivered
	// responses.
	ResetDownstreamConnection()

	// StartUpstreamResponse arms the session's response decoder with the
	// upstream leg's codecs before the first response byte is relayed.
	StartUpstreamResponse(transport codec.Transport, protocol codec.Protocol)

	// UpstreamData feeds upstream response bytes through the response
	// decoder toward the caller, consuming what it uses from buf.
	UpstreamData(buf *bytes.Buffer) ResponseStatus

	// ResponseMetadata returns the decoded envelope of the response, valid
	// once UpstreamData has returned Complete.
	ResponseMetadata() *thrift.MessageMetadata

	// ResponseSuccess reports whether a decoded reply carries a successful
	// result, valid once UpstreamData has returned Complete.
	ResponseSuccess() bool
}

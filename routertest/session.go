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

	"go.uber.org/thriftrelay/api/codec"
	"go.uber.org/thriftrelay/api/session"
	"go.uber.org/thriftrelay/api/thrift"
	"go.uber.org/thriftrelay/apperror"
	"go.uber.org/thriftrelay/route"
)

// LocalReply records one SendLocalReply invocation.
type LocalReply struct {
	Err       *apperror.Error
	EndStream bool
}

// FakeSession is a scriptable downstream session.
type FakeSession struct {
	// RouteResult is returned by Route. nil simulates an unroutable call.
	RouteResult route.ResolvedRoute

	// Transport and Protocol are the downstream-negotiated types.
	Transport thrift.TransportType
	Protocol  thrift.ProtocolType

	// UpstreamDataFunc scripts the response decoder. When nil, UpstreamData
	// consumes everything and reports Complete.
	UpstreamDataFunc func(buf *bytes.Buffer) session.ResponseStatus

	// ResponseMD and ResponseOK script the decoded response envelope.
	ResponseMD *thrift.MessageMetadata
	ResponseOK bool

	// Recorded interactions.
	LocalReplies     []LocalReply
	ContinueCount    int
	DownstreamResets int
	ResponseStarts   int
	StartedTransport codec.Transport
	StartedProtocol  codec.Protocol
	RelayedBytes     int
}

var _ session.Callbacks = (*FakeSession)(nil)

// Route implements session.Callbacks.
func (s *FakeSession) Route() route.ResolvedRoute { return s.RouteResult }

// DownstreamTransportType implements session.Callbacks.
func (s *FakeSession) DownstreamTransportType() thrift.TransportType { return s.Transport }

// DownstreamProtocolType implements session.Callbacks.
func (s *FakeSession) DownstreamProtocolType() thrift.ProtocolType { return s.Protocol }

// SendLocalReply implements session.Callbacks.
func (s *FakeSession) SendLocalReply(err *apperror.Error, endStream bool) {
	s.LocalReplies = append(s.LocalReplies, LocalReply{Err: err, EndStream: endStream})
}

// ContinueDecoding implements session.Callbacks.
func (s *FakeSession) ContinueDecoding() { s.ContinueCount++ }

// ResetDownstreamConnection implements session.Callbacks.
func (s *FakeSession) ResetDownstreamConnection() { s.DownstreamResets++ }

// StartUpstreamResponse implements session.Callbacks.
func (s *FakeSession) StartUpstreamResponse(transport codec.Transport, protocol codec.Protocol) {
	s.ResponseStarts++
	s.StartedTransport = transport
	s.StartedProtocol = protocol
}

// UpstreamData implements session.Callbacks.
func (s *FakeSession) UpstreamData(buf *bytes.Buffer) session.ResponseStatus {
	if s.UpstreamDataFunc != nil {
		return s.UpstreamDataFunc(buf)
	}
	s.RelayedBytes += buf.Len()
	buf.Reset()
	return session.Complete
}

// ResponseMetadata implements session.Callbacks.
func (s *FakeSession) ResponseMetadata() *thrift.MessageMetadata { return s.ResponseMD }

// ResponseSuccess implements session.Callbacks.
func (s *FakeSession) ResponseSuccess() bool { return s.ResponseOK }

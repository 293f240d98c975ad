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

// Package codec declares the transport- and protocol-codec contracts the
// routing core consumes. The actual wire formats live outside the core;
// implementations of these interfaces frame and serialize single Thrift
// messages and, where supported, negotiate a once-per-connection upgrade
// handshake.
package codec

import (
	"bytes"

	"go.uber.org/thriftrelay/api/thrift"
)

// Transport frames a single encoded message for the wire.
type Transport interface {
	// Type identifies the framing variant. Never TransportAuto.
	Type() thrift.TransportType

	// EncodeFrame wraps the encoded message body in transport framing and
	// appends the result to dst. The body buffer is drained.
	EncodeFrame(dst *bytes.Buffer, md *thrift.MessageMetadata, body *bytes.Buffer) error
}

// Protocol serializes message envelopes and, where the variant supports it,
// drives the upgrade handshake.
type Protocol interface {
	// Type identifies the serialization variant. Never ProtocolAuto.
	Type() thrift.ProtocolType

	// WriteMessageBegin appends the message envelope for md to dst. The
	// message body is staged separately by the caller.
	WriteMessageBegin(dst *bytes.Buffer, md *thrift.MessageMetadata) error

	// SupportsUpgrade reports whether this protocol performs a
	// once-per-connection upgrade handshake before ordinary messages.
	SupportsUpgrade() bool

	// AttemptUpgrade begins the upgrade handshake on a freshly acquired
	// connection. When an upgrade is required, it replaces the contents of
	// buf with the encoded upgrade request and returns a parser for the
	// upgrade response; the caller transmits buf and suspends until response
	// bytes arrive. When no upgrade is required (already negotiated on this
	// connection, or not applicable), it returns nil and buf is untouched.
	AttemptUpgrade(transport Transport, state *ConnState, buf *bytes.Buffer) UpgradeResponse

	// CompleteUpgrade consumes a complete upgrade response and records the
	// negotiated outcome on the connection state.
	CompleteUpgrade(state *ConnState, response UpgradeResponse)
}

// UpgradeResponse incrementally parses an upgrade-handshake response.
type UpgradeResponse interface {
	// OnData consumes available response bytes from buf. It returns true
	// once the response is complete; false means more bytes are needed.
	OnData(buf *bytes.Buffer) bool
}

// ConnState is the protocol state attached to one pooled upstream
// connection. Its lifetime is the connection's, not any single request's:
// sequence IDs stay monotonic across all requests that reuse the connection,
// and the upgrade handshake outcome is remembered so it runs at most once.
type ConnState struct {
	nextSequenceID int32
	upgraded       *bool
}

// NewConnState returns connection state with sequence IDs starting at zero.
func NewConnState() *ConnState {
	return &ConnState{}
}

// NextSequenceID returns the next sequence ID for the connection. Sequence
// IDs wrap around rather than going negative.
func (s *ConnState) NextSequenceID() int32 {
	id := s.nextSequenceID
	s.nextSequenceID++
	if s.nextSequenceID < 0 {
		s.nextSequenceID = 0
	}
	return id
}

// Upgraded reports the upgrade handshake outcome: whether it was attempted,
// and if so whether the peer accepted.
func (s *ConnState) Upgraded() (attempted, accepted bool) {
	if s.upgraded == nil {
		return false, false
	}
	return true, *s.upgraded
}

// SetUpgraded records the upgrade handshake outcome.
func (s *ConnState) SetUpgraded(accepted bool) {
	s.upgraded = &accepted
}

// TransportFactory constructs a Transport instance.
type TransportFactory func() Transport

// ProtocolFactory constructs a Protocol instance.
type ProtocolFactory func() Protocol

// Factories maps transport and protocol types to their constructors. The
// routing core receives this mapping explicitly at construction; there is no
// process-wide registry.
type Factories struct {
	Transports map[thrift.TransportType]TransportFactory
	Protocols  map[thrift.ProtocolType]ProtocolFactory
}

// NewTransport builds a transport of the given type, or false if no factory
// is registered for it.
func (f Factories) NewTransport(t thrift.TransportType) (Transport, bool) {
	factory, ok := f.Transports[t]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// NewProtocol builds a protocol of the given type, or false if no factory is
// registered for it.
func (f Factories) NewProtocol(p thrift.ProtocolType) (Protocol, bool) {
	factory, ok := f.Protocols[p]
	if !ok {
		return nil, false
	}
	return factory(), true
}

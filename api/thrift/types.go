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

package thrift

// TransportType identifies a Thrift transport (framing) variant.
type TransportType int

// Supported transport types. TransportAuto is only valid during downstream
// negotiation; it must be resolved to a concrete transport before any message
// is forwarded upstream.
const (
	TransportAuto TransportType = iota
	TransportFramed
	TransportUnframed
	TransportHeader
)

func (t TransportType) String() string {
	switch t {
	case TransportAuto:
		return "auto"
	case TransportFramed:
		return "framed"
	case TransportUnframed:
		return "unframed"
	case TransportHeader:
		return "header"
	default:
		return "unknown"
	}
}

// ProtocolType identifies a Thrift protocol (serialization) variant.
type ProtocolType int

// Supported protocol types. ProtocolAuto is only valid during downstream
// negotiation. ProtocolTwitter is the variant that requires an upgrade
// handshake and special envelope handling, which disqualifies it from
// passthrough forwarding.
const (
	ProtocolAuto ProtocolType = iota
	ProtocolBinary
	ProtocolLaxBinary
	ProtocolCompact
	ProtocolTwitter
)

func (p ProtocolType) String() string {
	switch p {
	case ProtocolAuto:
		return "auto"
	case ProtocolBinary:
		return "binary"
	case ProtocolLaxBinary:
		return "binary/non-strict"
	case ProtocolCompact:
		return "compact"
	case ProtocolTwitter:
		return "twitter"
	default:
		return "unknown"
	}
}

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

import "fmt"

// MessageType is the type of a decoded Thrift message.
type MessageType int

// Message types, numbered per the Thrift wire protocol.
const (
	// MessageTypeCall is a request that expects a response.
	MessageTypeCall MessageType = 1

	// MessageTypeReply is a response to a call, successful or carrying an
	// in-band application error.
	MessageTypeReply MessageType = 2

	// MessageTypeException is an out-of-band application exception raised in
	// place of a reply.
	MessageTypeException MessageType = 3

	// MessageTypeOneway is a fire-and-forget request: the caller expects no
	// response of any kind.
	MessageTypeOneway MessageType = 4
)

func (m MessageType) String() string {
	switch m {
	case MessageTypeCall:
		return "call"
	case MessageTypeReply:
		return "reply"
	case MessageTypeException:
		return "exception"
	case MessageTypeOneway:
		return "oneway"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// MessageMetadata is the decoded envelope of one Thrift message. It is
// produced by the surrounding protocol-decoding layer and consumed, and
// partially rewritten, by the routing core: the method name may be stripped
// of its service prefix, the sequence ID is renumbered per upstream
// connection, and the protocol tag is set to the upstream protocol before
// re-encoding.
type MessageMetadata struct {
	// MethodName is the name of the method being invoked, optionally
	// prefixed with "Service:" in multiplexed deployments.
	MethodName string

	// HasMethodName reports whether a method name was decoded at all.
	// Replies on some protocols omit it.
	HasMethodName bool

	// SequenceID correlates a response with its request on one connection.
	SequenceID int32

	// MessageType is the kind of message decoded.
	MessageType MessageType

	// Headers carries transport-level headers, when the transport supports
	// them.
	Headers Headers

	// Protocol is the protocol the message is (or will be) encoded with.
	Protocol ProtocolType

	// AppException reports, for replies, whether the response carries an
	// in-band application error rather than a successful result.
	AppException bool
}

// SetMethodName replaces the method name and marks it present.
func (m *MessageMetadata) SetMethodName(name string) {
	m.MethodName = name
	m.HasMethodName = true
}

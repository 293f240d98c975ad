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
	"fmt"

	"go.uber.org/thriftrelay/api/codec"
	"go.uber.org/thriftrelay/api/thrift"
)

// FakeTransport frames messages with a readable textual wrapper so tests can
// assert on what reached the wire.
type FakeTransport struct {
	TransportType thrift.TransportType

	// EncodeErr, when set, is returned by EncodeFrame.
	EncodeErr error
}

var _ codec.Transport = (*FakeTransport)(nil)

// Type implements codec.Transport.
func (t *FakeTransport) Type() thrift.TransportType { return t.TransportType }

// EncodeFrame implements codec.Transport.
func (t *FakeTransport) EncodeFrame(dst *bytes.Buffer, md *thrift.MessageMetadata, body *bytes.Buffer) error {
	if t.EncodeErr != nil {
		return t.EncodeErr
	}
	fmt.Fprintf(dst, "frame[%s](", md.MethodName)
	dst.Write(body.Bytes())
	body.Reset()
	dst.WriteString(")")
	return nil
}

// FakeProtocol writes readable textual envelopes and supports a scriptable
// upgrade handshake.
type FakeProtocol struct {
	ProtocolType thrift.ProtocolType

	// Upgrade makes the protocol attempt an upgrade handshake once per
	// connection.
	Upgrade bool

	// UpgradeCompleted counts CompleteUpgrade invocations.
	UpgradeCompleted int
}

var _ codec.Protocol = (*FakeProtocol)(nil)

// Type implements codec.Protocol.
func (p *FakeProtocol) Type() thrift.ProtocolType { return p.ProtocolType }

// WriteMessageBegin implements codec.Protocol.
func (p *FakeProtocol) WriteMessageBegin(dst *bytes.Buffer, md *thrift.MessageMetadata) error {
	fmt.Fprintf(dst, "begin[%s seq=%d]", md.MethodName, md.SequenceID)
	return nil
}

// SupportsUpgrade implements codec.Protocol.
func (p *FakeProtocol) SupportsUpgrade() bool { return p.Upgrade }

// AttemptUpgrade implements codec.Protocol.
func (p *FakeProtocol) AttemptUpgrade(_ codec.Transport, state *codec.ConnState, buf *bytes.Buffer) codec.UpgradeResponse {
	if attempted, _ := state.Upgraded(); attempted {
		return nil
	}
	buf.Reset()
	buf.WriteString("upgrade-request")
	return &FakeUpgradeResponse{}
}

// CompleteUpgrade implements codec.Protocol.
func (p *FakeProtocol) CompleteUpgrade(state *codec.ConnState, response codec.UpgradeResponse) {
	state.SetUpgraded(response.(*FakeUpgradeResponse).Accepted)
	p.UpgradeCompleted++
}

// FakeUpgradeResponse treats the byte 'U' as a complete upgrade response.
type FakeUpgradeResponse struct {
	Accepted bool
}

var _ codec.UpgradeResponse = (*FakeUpgradeResponse)(nil)

// OnData implements codec.UpgradeResponse.
func (u *FakeUpgradeResponse) OnData(buf *bytes.Buffer) bool {
	if buf.Len() == 0 {
		return false
	}
	b, _ := buf.ReadByte()
	u.Accepted = b == 'U'
	return true
}

// Factories builds a codec.Factories registry producing fake codecs of the
// given types.
func Factories(transportType thrift.TransportType, protocolType thrift.ProtocolType, upgrade bool) codec.Factories {
	return codec.Factories{
		Transports: map[thrift.TransportType]codec.TransportFactory{
			transportType: func() codec.Transport {
				return &FakeTransport{TransportType: transportType}
			},
		},
		Protocols: map[thrift.ProtocolType]codec.ProtocolFactory{
			protocolType: func() codec.Protocol {
				return &FakeProtocol{ProtocolType: protocolType, Upgrade: upgrade}
			},
		},
	}
}

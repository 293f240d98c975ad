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

// Package health declares the host health-signaling contract. The routing
// core reports per-host request outcomes into a Sink; an external outlier
// detector consumes them to eject misbehaving hosts.
package health

// Result is one observed outcome for a host.
type Result int

const (
	// LocalOriginConnectSuccess is reported when a pooled connection to the
	// host becomes ready.
	LocalOriginConnectSuccess Result = iota

	// LocalOriginConnectFailed is reported when connecting to the host
	// fails, or the connection is torn down locally mid-request.
	LocalOriginConnectFailed

	// LocalOriginTimeout is reported when connection acquisition times out.
	LocalOriginTimeout

	// ExtOriginRequestSuccess is reported when the host returns a successful
	// reply.
	ExtOriginRequestSuccess

	// ExtOriginRequestFailed is reported when the host returns an error
	// reply or exception, or resets the stream.
	ExtOriginRequestFailed
)

// Sink accepts outcome events for one host.
type Sink interface {
	PutResult(Result)
}

// NopSink is a Sink that discards all results.
type NopSink struct{}

// PutResult implements Sink.
func (NopSink) PutResult(Result) {}

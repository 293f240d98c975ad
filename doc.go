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

// Package thriftrelay provides the request-routing core of a Thrift RPC
// proxy.
//
// A proxy embedding this module terminates downstream Thrift connections,
// decodes each call's envelope, and hands the call to this routing core. The
// core matches the call against an ordered route table (package route), looks
// the destination cluster up, borrows a pooled upstream connection, forwards
// the re-encoded call, and relays the response back, translating connection
// failures into application-level error replies where the protocol allows
// one (package router).
//
// The module deliberately owns neither sockets nor wire formats: connection
// pooling, host selection, and codec implementations plug in through the
// interfaces under api/. Route tables load from YAML via package relayconfig,
// and package routertest provides fakes for testing components against the
// core's contracts.
package thriftrelay

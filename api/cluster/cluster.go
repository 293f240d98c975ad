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

// Package cluster declares the cluster-membership contract consumed by the
// routing core. Cluster discovery, host membership, and in-cluster load
// balancing live outside the core.
package cluster

import (
	"go.uber.org/thriftrelay/api/pool"
	"go.uber.org/thriftrelay/api/thrift"
	"go.uber.org/thriftrelay/route"
)

// Priority is the resource priority a connection is acquired at.
type Priority int

const (
	// Default priority for ordinary request traffic.
	Default Priority = iota

	// High priority for traffic that should survive default-priority
	// resource exhaustion.
	High
)

// ProtocolOptions are cluster-level overrides of the downstream-negotiated
// transport and protocol for the upstream leg.
type ProtocolOptions interface {
	// Transport returns the transport to use upstream, given the
	// downstream-negotiated one.
	Transport(downstream thrift.TransportType) thrift.TransportType

	// Protocol returns the protocol to use upstream, given the
	// downstream-negotiated one.
	Protocol(downstream thrift.ProtocolType) thrift.ProtocolType
}

// Cluster is a handle on one named cluster.
type Cluster interface {
	// Name returns the cluster's configured name.
	Name() string

	// MaintenanceMode reports whether the cluster is refusing traffic for
	// maintenance. Calls routed to such a cluster fail locally without any
	// upstream contact.
	MaintenanceMode() bool

	// ProtocolOptions returns the cluster's transport/protocol overrides,
	// nil when none are configured.
	ProtocolOptions() ProtocolOptions

	// ConnPool returns a connection pool for the cluster's hosts, honoring
	// the given priority and load-balancing metadata criteria. It returns
	// false when the cluster has no healthy host to pool connections for.
	ConnPool(priority Priority, criteria *route.MetadataMatchCriteria) (pool.Pool, bool)
}

// Resolver looks up clusters by name.
type Resolver interface {
	// Lookup returns the named cluster, or false when no such cluster is
	// known.
	Lookup(name string) (Cluster, bool)
}

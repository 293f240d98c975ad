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
	"go.uber.org/thriftrelay/api/cluster"
	"go.uber.org/thriftrelay/api/pool"
	"go.uber.org/thriftrelay/api/thrift"
	"go.uber.org/thriftrelay/route"
)

// FakeResolver resolves clusters from a fixed map.
type FakeResolver struct {
	Clusters map[string]*FakeCluster

	// Lookups records every name looked up, in order.
	Lookups []string
}

var _ cluster.Resolver = (*FakeResolver)(nil)

// NewFakeResolver builds a resolver over the given clusters.
func NewFakeResolver(clusters ...*FakeCluster) *FakeResolver {
	r := &FakeResolver{Clusters: make(map[string]*FakeCluster, len(clusters))}
	for _, c := range clusters {
		r.Clusters[c.ClusterName] = c
	}
	return r
}

// Lookup implements cluster.Resolver.
func (r *FakeResolver) Lookup(name string) (cluster.Cluster, bool) {
	r.Lookups = append(r.Lookups, name)
	c, ok := r.Clusters[name]
	if !ok {
		return nil, false
	}
	return c, true
}

// FakeCluster is a scriptable cluster handle.
type FakeCluster struct {
	ClusterName string
	Maintenance bool
	Options     cluster.ProtocolOptions

	// Pool is handed out by ConnPool. A nil Pool simulates a cluster with no
	// healthy hosts.
	Pool pool.Pool

	// PoolCriteria records the metadata criteria of each ConnPool call.
	PoolCriteria []*route.MetadataMatchCriteria
}

var _ cluster.Cluster = (*FakeCluster)(nil)

// Name implements cluster.Cluster.
func (c *FakeCluster) Name() string { return c.ClusterName }

// MaintenanceMode implements cluster.Cluster.
func (c *FakeCluster) MaintenanceMode() bool { return c.Maintenance }

// ProtocolOptions implements cluster.Cluster.
func (c *FakeCluster) ProtocolOptions() cluster.ProtocolOptions { return c.Options }

// ConnPool implements cluster.Cluster.
func (c *FakeCluster) ConnPool(_ cluster.Priority, criteria *route.MetadataMatchCriteria) (pool.Pool, bool) {
	c.PoolCriteria = append(c.PoolCriteria, criteria)
	if c.Pool == nil {
		return nil, false
	}
	return c.Pool, true
}

// FakeProtocolOptions overrides the upstream transport and protocol with
// fixed values. The zero value for either field keeps the downstream choice.
type FakeProtocolOptions struct {
	TransportOverride thrift.TransportType
	ProtocolOverride  thrift.ProtocolType
}

var _ cluster.ProtocolOptions = FakeProtocolOptions{}

// Transport implements cluster.ProtocolOptions.
func (o FakeProtocolOptions) Transport(downstream thrift.TransportType) thrift.TransportType {
	if o.TransportOverride == thrift.TransportAuto {
		return downstream
	}
	return o.TransportOverride
}

// Protocol implements cluster.ProtocolOptions.
func (o FakeProtocolOptions) Protocol(downstream thrift.ProtocolType) thrift.ProtocolType {
	if o.ProtocolOverride == thrift.ProtocolAuto {
		return downstream
	}
	return o.ProtocolOverride
}

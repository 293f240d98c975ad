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

package route

import "fmt"

// Config is the route table configuration: an ordered list of rules,
// evaluated first-match-wins.
type Config struct {
	Routes []RouteConfig `config:"routes"`
}

// RouteConfig configures one route rule: a match predicate and the action to
// take when it matches.
type RouteConfig struct {
	Match  MatchConfig  `config:"match"`
	Action ActionConfig `config:"route"`
}

// MatchConfig configures the predicate of one rule. Exactly one of
// MethodName and ServiceName must be set.
type MatchConfig struct {
	// MethodName matches calls whose method name equals this value. An
	// empty (but set) name is a wildcard.
	MethodName *string `config:"methodName"`

	// ServiceName matches calls whose method name carries this value as a
	// "Service:" prefix. An empty (but set) name is a wildcard.
	ServiceName *string `config:"serviceName"`

	// Invert flips the name predicate. It cannot be combined with an empty
	// name: inverting a wildcard would match nothing, which is a
	// configuration error rejected at build time.
	Invert bool `config:"invert"`

	// Headers are additional required header matches. They are evaluated
	// before the name predicate; if any fails the rule is skipped.
	Headers []HeaderMatcherConfig `config:"headers"`
}

// ActionConfig configures the destination of one rule. Exactly one of
// Cluster, ClusterHeader, and WeightedClusters must be set.
type ActionConfig struct {
	// Cluster is a statically configured destination cluster name.
	Cluster string `config:"cluster"`

	// ClusterHeader names a request header to read the destination cluster
	// from at match time. When the header is absent or empty the rule yields
	// no route and later rules are still consulted.
	ClusterHeader string `config:"clusterHeader"`

	// WeightedClusters splits traffic across destinations by weight.
	WeightedClusters []WeightedClusterConfig `config:"weightedClusters"`

	// StripServiceName removes the leading "Service:" prefix from the method
	// name before the call is forwarded upstream.
	StripServiceName bool `config:"stripServiceName"`

	// MetadataMatch are load-balancing metadata tags required of the chosen
	// host.
	MetadataMatch map[string]string `config:"metadataMatch"`
}

// WeightedClusterConfig is one destination of a weighted-cluster split.
type WeightedClusterConfig struct {
	// Name of the destination cluster.
	Name string `config:"name"`

	// Weight is the entry's share of the total. Must be positive.
	Weight uint32 `config:"weight"`

	// MetadataMatch tags are merged over the parent route's tags at load
	// time.
	MetadataMatch map[string]string `config:"metadataMatch"`
}

func (c MatchConfig) validate() error {
	if c.MethodName == nil && c.ServiceName == nil {
		return fmt.Errorf("route match requires a method name or service name")
	}
	if c.MethodName != nil && c.ServiceName != nil {
		return fmt.Errorf("route match sets both a method name and a service name")
	}
	if c.Invert {
		if c.MethodName != nil && *c.MethodName == "" {
			return fmt.Errorf("cannot have an empty method name with inversion enabled")
		}
		if c.ServiceName != nil && *c.ServiceName == "" {
			return fmt.Errorf("cannot have an empty service name with inversion enabled")
		}
	}
	return nil
}

func (c ActionConfig) validate() error {
	specifiers := 0
	if c.Cluster != "" {
		specifiers++
	}
	if c.ClusterHeader != "" {
		specifiers++
	}
	if len(c.WeightedClusters) > 0 {
		specifiers++
	}
	if specifiers != 1 {
		return fmt.Errorf("route action requires exactly one of cluster, clusterHeader, and weightedClusters")
	}
	for i, wc := range c.WeightedClusters {
		if wc.Name == "" {
			return fmt.Errorf("weighted cluster %d requires a name", i)
		}
		if wc.Weight == 0 {
			return fmt.Errorf("weighted cluster %q requires a positive weight", wc.Name)
		}
	}
	return nil
}

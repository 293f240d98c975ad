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

// Package route implements the route-matching engine of the proxy: an
// ordered, immutable table of rules that maps call metadata to a destination
// cluster under a first-match-wins policy, with support for weighted-cluster
// splits and header-overridden destinations.
package route

import (
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/thriftrelay/api/thrift"
	"go.uber.org/zap"
)

// ResolvedRoute is the destination chosen for one call: the concrete cluster
// name after any header-override or weighted-pick logic, plus the merged
// load-balancing metadata tags. It is transient: produced per call and
// discarded at call completion.
type ResolvedRoute interface {
	// ClusterName is the destination cluster.
	ClusterName() string

	// MetadataMatchCriteria are the load-balancing tags for host selection,
	// nil when none are configured.
	MetadataMatchCriteria() *MetadataMatchCriteria

	// StripServiceName reports whether the leading "Service:" prefix should
	// be removed from the method name before forwarding.
	StripServiceName() bool
}

// matchRule is one compiled route rule. Implementations are the closed set
// of predicate variants: method-name and service-name rules.
type matchRule interface {
	// matches evaluates the rule against a call. It returns the resolved
	// destination, or nil when the rule does not apply to this call.
	matches(md *thrift.MessageMetadata, randomDraw uint64) ResolvedRoute
}

// routeEntry is the destination half shared by every rule variant. It
// implements ResolvedRoute directly for the static-cluster case.
type routeEntry struct {
	clusterName        string
	clusterHeader      string
	headers            []headerMatcher
	stripServiceName   bool
	metadataMatch      *MetadataMatchCriteria
	weightedClusters   []*weightedClusterEntry
	totalClusterWeight uint64
}

var _ ResolvedRoute = (*routeEntry)(nil)

func newRouteEntry(cfg RouteConfig) (*routeEntry, error) {
	if err := cfg.Action.validate(); err != nil {
		return nil, err
	}

	e := &routeEntry{
		clusterName:      cfg.Action.Cluster,
		clusterHeader:    cfg.Action.ClusterHeader,
		stripServiceName: cfg.Action.StripServiceName,
		metadataMatch:    NewMetadataMatchCriteria(cfg.Action.MetadataMatch),
	}

	var err error
	for _, hm := range cfg.Match.Headers {
		matcher, herr := newHeaderMatcher(hm)
		if herr != nil {
			err = multierr.Append(err, herr)
			continue
		}
		e.headers = append(e.headers, matcher)
	}

	for _, wc := range cfg.Action.WeightedClusters {
		entry := &weightedClusterEntry{
			parent:      e,
			clusterName: wc.Name,
			weight:      uint64(wc.Weight),
			// Merge once at load time; the entry never reaches back to its
			// parent for tags at request time.
			metadataMatch: e.metadataMatch.Merge(wc.MetadataMatch),
		}
		e.weightedClusters = append(e.weightedClusters, entry)
		e.totalClusterWeight += entry.weight
	}

	return e, err
}

func (e *routeEntry) ClusterName() string                           { return e.clusterName }
func (e *routeEntry) MetadataMatchCriteria() *MetadataMatchCriteria { return e.metadataMatch }
func (e *routeEntry) StripServiceName() bool                        { return e.stripServiceName }

func (e *routeEntry) headersMatch(headers thrift.Headers) bool {
	return matchHeaders(headers, e.headers)
}

// clusterEntry resolves the concrete destination once the rule's predicate
// has matched.
func (e *routeEntry) clusterEntry(randomDraw uint64, md *thrift.MessageMetadata) ResolvedRoute {
	if len(e.weightedClusters) > 0 {
		return pickWeightedCluster(e.weightedClusters, e.totalClusterWeight, randomDraw)
	}

	if e.clusterHeader != "" {
		// The header is implicitly untrusted, so only its first value is
		// honored. An absent or empty header means this rule yields no
		// route; later rules may still match.
		name, ok := md.Headers.Get(e.clusterHeader)
		if !ok || name == "" {
			return nil
		}
		return &dynamicRouteEntry{parent: e, clusterName: name}
	}

	return e
}

// pickWeightedCluster maps a random draw to one weighted entry via
// cumulative-weight search. The selection is a pure function of
// draw % totalWeight.
func pickWeightedCluster(entries []*weightedClusterEntry, totalWeight, draw uint64) *weightedClusterEntry {
	selected := draw % totalWeight
	var begin, end uint64
	for _, entry := range entries {
		end = begin + entry.weight
		if selected >= begin && selected < end {
			return entry
		}
		begin = end
	}
	panic("weighted cluster selection out of range")
}

// weightedClusterEntry is one destination of a weighted split. Its metadata
// tags were merged with the parent's at load time.
type weightedClusterEntry struct {
	parent        *routeEntry
	clusterName   string
	weight        uint64
	metadataMatch *MetadataMatchCriteria
}

var _ ResolvedRoute = (*weightedClusterEntry)(nil)

func (e *weightedClusterEntry) ClusterName() string { return e.clusterName }
func (e *weightedClusterEntry) MetadataMatchCriteria() *MetadataMatchCriteria {
	return e.metadataMatch
}
func (e *weightedClusterEntry) StripServiceName() bool { return e.parent.stripServiceName }

// dynamicRouteEntry is a destination read from a request header at match
// time.
type dynamicRouteEntry struct {
	parent      *routeEntry
	clusterName string
}

var _ ResolvedRoute = (*dynamicRouteEntry)(nil)

func (e *dynamicRouteEntry) ClusterName() string { return e.clusterName }
func (e *dynamicRouteEntry) MetadataMatchCriteria() *MetadataMatchCriteria {
	return e.parent.metadataMatch
}
func (e *dynamicRouteEntry) StripServiceName() bool { return e.parent.stripServiceName }

// methodNameRule matches calls by method-name equality. An empty configured
// name is a wildcard.
type methodNameRule struct {
	*routeEntry
	methodName string
	invert     bool
}

func (r *methodNameRule) matches(md *thrift.MessageMetadata, randomDraw uint64) ResolvedRoute {
	if !r.headersMatch(md.Headers) {
		return nil
	}
	matches := r.methodName == "" || (md.HasMethodName && md.MethodName == r.methodName)
	if matches != r.invert {
		return r.clusterEntry(randomDraw, md)
	}
	return nil
}

// serviceNameRule matches calls whose method name carries the configured
// service name as a prefix. The configured name is normalized at load time
// to end with the ":" delimiter, so "foo" matches "foo:bar" but not
// "foobar:baz".
type serviceNameRule struct {
	*routeEntry
	serviceName string
	invert      bool
}

func (r *serviceNameRule) matches(md *thrift.MessageMetadata, randomDraw uint64) ResolvedRoute {
	if !r.headersMatch(md.Headers) {
		return nil
	}
	matches := r.serviceName == "" ||
		(md.HasMethodName && strings.HasPrefix(md.MethodName, r.serviceName))
	if matches != r.invert {
		return r.clusterEntry(randomDraw, md)
	}
	return nil
}

// Matcher is an immutable, ordered route table. It is built once from
// configuration and shared read-only across all calls.
type Matcher struct {
	rules  []matchRule
	logger *zap.Logger
}

// MatcherOption customizes a Matcher.
type MatcherOption interface {
	applyMatcher(*Matcher)
}

type matcherOptionFunc func(*Matcher)

func (f matcherOptionFunc) applyMatcher(m *Matcher) { f(m) }

// Logger specifies the logger the Matcher logs routing decisions to.
func Logger(logger *zap.Logger) MatcherOption {
	return matcherOptionFunc(func(m *Matcher) {
		m.logger = logger
	})
}

// NewMatcher compiles a route table from configuration. All validation
// happens here: a misconfigured rule is reported at build time, never at
// call time.
func NewMatcher(cfg Config, opts ...MatcherOption) (*Matcher, error) {
	m := &Matcher{logger: zap.NewNop()}
	for _, opt := range opts {
		opt.applyMatcher(m)
	}

	var err error
	for i, rc := range cfg.Routes {
		rule, rerr := newMatchRule(rc)
		if rerr != nil {
			err = multierr.Append(err, rerr)
			m.logger.Error("invalid route rule",
				zap.Int("index", i),
				zap.Error(rerr),
			)
			continue
		}
		m.rules = append(m.rules, rule)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newMatchRule(cfg RouteConfig) (matchRule, error) {
	if err := cfg.Match.validate(); err != nil {
		return nil, err
	}
	entry, err := newRouteEntry(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Match.MethodName != nil {
		return &methodNameRule{
			routeEntry: entry,
			methodName: *cfg.Match.MethodName,
			invert:     cfg.Match.Invert,
		}, nil
	}

	serviceName := *cfg.Match.ServiceName
	if serviceName != "" && !strings.HasSuffix(serviceName, ":") {
		serviceName += ":"
	}
	return &serviceNameRule{
		routeEntry:  entry,
		serviceName: serviceName,
		invert:      cfg.Match.Invert,
	}, nil
}

// Match evaluates the call against the rules in configured order and returns
// the first match's destination, or nil when no rule matches. randomDraw
// feeds weighted-cluster selection; the Matcher itself holds no randomness.
func (m *Matcher) Match(md *thrift.MessageMetadata, randomDraw uint64) ResolvedRoute {
	for _, rule := range m.rules {
		if resolved := rule.matches(md, randomDraw); resolved != nil {
			m.logger.Debug("route matched",
				zap.String("method", md.MethodName),
				zap.String("cluster", resolved.ClusterName()),
			)
			return resolved
		}
	}
	return nil
}

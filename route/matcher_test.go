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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/thriftrelay/api/thrift"
)

func stringp(s string) *string { return &s }

func call(method string) *thrift.MessageMetadata {
	return &thrift.MessageMetadata{
		MethodName:    method,
		HasMethodName: true,
		MessageType:   thrift.MessageTypeCall,
	}
}

func methodRoute(method, cluster string) RouteConfig {
	return RouteConfig{
		Match:  MatchConfig{MethodName: stringp(method)},
		Action: ActionConfig{Cluster: cluster},
	}
}

func TestMethodNameMatch(t *testing.T) {
	m, err := NewMatcher(Config{Routes: []RouteConfig{methodRoute("add", "C1")}})
	require.NoError(t, err)

	r := m.Match(call("add"), 0)
	require.NotNil(t, r)
	assert.Equal(t, "C1", r.ClusterName())

	assert.Nil(t, m.Match(call("sub"), 0))
	assert.Nil(t, m.Match(&thrift.MessageMetadata{MessageType: thrift.MessageTypeCall}, 0),
		"a call without a method name must not match a non-empty method rule")
}

func TestMethodNameWildcard(t *testing.T) {
	m, err := NewMatcher(Config{Routes: []RouteConfig{methodRoute("", "C1")}})
	require.NoError(t, err)

	for _, method := range []string{"add", "sub", ""} {
		r := m.Match(call(method), 0)
		require.NotNil(t, r, "wildcard must match method %q", method)
		assert.Equal(t, "C1", r.ClusterName())
	}
}

func TestMethodNameInversion(t *testing.T) {
	m, err := NewMatcher(Config{Routes: []RouteConfig{{
		Match:  MatchConfig{MethodName: stringp("add"), Invert: true},
		Action: ActionConfig{Cluster: "C1"},
	}}})
	require.NoError(t, err)

	assert.Nil(t, m.Match(call("add"), 0))
	require.NotNil(t, m.Match(call("sub"), 0))
	require.NotNil(t, m.Match(call("Add"), 0))
}

func TestServiceNamePrefixSemantics(t *testing.T) {
	m, err := NewMatcher(Config{Routes: []RouteConfig{{
		Match:  MatchConfig{ServiceName: stringp("foo")},
		Action: ActionConfig{Cluster: "C1"},
	}}})
	require.NoError(t, err)

	tests := []struct {
		method string
		want   bool
	}{
		{"foo:bar", true},
		{"foo:", true},
		{"foobar", false},
		{"bar:foo", false},
		{"foo", false},
	}
	for _, tt := range tests {
		got := m.Match(call(tt.method), 0)
		if tt.want {
			assert.NotNil(t, got, "service rule must match %q", tt.method)
		} else {
			assert.Nil(t, got, "service rule must not match %q", tt.method)
		}
	}
}

func TestServiceNameAlreadyDelimited(t *testing.T) {
	m, err := NewMatcher(Config{Routes: []RouteConfig{{
		Match:  MatchConfig{ServiceName: stringp("foo:")},
		Action: ActionConfig{Cluster: "C1"},
	}}})
	require.NoError(t, err)

	assert.NotNil(t, m.Match(call("foo:bar"), 0))
	assert.Nil(t, m.Match(call("foobar"), 0))
}

func TestEmptyNameWithInversionRejected(t *testing.T) {
	_, err := NewMatcher(Config{Routes: []RouteConfig{{
		Match:  MatchConfig{MethodName: stringp(""), Invert: true},
		Action: ActionConfig{Cluster: "C1"},
	}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty method name")

	_, err = NewMatcher(Config{Routes: []RouteConfig{{
		Match:  MatchConfig{ServiceName: stringp(""), Invert: true},
		Action: ActionConfig{Cluster: "C1"},
	}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty service name")
}

func TestMatchRequiresExactlyOneName(t *testing.T) {
	_, err := NewMatcher(Config{Routes: []RouteConfig{{
		Action: ActionConfig{Cluster: "C1"},
	}}})
	require.Error(t, err)

	_, err = NewMatcher(Config{Routes: []RouteConfig{{
		Match:  MatchConfig{MethodName: stringp("a"), ServiceName: stringp("b")},
		Action: ActionConfig{Cluster: "C1"},
	}}})
	require.Error(t, err)
}

func TestActionRequiresExactlyOneClusterSpecifier(t *testing.T) {
	_, err := NewMatcher(Config{Routes: []RouteConfig{{
		Match: MatchConfig{MethodName: stringp("add")},
	}}})
	require.Error(t, err)

	_, err = NewMatcher(Config{Routes: []RouteConfig{{
		Match:  MatchConfig{MethodName: stringp("add")},
		Action: ActionConfig{Cluster: "C1", ClusterHeader: "x-cluster"},
	}}})
	require.Error(t, err)
}

func TestFirstMatchWins(t *testing.T) {
	m, err := NewMatcher(Config{Routes: []RouteConfig{
		methodRoute("add", "first"),
		methodRoute("add", "second"),
		methodRoute("", "fallback"),
	}})
	require.NoError(t, err)

	r := m.Match(call("add"), 0)
	require.NotNil(t, r)
	assert.Equal(t, "first", r.ClusterName(), "earlier-indexed rule must win")

	r = m.Match(call("sub"), 0)
	require.NotNil(t, r)
	assert.Equal(t, "fallback", r.ClusterName())
}

func TestHeaderMatchersGateTheRule(t *testing.T) {
	m, err := NewMatcher(Config{Routes: []RouteConfig{
		{
			Match: MatchConfig{
				MethodName: stringp("add"),
				Headers: []HeaderMatcherConfig{
					{Name: "x-env", Exact: "prod"},
				},
			},
			Action: ActionConfig{Cluster: "prod"},
		},
		methodRoute("add", "default"),
	}})
	require.NoError(t, err)

	md := call("add")
	md.Headers = thrift.NewHeaders().Add("x-env", "prod")
	r := m.Match(md, 0)
	require.NotNil(t, r)
	assert.Equal(t, "prod", r.ClusterName())

	// A failed header match skips the rule entirely; the next rule applies.
	md = call("add")
	md.Headers = thrift.NewHeaders().Add("x-env", "staging")
	r = m.Match(md, 0)
	require.NotNil(t, r)
	assert.Equal(t, "default", r.ClusterName())

	md = call("add")
	r = m.Match(md, 0)
	require.NotNil(t, r)
	assert.Equal(t, "default", r.ClusterName())
}

func TestClusterHeader(t *testing.T) {
	m, err := NewMatcher(Config{Routes: []RouteConfig{
		{
			Match:  MatchConfig{MethodName: stringp("add")},
			Action: ActionConfig{ClusterHeader: "x-cluster"},
		},
		methodRoute("add", "fallback"),
	}})
	require.NoError(t, err)

	t.Run("present", func(t *testing.T) {
		md := call("add")
		md.Headers = thrift.NewHeaders().Add("x-cluster", "dynamic")
		r := m.Match(md, 0)
		require.NotNil(t, r)
		assert.Equal(t, "dynamic", r.ClusterName())
	})

	t.Run("multi-valued uses first value", func(t *testing.T) {
		md := call("add")
		md.Headers = thrift.NewHeaders().Add("x-cluster", "one").Add("x-cluster", "two")
		r := m.Match(md, 0)
		require.NotNil(t, r)
		assert.Equal(t, "one", r.ClusterName())
	})

	t.Run("absent yields no route from this rule", func(t *testing.T) {
		// The rule is skipped, not failed: the later rule still matches.
		r := m.Match(call("add"), 0)
		require.NotNil(t, r)
		assert.Equal(t, "fallback", r.ClusterName())
	})

	t.Run("empty value yields no route from this rule", func(t *testing.T) {
		md := call("add")
		md.Headers = thrift.NewHeaders().Add("x-cluster", "")
		r := m.Match(md, 0)
		require.NotNil(t, r)
		assert.Equal(t, "fallback", r.ClusterName())
	})
}

func TestWeightedClusterSelection(t *testing.T) {
	m, err := NewMatcher(Config{Routes: []RouteConfig{{
		Match: MatchConfig{MethodName: stringp("")},
		Action: ActionConfig{WeightedClusters: []WeightedClusterConfig{
			{Name: "w1", Weight: 30},
			{Name: "w2", Weight: 30},
			{Name: "w3", Weight: 40},
		}},
	}}})
	require.NoError(t, err)

	tests := []struct {
		draw uint64
		want string
	}{
		{0, "w1"},
		{29, "w1"},
		{30, "w2"},
		{59, "w2"},
		{60, "w3"},
		{99, "w3"},
		{100, "w1"},  // draw mod 100 wraps
		{130, "w2"},
		{199, "w3"},
	}
	for _, tt := range tests {
		r := m.Match(call("anything"), tt.draw)
		require.NotNil(t, r)
		assert.Equal(t, tt.want, r.ClusterName(), "draw %d", tt.draw)

		// Same draw, same selection: the pick is a pure function of the draw.
		again := m.Match(call("anything"), tt.draw)
		require.NotNil(t, again)
		assert.Equal(t, r.ClusterName(), again.ClusterName())
	}
}

func TestWeightedClusterValidation(t *testing.T) {
	_, err := NewMatcher(Config{Routes: []RouteConfig{{
		Match: MatchConfig{MethodName: stringp("")},
		Action: ActionConfig{WeightedClusters: []WeightedClusterConfig{
			{Name: "w1", Weight: 0},
		}},
	}}})
	require.Error(t, err)

	_, err = NewMatcher(Config{Routes: []RouteConfig{{
		Match: MatchConfig{MethodName: stringp("")},
		Action: ActionConfig{WeightedClusters: []WeightedClusterConfig{
			{Weight: 10},
		}},
	}}})
	require.Error(t, err)
}

func TestMetadataMatchMergedAtLoadTime(t *testing.T) {
	m, err := NewMatcher(Config{Routes: []RouteConfig{{
		Match: MatchConfig{MethodName: stringp("")},
		Action: ActionConfig{
			MetadataMatch: map[string]string{"stage": "prod", "zone": "a"},
			WeightedClusters: []WeightedClusterConfig{
				{Name: "w1", Weight: 1, MetadataMatch: map[string]string{"zone": "b"}},
			},
		},
	}}})
	require.NoError(t, err)

	r := m.Match(call("add"), 0)
	require.NotNil(t, r)
	assert.Equal(t, []MetadataMatchCriterion{
		{Name: "stage", Value: "prod"},
		{Name: "zone", Value: "b"},
	}, r.MetadataMatchCriteria().Criteria(), "entry tags must override parent tags")
}

func TestStaticRouteMetadataMatch(t *testing.T) {
	m, err := NewMatcher(Config{Routes: []RouteConfig{{
		Match: MatchConfig{MethodName: stringp("add")},
		Action: ActionConfig{
			Cluster:       "C1",
			MetadataMatch: map[string]string{"stage": "prod"},
		},
	}}})
	require.NoError(t, err)

	r := m.Match(call("add"), 0)
	require.NotNil(t, r)
	assert.Equal(t, []MetadataMatchCriterion{{Name: "stage", Value: "prod"}},
		r.MetadataMatchCriteria().Criteria())
}

func TestStripServiceNameSurfacedOnAllVariants(t *testing.T) {
	m, err := NewMatcher(Config{Routes: []RouteConfig{
		{
			Match:  MatchConfig{ServiceName: stringp("Svc")},
			Action: ActionConfig{ClusterHeader: "x-cluster", StripServiceName: true},
		},
	}})
	require.NoError(t, err)

	md := call("Svc:add")
	md.Headers = thrift.NewHeaders().Add("x-cluster", "C9")
	r := m.Match(md, 0)
	require.NotNil(t, r)
	assert.True(t, r.StripServiceName())
	assert.Equal(t, "C9", r.ClusterName())
}

func TestNoRuleMatches(t *testing.T) {
	m, err := NewMatcher(Config{Routes: []RouteConfig{methodRoute("add", "C1")}})
	require.NoError(t, err)
	assert.Nil(t, m.Match(call("unknown"), 0))

	empty, err := NewMatcher(Config{})
	require.NoError(t, err)
	assert.Nil(t, empty.Match(call("anything"), 0))
}

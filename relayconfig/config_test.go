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

package relayconfig

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/thriftrelay/api/thrift"
)

func TestLoadConfigFromYAML(t *testing.T) {
	cfg, err := LoadConfigFromYAML(strings.NewReader(`
routes:
  - match:
      serviceName: Accounts
      headers:
        - name: x-env
          exact: production
    route:
      cluster: accounts-prod
      stripServiceName: true
      metadataMatch:
        stage: prod
  - match:
      methodName: ""
    route:
      weightedClusters:
        - name: canary
          weight: 5
        - name: stable
          weight: 95
`))
	require.NoError(t, err)

	require.Len(t, cfg.Routes, 2)

	first := cfg.Routes[0]
	require.NotNil(t, first.Match.ServiceName)
	assert.Equal(t, "Accounts", *first.Match.ServiceName)
	assert.Nil(t, first.Match.MethodName)
	require.Len(t, first.Match.Headers, 1)
	assert.Equal(t, "x-env", first.Match.Headers[0].Name)
	assert.Equal(t, "production", first.Match.Headers[0].Exact)
	assert.Equal(t, "accounts-prod", first.Action.Cluster)
	assert.True(t, first.Action.StripServiceName)
	assert.Equal(t, map[string]string{"stage": "prod"}, first.Action.MetadataMatch)

	second := cfg.Routes[1]
	require.NotNil(t, second.Match.MethodName)
	assert.Equal(t, "", *second.Match.MethodName)
	require.Len(t, second.Action.WeightedClusters, 2)
	assert.Equal(t, "canary", second.Action.WeightedClusters[0].Name)
	assert.EqualValues(t, 5, second.Action.WeightedClusters[0].Weight)
}

func TestLoadConfigFromYAMLInvalid(t *testing.T) {
	_, err := LoadConfigFromYAML(strings.NewReader("routes: {not: a list}"))
	require.Error(t, err)

	_, err = LoadConfigFromYAML(strings.NewReader(":::"))
	require.Error(t, err)
}

func TestNewMatcherFromYAML(t *testing.T) {
	m, err := NewMatcherFromYAML(strings.NewReader(`
routes:
  - match:
      methodName: getAccount
    route:
      cluster: accounts
  - match:
      methodName: ""
    route:
      clusterHeader: x-cluster
`))
	require.NoError(t, err)

	md := &thrift.MessageMetadata{
		MethodName:    "getAccount",
		HasMethodName: true,
		MessageType:   thrift.MessageTypeCall,
	}
	r := m.Match(md, 0)
	require.NotNil(t, r)
	assert.Equal(t, "accounts", r.ClusterName())

	md = &thrift.MessageMetadata{
		MethodName:    "other",
		HasMethodName: true,
		MessageType:   thrift.MessageTypeCall,
		Headers:       thrift.NewHeaders().Add("x-cluster", "elsewhere"),
	}
	r = m.Match(md, 0)
	require.NotNil(t, r)
	assert.Equal(t, "elsewhere", r.ClusterName())
}

func TestNewMatcherFromYAMLRejectsInvalidRules(t *testing.T) {
	_, err := NewMatcherFromYAML(strings.NewReader(`
routes:
  - match:
      methodName: add
      serviceName: Svc
    route:
      cluster: both
`))
	require.Error(t, err)
}

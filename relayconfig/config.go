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

// Package relayconfig loads route tables from YAML.
//
// The expected shape mirrors the route.Config structs:
//
//	routes:
//	  - match:
//	      serviceName: Accounts
//	      headers:
//	        - name: x-env
//	          exact: production
//	    route:
//	      cluster: accounts-prod
//	  - match:
//	      methodName: ""
//	    route:
//	      weightedClusters:
//	        - name: canary
//	          weight: 5
//	        - name: stable
//	          weight: 95
package relayconfig

import (
	"io"
	"io/ioutil"

	"github.com/uber-go/mapdecode"
	"go.uber.org/thriftrelay/route"
	"gopkg.in/yaml.v2"
)

const _tagName = "config"

// LoadConfig decodes a route table from a map[string]interface{} or
// map[interface{}]interface{}, as produced by a YAML or JSON parser.
func LoadConfig(data interface{}) (route.Config, error) {
	var cfg route.Config
	if err := mapdecode.Decode(&cfg, data, mapdecode.TagName(_tagName)); err != nil {
		return route.Config{}, err
	}
	return cfg, nil
}

// LoadConfigFromYAML decodes a route table from YAML data. Use LoadConfig if
// you have already parsed a map.
func LoadConfigFromYAML(r io.Reader) (route.Config, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return route.Config{}, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(b, &data); err != nil {
		return route.Config{}, err
	}
	return LoadConfig(data)
}

// NewMatcherFromYAML builds a compiled route matcher straight from YAML
// configuration.
func NewMatcherFromYAML(r io.Reader, opts ...route.MatcherOption) (*route.Matcher, error) {
	cfg, err := LoadConfigFromYAML(r)
	if err != nil {
		return nil, err
	}
	return route.NewMatcher(cfg, opts...)
}

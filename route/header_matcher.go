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
	"fmt"
	"regexp"

	"go.uber.org/thriftrelay/api/thrift"
)

// HeaderMatcherConfig configures one required header match on a route rule.
// At most one of Exact and Regex may be set; when neither is set the matcher
// only requires the header to be present.
type HeaderMatcherConfig struct {
	// Name of the header to match.
	Name string `config:"name"`

	// Exact requires the header's first value to equal this string.
	Exact string `config:"exact"`

	// Regex requires the header's first value to match this anchored
	// expression.
	Regex string `config:"regex"`

	// Invert flips the match result. An inverted presence match succeeds
	// only when the header is absent.
	Invert bool `config:"invert"`
}

type headerMatchKind int

const (
	matchPresent headerMatchKind = iota
	matchExact
	matchRegex
)

// headerMatcher is the compiled form of a HeaderMatcherConfig, built once at
// configuration load and shared read-only across calls.
type headerMatcher struct {
	name   string
	kind   headerMatchKind
	exact  string
	regex  *regexp.Regexp
	invert bool
}

func newHeaderMatcher(cfg HeaderMatcherConfig) (headerMatcher, error) {
	m := headerMatcher{name: cfg.Name, invert: cfg.Invert}
	if cfg.Name == "" {
		return m, fmt.Errorf("header matcher requires a name")
	}
	if cfg.Exact != "" && cfg.Regex != "" {
		return m, fmt.Errorf("header matcher for %q sets both exact and regex", cfg.Name)
	}
	switch {
	case cfg.Exact != "":
		m.kind = matchExact
		m.exact = cfg.Exact
	case cfg.Regex != "":
		re, err := regexp.Compile("^(?:" + cfg.Regex + ")$")
		if err != nil {
			return m, fmt.Errorf("header matcher for %q has invalid regex: %v", cfg.Name, err)
		}
		m.kind = matchRegex
		m.regex = re
	default:
		m.kind = matchPresent
	}
	return m, nil
}

func (m headerMatcher) matches(headers thrift.Headers) bool {
	value, present := headers.Get(m.name)

	var matched bool
	switch m.kind {
	case matchExact:
		matched = present && value == m.exact
	case matchRegex:
		matched = present && m.regex.MatchString(value)
	default:
		matched = present
	}
	return matched != m.invert
}

// matchHeaders reports whether every matcher succeeds against the headers.
func matchHeaders(headers thrift.Headers, matchers []headerMatcher) bool {
	for _, m := range matchers {
		if !m.matches(headers) {
			return false
		}
	}
	return true
}

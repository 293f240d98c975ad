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

import "sort"

// MetadataMatchCriterion is one load-balancing metadata tag a route requires
// of the host it is balanced to.
type MetadataMatchCriterion struct {
	Name  string
	Value string
}

// MetadataMatchCriteria is an immutable, name-sorted set of load-balancing
// metadata tags. It is built once at configuration-load time; a weighted
// cluster entry's tags are merged with its parent route's at load time, so no
// back-reference traversal happens per request.
type MetadataMatchCriteria struct {
	criteria []MetadataMatchCriterion
}

// NewMetadataMatchCriteria builds criteria from a tag map. Returns nil for an
// empty map.
func NewMetadataMatchCriteria(tags map[string]string) *MetadataMatchCriteria {
	if len(tags) == 0 {
		return nil
	}
	return (*MetadataMatchCriteria)(nil).Merge(tags)
}

// Merge returns new criteria combining the receiver's tags with the given
// map. Tags in the map override same-named tags on the receiver. The
// receiver may be nil.
func (m *MetadataMatchCriteria) Merge(tags map[string]string) *MetadataMatchCriteria {
	merged := make(map[string]string)
	if m != nil {
		for _, c := range m.criteria {
			merged[c.Name] = c.Value
		}
	}
	for k, v := range tags {
		merged[k] = v
	}
	if len(merged) == 0 {
		return nil
	}

	out := &MetadataMatchCriteria{criteria: make([]MetadataMatchCriterion, 0, len(merged))}
	for k, v := range merged {
		out.criteria = append(out.criteria, MetadataMatchCriterion{Name: k, Value: v})
	}
	sort.Slice(out.criteria, func(i, j int) bool {
		return out.criteria[i].Name < out.criteria[j].Name
	})
	return out
}

// Criteria returns the tags in name order. Callers must not mutate the
// returned slice.
func (m *MetadataMatchCriteria) Criteria() []MetadataMatchCriterion {
	if m == nil {
		return nil
	}
	return m.criteria
}

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
)

func TestNewMetadataMatchCriteria(t *testing.T) {
	assert.Nil(t, NewMetadataMatchCriteria(nil))
	assert.Nil(t, NewMetadataMatchCriteria(map[string]string{}))

	m := NewMetadataMatchCriteria(map[string]string{"zone": "a", "stage": "prod"})
	assert.Equal(t, []MetadataMatchCriterion{
		{Name: "stage", Value: "prod"},
		{Name: "zone", Value: "a"},
	}, m.Criteria(), "criteria are sorted by name")
}

func TestMetadataMatchCriteriaMerge(t *testing.T) {
	base := NewMetadataMatchCriteria(map[string]string{"stage": "prod", "zone": "a"})

	merged := base.Merge(map[string]string{"zone": "b", "rack": "r1"})
	assert.Equal(t, []MetadataMatchCriterion{
		{Name: "rack", Value: "r1"},
		{Name: "stage", Value: "prod"},
		{Name: "zone", Value: "b"},
	}, merged.Criteria(), "merged tags override same-named base tags")

	// The receiver is untouched.
	assert.Equal(t, []MetadataMatchCriterion{
		{Name: "stage", Value: "prod"},
		{Name: "zone", Value: "a"},
	}, base.Criteria())
}

func TestMetadataMatchCriteriaNilReceiver(t *testing.T) {
	var m *MetadataMatchCriteria
	assert.Nil(t, m.Criteria())
	assert.Nil(t, m.Merge(nil))

	merged := m.Merge(map[string]string{"zone": "a"})
	assert.Equal(t, []MetadataMatchCriterion{{Name: "zone", Value: "a"}}, merged.Criteria())
}

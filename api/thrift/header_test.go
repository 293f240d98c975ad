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

package thrift

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadersGetFirstValue(t *testing.T) {
	h := NewHeaders().
		Add("x-cluster", "one").
		Add("X-Cluster", "two")

	v, ok := h.Get("x-CLUSTER")
	assert.True(t, ok)
	assert.Equal(t, "one", v, "Get must return the first value of a multi-valued header")
	assert.Equal(t, []string{"one", "two"}, h.Values("x-cluster"))
}

func TestHeadersMissingKey(t *testing.T) {
	var h Headers
	v, ok := h.Get("nope")
	assert.False(t, ok)
	assert.Empty(t, v)
	assert.Empty(t, h.Values("nope"))
	assert.Zero(t, h.Len())
}

func TestHeadersDel(t *testing.T) {
	h := NewHeaders().Add("Foo", "bar").Add("Baz", "qux")
	h.Del("FOO")

	_, ok := h.Get("foo")
	assert.False(t, ok)
	assert.Equal(t, 1, h.Len())
}

func TestMessageTypeString(t *testing.T) {
	tests := []struct {
		give MessageType
		want string
	}{
		{MessageTypeCall, "call"},
		{MessageTypeOneway, "oneway"},
		{MessageTypeReply, "reply"},
		{MessageTypeException, "exception"},
		{MessageType(42), "unknown(42)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.give.String())
	}
}

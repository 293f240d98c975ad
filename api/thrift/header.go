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

import "strings"

// CanonicalizeHeaderKey canonicalizes the given header key for storage into
// Headers.
func CanonicalizeHeaderKey(k string) string {
	return strings.ToLower(k)
}

// Headers is the multi-valued header collection attached to a message. Header
// keys are canonicalized on storage and lookup; a key may carry more than one
// value, in insertion order.
//
// The zero value is valid and empty.
type Headers struct {
	items map[string][]string
}

// NewHeaders builds a new empty Headers collection.
func NewHeaders() Headers {
	return Headers{}
}

// Add appends a value under the given key, preserving any existing values.
// The returned collection MUST be used in place of the original.
func (h Headers) Add(k, v string) Headers {
	if h.items == nil {
		h.items = make(map[string][]string)
	}
	key := CanonicalizeHeaderKey(k)
	h.items[key] = append(h.items[key], v)
	return h
}

// Get returns the first value stored under the given key, if any. Headers
// set from a caller are untrusted; components that consult a header for
// routing decisions honor only this first value.
func (h Headers) Get(k string) (string, bool) {
	vs := h.items[CanonicalizeHeaderKey(k)]
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Values returns all values stored under the given key, in insertion order.
// Callers must not mutate the returned slice.
func (h Headers) Values(k string) []string {
	return h.items[CanonicalizeHeaderKey(k)]
}

// Del removes all values stored under the given key.
func (h Headers) Del(k string) {
	delete(h.items, CanonicalizeHeaderKey(k))
}

// Len returns the number of distinct keys.
func (h Headers) Len() int {
	return len(h.items)
}

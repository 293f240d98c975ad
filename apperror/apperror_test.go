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

package apperror

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewf(t *testing.T) {
	err := Newf(TypeUnknownMethod, "no route for method %q", "Svc:add")
	assert.Equal(t, TypeUnknownMethod, err.Type())
	assert.Equal(t, `no route for method "Svc:add"`, err.Message())
	assert.Equal(t, `unknown method: no route for method "Svc:add"`, err.Error())
}

func TestFromError(t *testing.T) {
	appErr := New(TypeInternalError, "maintenance mode for cluster 'C2'")
	wrapped := fmt.Errorf("call failed: %w", appErr)

	got, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, appErr, got)

	_, ok = FromError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestTypeStrings(t *testing.T) {
	assert.Equal(t, "internal error", TypeInternalError.String())
	assert.Equal(t, "unknown method", TypeUnknownMethod.String())
	assert.Equal(t, "apperror.Type(99)", Type(99).String())
}

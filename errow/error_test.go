package errow

import (
	stderrors "errors"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorW_Error(t *testing.T) {
	root := New("root failure", CaptureContext{})
	assert.Equal(t, "root failure", root.Error())

	wrapped := Wrap(root, "sync aborted", CaptureContext{})
	assert.Equal(t, "sync aborted: root failure", wrapped.Error())
}

func TestErrorW_Unwrap(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	wrapped := Wrap(sentinel, "outer", CaptureContext{})
	assert.True(t, stderrors.Is(wrapped, sentinel))

	var target *ErrorW
	assert.True(t, stderrors.As(Wrap(wrapped, "top", CaptureContext{}), &target))
}

func TestErrorW_StackTrace(t *testing.T) {
	err := New("with stack", CaptureContext{})
	assert.NotEmpty(t, err.StackTrace())
}

func TestChain_plainErrorIsNil(t *testing.T) {
	assert.Nil(t, Chain(stderrors.New("plain"), 0))
	assert.Nil(t, Chain(nil, 0))
}

func TestChain_outermostFirst(t *testing.T) {
	root := New("root", CaptureContext{Tags: map[string]string{"layer": "root"}})
	middle := Wrap(root, "middle", CaptureContext{Tags: map[string]string{"layer": "middle"}})
	top := Wrap(middle, "top", CaptureContext{Tags: map[string]string{"layer": "top"}})

	chain := Chain(top, 0)
	require.Len(t, chain, 3)
	assert.Equal(t, "top", chain[0].Context().Tags["layer"])
	assert.Equal(t, "middle", chain[1].Context().Tags["layer"])
	assert.Equal(t, "root", chain[2].Context().Tags["layer"])
}

func TestChain_stopsAtPlainCause(t *testing.T) {
	// a plain cause ends the walk even though it wraps a carrying error
	inner := New("carrying but unreachable", CaptureContext{})
	plain := errors.Wrap(inner, "plain wrapper")
	top := Wrap(plain, "top", CaptureContext{})

	chain := Chain(top, 0)
	require.Len(t, chain, 1)
	assert.Same(t, top, chain[0])
}

func TestChain_boundedDepth(t *testing.T) {
	err := New("layer", CaptureContext{})
	for i := 0; i < 40; i++ {
		err = Wrap(err, "layer", CaptureContext{})
	}
	assert.Len(t, Chain(err, 0), DefaultMaxDepth)
	assert.Len(t, Chain(err, 5), 5)
}

package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeData, "nothing"))
	assert.Nil(t, Wrapf(nil, ErrorTypeData, "nothing %d", 1))
}

func TestWrapPreservesStack(t *testing.T) {
	inner := New(ErrorTypeNetwork, "boom")
	outer := Wrap(inner, ErrorTypeData, "dataset failed")

	require.NotEmpty(t, inner.Stack)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.Equal(t, "data: dataset failed: network: boom", outer.Error())
}

func TestErrorOmitsRepeatedTypePrefix(t *testing.T) {
	inner := New(ErrorTypeParse, "response body is not valid JSON")
	outer := Wrap(inner, ErrorTypeParse, "failed to fetch dataset")
	assert.Equal(t, "parse: failed to fetch dataset: response body is not valid JSON", outer.Error())

	withCause := Wrap(Wrap(io.EOF, ErrorTypeParse, "bad body"), ErrorTypeParse, "failed to fetch dataset")
	assert.Equal(t, "parse: failed to fetch dataset: bad body: EOF", withCause.Error())

	mixed := Wrap(Wrap(inner, ErrorTypeData, "dataset failed"), ErrorTypeData, "run failed")
	assert.Equal(t, "data: run failed: dataset failed: parse: response body is not valid JSON", mixed.Error())
}

func TestIsTypeWalksChain(t *testing.T) {
	err := Wrap(Wrap(io.EOF, ErrorTypeParse, "bad body"), ErrorTypeData, "dataset heroes failed")

	assert.True(t, IsType(err, ErrorTypeData))
	assert.True(t, IsType(err, ErrorTypeParse))
	assert.False(t, IsType(err, ErrorTypeNetwork))
	assert.False(t, IsType(io.EOF, ErrorTypeParse))
	assert.True(t, stderrors.Is(err, io.EOF))
}

func TestGetAndRootType(t *testing.T) {
	err := Wrap(New(ErrorTypeTimeout, "deadline"), ErrorTypeData, "dataset failed")

	assert.Equal(t, ErrorTypeData, GetType(err))
	assert.Equal(t, ErrorTypeTimeout, RootType(err))
	assert.Equal(t, ErrorTypeInternal, GetType(io.EOF))
	assert.Equal(t, ErrorTypeInternal, RootType(io.EOF))
}

func TestDetailLookup(t *testing.T) {
	inner := New(ErrorTypeNetwork, "status 500").WithDetail("endpoint", "/heroes").WithDetail("status", 500)
	outer := Wrap(inner, ErrorTypeData, "dataset failed").WithDetail("dataset", "heroes")

	v, ok := outer.Detail("endpoint")
	require.True(t, ok)
	assert.Equal(t, "/heroes", v)

	v, ok = outer.Detail("dataset")
	require.True(t, ok)
	assert.Equal(t, "heroes", v)

	_, ok = outer.Detail("missing")
	assert.False(t, ok)

	assert.Equal(t, "endpoint=/heroes status=500", inner.DetailString())
	assert.Equal(t, "", New(ErrorTypeData, "x").DetailString())
}

func TestNewf(t *testing.T) {
	err := Newf(ErrorTypeConfig, "invalid player_id %q", "abc")
	assert.Equal(t, `config: invalid player_id "abc"`, err.Error())
	assert.Nil(t, err.Unwrap())
}

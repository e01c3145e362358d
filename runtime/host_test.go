package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/jsbind/errors"
)

type emptyHost struct{}

func (emptyHost) Namespace() string { return "" }

func TestHostRegistry_RegisterHost(t *testing.T) {
	r := NewHostRegistry()
	require.NoError(t, r.RegisterHost(&CalcHost{}))
	require.NoError(t, r.RegisterHost(explicitHost{}))

	assert.Equal(t, []string{"host/calc", "host/explicit"}, r.Namespaces())
	assert.Equal(t, []string{"$version"}, r.Functions("host/explicit"))
	assert.Empty(t, r.Functions("unknown"))

	err := r.RegisterHost(emptyHost{})
	assert.True(t, errors.HasKind(err, errors.KindInvalidInput))
}

func TestHostRegistry_MutableFlag(t *testing.T) {
	r := NewHostRegistry()
	require.NoError(t, r.RegisterHost(mutableHost{}))

	r.mu.RLock()
	defer r.mu.RUnlock()
	hf, ok := r.funcs["host/mut"]["reenter"]
	require.True(t, ok)
	assert.True(t, hf.Mutable)
	assert.NotNil(t, hf.Handler)
}

func TestHostRegistry_ExtractFunctions(t *testing.T) {
	funcs := tryExtractFunctionsViaReflection(registrationHost{})
	require.Len(t, funcs, 1)
	assert.Contains(t, funcs, "ping")

	assert.Nil(t, tryExtractFunctionsViaReflection(&CalcHost{}))
	assert.Nil(t, tryExtractFunctionsViaReflection(explicitHost{}), "map result has no Functions field")
}

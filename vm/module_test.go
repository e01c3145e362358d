package vm

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/jsbind/errors"
)

func TestModule_ExportTable(t *testing.T) {
	ctx := newTestCtx(t)
	m := ctx.NewCModule("m", nil)
	require.NotNil(t, m)
	assert.NotZero(t, m.Handle())

	require.NoError(t, ctx.AddModuleExport(m, "a"))
	require.NoError(t, ctx.AddModuleExport(m, "b"))
	assert.Error(t, ctx.AddModuleExport(m, "a"), "duplicate export")

	v, err := ctx.GetModuleExport(m, "a")
	require.NoError(t, err)
	assert.True(t, v.IsUndefined(), "declared but unset")

	require.NoError(t, ctx.SetModuleExport(m, "a", Int(2)))
	v, err = ctx.GetModuleExport(m, "a")
	require.NoError(t, err)
	assert.Equal(t, Int(2), v)

	err = ctx.SetModuleExport(m, "zzz", Int(1))
	assert.True(t, errors.HasKind(err, errors.KindNotFound))
	_, err = ctx.GetModuleExport(m, "zzz")
	assert.True(t, errors.HasKind(err, errors.KindNotFound))

	require.Equal(t, 2, ctx.ModuleExportEntriesCount(m))
	name, err := ctx.AtomString(ctx.ModuleExportEntryName(m, 1))
	require.NoError(t, err)
	assert.Equal(t, "b", name)
	assert.Equal(t, Int(2), ctx.ModuleExportEntry(m, 0))
	assert.True(t, ctx.ModuleExportEntry(m, 9).IsUndefined())
	assert.Equal(t, Atom(0), ctx.ModuleExportEntryName(m, -1))
}

func TestModule_NameAndMeta(t *testing.T) {
	ctx := newTestCtx(t)
	m := ctx.NewCModule("pkg", nil)
	require.NotNil(t, m)

	name, err := ctx.AtomString(ctx.ModuleName(m))
	require.NoError(t, err)
	assert.Equal(t, "pkg", name)

	meta := ctx.ImportMeta(m)
	meta.Set("url", String("native:pkg"))
	assert.Same(t, meta, ctx.ImportMeta(m))

	got, ok := ctx.ModuleByHandle(m.Handle())
	require.True(t, ok)
	assert.Same(t, m, got)
}

func TestModule_MaxModules(t *testing.T) {
	ctx := newTestCtxWith(t, &Config{MaxModules: 1})
	require.NotNil(t, ctx.NewCModule("a", nil))
	assert.Nil(t, ctx.NewCModule("b", nil))
}

func TestModule_FreeModule(t *testing.T) {
	ctx := newTestCtx(t)
	m := ctx.NewCModule("m", nil)
	require.NotNil(t, m)

	ctx.FreeModule(m)
	assert.Empty(t, ctx.Modules())
	_, ok := ctx.ModuleByHandle(m.Handle())
	assert.False(t, ok)
}

func TestModule_InstantiateOnce(t *testing.T) {
	ctx := newTestCtx(t)
	calls := 0
	m := ctx.NewCModule("m", func(ctx Ctx, m *ModuleDef) int {
		calls++
		return 0
	})
	require.NotNil(t, m)

	require.NoError(t, ctx.InstantiateModule(m))
	require.NoError(t, ctx.InstantiateModule(m))
	assert.Equal(t, 1, calls)
	assert.True(t, m.Instantiated())
}

func TestModule_InstantiateFailureIsCached(t *testing.T) {
	ctx := newTestCtx(t)
	boom := stderrors.New("boom")
	calls := 0
	m := ctx.NewCModule("bad", func(ctx Ctx, m *ModuleDef) int {
		calls++
		ctx.Throw(boom)
		return -1
	})
	require.NotNil(t, m)

	err := ctx.InstantiateModule(m)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, errors.HasKind(err, errors.KindInstantiation))
	assert.False(t, ctx.HasException(), "cause is consumed")

	again := ctx.InstantiateModule(m)
	assert.Same(t, err, again)
	assert.Equal(t, 1, calls)
	assert.False(t, m.Instantiated())
}

func TestModule_InstantiateFailureWithoutThrow(t *testing.T) {
	ctx := newTestCtx(t)
	m := ctx.NewCModule("bad", func(Ctx, *ModuleDef) int { return -3 })

	err := ctx.InstantiateModule(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status -3")
}

func TestModule_Import(t *testing.T) {
	ctx := newTestCtx(t)
	loads := 0
	ctx.RegisterLoader("lib", func(ctx Ctx, name string) *ModuleDef {
		loads++
		m := ctx.NewCModule(name, func(ctx Ctx, m *ModuleDef) int {
			if err := ctx.SetModuleExport(m, "answer", Int(42)); err != nil {
				ctx.Throw(err)
				return -1
			}
			return 0
		})
		if m == nil {
			return nil
		}
		if err := ctx.AddModuleExport(m, "answer"); err != nil {
			return nil
		}
		return m
	})
	assert.True(t, ctx.HasLoader("lib"))

	m, err := ctx.Import("lib")
	require.NoError(t, err)
	v, err := ctx.GetModuleExport(m, "answer")
	require.NoError(t, err)
	assert.Equal(t, Int(42), v)

	again, err := ctx.Import("lib")
	require.NoError(t, err)
	assert.Same(t, m, again)
	assert.Equal(t, 1, loads)
}

func TestModule_ImportErrors(t *testing.T) {
	ctx := newTestCtx(t)

	_, err := ctx.Import("missing")
	assert.True(t, errors.HasKind(err, errors.KindNotFound))

	ctx.RegisterLoader("nil", func(Ctx, string) *ModuleDef { return nil })
	_, err = ctx.Import("nil")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loader returned no module")
}

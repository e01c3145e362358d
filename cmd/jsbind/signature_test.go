package main

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/jsbind/runtime"
	"github.com/wippyai/jsbind/wasmmod"
)

// addWasm exports add (i32, i32) -> i32.
var addWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00,
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

func loadAdd(t *testing.T) (*runtime.Runtime, []funcInfo) {
	t.Helper()
	ctx := context.Background()
	rt, err := runtime.New(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	wm, err := rt.LoadWASM(ctx, "wasm/add", addWasm)
	require.NoError(t, err)
	return rt, describe([]*wasmmod.Module{wm})
}

func TestDescribe(t *testing.T) {
	_, funcs := loadAdd(t)
	require.Len(t, funcs, 1)

	f := funcs[0]
	assert.Equal(t, "wasm/add", f.module)
	assert.Equal(t, "add", f.name)
	assert.Equal(t, "s32", f.resultType)
	require.Len(t, f.params, 2)
	assert.Equal(t, "arg0", f.params[0].name)
	assert.Equal(t, "s32", f.params[1].typeStr)
	assert.Equal(t, "wasm/add#add(arg0: s32, arg1: s32) -> s32", f.String())
}

func TestConvertArg(t *testing.T) {
	tests := []struct {
		name  string
		value string
		typ   wit.Type
		want  any
	}{
		{"s32", "42", wit.S32{}, int32(42)},
		{"s32 spaces", " -7 ", wit.S32{}, int32(-7)},
		{"s64", "9000000000", wit.S64{}, int64(9000000000)},
		{"f32", "1.5", wit.F32{}, float32(1.5)},
		{"f64", "2.25", wit.F64{}, 2.25},
		{"bool", "true", wit.Bool{}, true},
		{"bool one", "1", wit.Bool{}, true},
		{"bool other", "no", wit.Bool{}, false},
		{"string", "hi", wit.String{}, "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convertArg(tt.value, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertArg_Errors(t *testing.T) {
	_, err := convertArg("x", wit.S32{})
	assert.Error(t, err)
	_, err = convertArg("3000000000", wit.S32{})
	assert.Error(t, err)
	_, err = convertArg("1.5", wit.S64{})
	assert.Error(t, err)
	_, err = convertArg("abc", wit.F64{})
	assert.Error(t, err)
}

func TestConvertArgs(t *testing.T) {
	_, funcs := loadAdd(t)

	args, err := convertArgs(funcs[0], []string{"1", "2"})
	require.NoError(t, err)
	assert.Equal(t, []any{int32(1), int32(2)}, args)

	_, err = convertArgs(funcs[0], []string{"1"})
	assert.ErrorContains(t, err, "takes 2 arguments, got 1")

	_, err = convertArgs(funcs[0], []string{"1", "b"})
	assert.ErrorContains(t, err, "arg1")
}

func TestFindFunc(t *testing.T) {
	funcs := []funcInfo{
		{module: "wasm/a", name: "add"},
		{module: "wasm/b", name: "add"},
		{module: "wasm/b", name: "mul"},
	}

	f, err := findFunc(funcs, "mul")
	require.NoError(t, err)
	assert.Equal(t, "wasm/b", f.module)

	f, err = findFunc(funcs, "wasm/a#add")
	require.NoError(t, err)
	assert.Equal(t, "wasm/a", f.module)

	_, err = findFunc(funcs, "add")
	assert.ErrorContains(t, err, "several modules")

	_, err = findFunc(funcs, "wasm/a#mul")
	assert.ErrorContains(t, err, "not found")
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, "wasm/math", moduleName("/tmp/build/math.wasm"))
	assert.Equal(t, "wasm/add", moduleName("add"))
}

func TestInteractive_Call(t *testing.T) {
	rt, funcs := loadAdd(t)
	m := newInteractiveModel(rt, funcs)

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, stateInputArgs, m.state)
	require.Len(t, m.inputs, 2)

	m.inputs[0].SetValue("40")
	m.inputs[1].SetValue("2")
	msg := m.callFunction()
	res, ok := msg.(callResultMsg)
	require.True(t, ok)
	require.NoError(t, res.err)
	assert.Equal(t, "42", res.result)

	_, _ = m.Update(res)
	assert.Equal(t, stateShowResult, m.state)
	assert.Contains(t, m.View(), "42")

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, stateSelectFunc, m.state)
}

package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/jsbind/wasmmod"
)

type funcInfo struct {
	module     string
	name       string
	resultType string
	params     []paramInfo
}

type paramInfo struct {
	name    string
	witType wit.Type
	typeStr string
}

// describe lists the callable exports of mods, in module then export order.
func describe(mods []*wasmmod.Module) []funcInfo {
	var funcs []funcInfo
	for _, wm := range mods {
		for _, e := range wm.Exports() {
			fi := funcInfo{module: wm.Name(), name: e.Name}
			for i, p := range e.Params {
				t := witType(p)
				fi.params = append(fi.params, paramInfo{
					name:    fmt.Sprintf("arg%d", i),
					witType: t,
					typeStr: witTypeStr(t),
				})
			}
			var results []string
			for _, r := range e.Results {
				results = append(results, witTypeStr(witType(r)))
			}
			switch len(results) {
			case 0:
			case 1:
				fi.resultType = results[0]
			default:
				fi.resultType = "tuple<" + strings.Join(results, ", ") + ">"
			}
			funcs = append(funcs, fi)
		}
	}
	return funcs
}

func (f funcInfo) String() string {
	var params []string
	for _, p := range f.params {
		params = append(params, p.name+": "+p.typeStr)
	}
	s := f.module + "#" + f.name + "(" + strings.Join(params, ", ") + ")"
	if f.resultType != "" {
		s += " -> " + f.resultType
	}
	return s
}

func witType(t api.ValueType) wit.Type {
	switch t {
	case api.ValueTypeI32:
		return wit.S32{}
	case api.ValueTypeI64:
		return wit.S64{}
	case api.ValueTypeF32:
		return wit.F32{}
	case api.ValueTypeF64:
		return wit.F64{}
	default:
		return wit.String{}
	}
}

func witTypeStr(t wit.Type) string {
	switch t.(type) {
	case wit.Bool:
		return "bool"
	case wit.S32:
		return "s32"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.String:
		return "string"
	default:
		return fmt.Sprintf("%T", t)
	}
}

// convertArg parses a command line value as the given parameter type.
func convertArg(value string, t wit.Type) (any, error) {
	value = strings.TrimSpace(value)
	switch t.(type) {
	case wit.S32:
		v, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse s32 %q: %w", value, err)
		}
		return int32(v), nil
	case wit.S64:
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse s64 %q: %w", value, err)
		}
		return v, nil
	case wit.F32:
		v, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return nil, fmt.Errorf("parse f32 %q: %w", value, err)
		}
		return float32(v), nil
	case wit.F64:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("parse f64 %q: %w", value, err)
		}
		return v, nil
	case wit.Bool:
		return value == "true" || value == "1", nil
	default:
		return value, nil
	}
}

func convertArgs(f funcInfo, values []string) ([]any, error) {
	if len(values) != len(f.params) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", f.name, len(f.params), len(values))
	}
	args := make([]any, len(values))
	for i, v := range values {
		a, err := convertArg(v, f.params[i].witType)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.params[i].name, err)
		}
		args[i] = a
	}
	return args, nil
}

// findFunc resolves "module#export", or a bare export name when it is
// unambiguous.
func findFunc(funcs []funcInfo, target string) (funcInfo, error) {
	mod, name, qualified := strings.Cut(target, "#")
	if !qualified {
		name, mod = mod, ""
	}

	var found []funcInfo
	for _, f := range funcs {
		if f.name == name && (mod == "" || f.module == mod) {
			found = append(found, f)
		}
	}
	switch len(found) {
	case 0:
		return funcInfo{}, fmt.Errorf("function %q not found", target)
	case 1:
		return found[0], nil
	default:
		return funcInfo{}, fmt.Errorf("function %q is exported by several modules, use module#%s", name, name)
	}
}

// moduleName derives a module name from a wasm file path: math.wasm -> wasm/math.
func moduleName(path string) string {
	base := filepath.Base(path)
	return "wasm/" + strings.TrimSuffix(base, filepath.Ext(base))
}

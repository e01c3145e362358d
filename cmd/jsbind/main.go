package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/jsbind/manifest"
	"github.com/wippyai/jsbind/runtime"
	"github.com/wippyai/jsbind/wasmmod"
)

func main() {
	var (
		wasmFile     = flag.String("wasm", "", "Path to core wasm file")
		modName      = flag.String("name", "", "Module name for -wasm (default wasm/<file>)")
		manifestFile = flag.String("manifest", "", "Path to a module manifest (YAML)")
		funcName     = flag.String("func", "", "Function to call (module#export or export)")
		argList      = flag.String("args", "", "Arguments (comma-separated)")
		list         = flag.Bool("list", false, "List exported functions and exit")
		interactive  = flag.Bool("i", false, "Interactive mode with TUI")
		schema       = flag.Bool("schema", false, "Print the manifest JSON schema and exit")
		verbose      = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *schema {
		out, err := manifest.Schema()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	if *wasmFile == "" && *manifestFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: jsbind -wasm <file.wasm> [-name module] [-func name] [-args a,b]")
		fmt.Fprintln(os.Stderr, "       jsbind -manifest <jsbind.yaml> [-func module#export] [-args a,b]")
		fmt.Fprintln(os.Stderr, "       jsbind ... -list")
		fmt.Fprintln(os.Stderr, "       jsbind ... -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       jsbind -schema")
		os.Exit(1)
	}

	opts := options{
		wasmFile:     *wasmFile,
		modName:      *modName,
		manifestFile: *manifestFile,
		funcName:     *funcName,
		args:         *argList,
		list:         *list,
		interactive:  *interactive,
		verbose:      *verbose,
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	wasmFile     string
	modName      string
	manifestFile string
	funcName     string
	args         string
	list         bool
	interactive  bool
	verbose      bool
}

func run(o options) error {
	ctx := context.Background()

	logger := zap.NewNop()
	if o.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		logger = l
		defer func() { _ = logger.Sync() }()
	}
	manifest.SetLogger(logger)

	var m *manifest.Manifest
	if o.manifestFile != "" {
		data, err := os.ReadFile(o.manifestFile)
		if err != nil {
			return fmt.Errorf("read manifest: %w", err)
		}
		if err := manifest.ValidateDocument(data); err != nil {
			return err
		}
		if m, err = manifest.Parse(data); err != nil {
			return err
		}
	}

	rtOpts := []runtime.Option{runtime.WithLogger(logger)}
	if m != nil {
		rtOpts = append(rtOpts, m.Options()...)
	}
	rt, err := runtime.New(ctx, rtOpts...)
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close(ctx)

	var mods []*wasmmod.Module
	if m != nil {
		installed, err := m.Install(ctx, rt, filepath.Dir(o.manifestFile))
		if err != nil {
			return fmt.Errorf("install manifest: %w", err)
		}
		mods = append(mods, installed...)
	}
	if o.wasmFile != "" {
		data, err := os.ReadFile(o.wasmFile)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		name := o.modName
		if name == "" {
			name = moduleName(o.wasmFile)
		}
		wm, err := rt.LoadWASM(ctx, name, data)
		if err != nil {
			return fmt.Errorf("load %s: %w", o.wasmFile, err)
		}
		mods = append(mods, wm)
	}

	funcs := describe(mods)

	if o.interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("interactive mode needs a terminal")
		}
		return runInteractive(rt, funcs)
	}

	fmt.Printf("Modules: %d\n", len(mods))
	fmt.Printf("\nExported functions:\n")
	for _, f := range funcs {
		fmt.Printf("  %s\n", f)
	}

	if o.list {
		return nil
	}

	if o.funcName == "" {
		if len(funcs) != 1 {
			fmt.Printf("\nNo function specified.\n")
			fmt.Printf("Use -func to specify a function to call.\n")
			return nil
		}
		o.funcName = funcs[0].module + "#" + funcs[0].name
	}

	f, err := findFunc(funcs, o.funcName)
	if err != nil {
		return err
	}

	var values []string
	if o.args != "" {
		values = strings.Split(o.args, ",")
	}
	args, err := convertArgs(f, values)
	if err != nil {
		return err
	}

	fmt.Printf("\nCalling %s#%s(%s)...\n", f.module, f.name, o.args)
	result, err := rt.Call(f.module, f.name, args...)
	if err != nil {
		return fmt.Errorf("call %s: %w", f.name, err)
	}

	fmt.Printf("Result: %s\n", result)
	return nil
}

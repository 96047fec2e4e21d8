package customstep

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"armature/internal/faults"
)

// ErrNoEntryPoint is returned when a step file does not expose exactly one
// step function. The orchestrator skips such steps.
var ErrNoEntryPoint = errors.New("no step function")

// Runner executes one step against a snapshot of the build context and
// returns the (possibly extended) snapshot.
type Runner interface {
	Run(ctx context.Context, step Step, data map[string]any) (map[string]any, error)
}

// Interpreter runs step scripts with yaegi. A step file is a Go source file
// declaring exactly one exported function of the form
//
//	func Name(ctx map[string]interface{}) error
//
// Imports are limited to the standard library.
type Interpreter struct{}

// NewInterpreter returns a yaegi backed Runner.
func NewInterpreter() *Interpreter { return &Interpreter{} }

// Run interprets the step file and calls its step function with data.
func (r *Interpreter) Run(ctx context.Context, step Step, data map[string]any) (out map[string]any, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := os.ReadFile(step.Path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrCustomStep, step.Name, "read", "", err)
	}
	pkg, fn, err := EntryPoint(step.Path, src)
	if err != nil {
		return nil, faults.Wrap(faults.ErrCustomStep, step.Name, "inspect", "", err)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, faults.Wrap(faults.ErrCustomStep, step.Name, "load stdlib", "", err)
	}
	if _, err := i.Eval(string(src)); err != nil {
		return nil, faults.Wrap(faults.ErrCustomStep, step.Name, "evaluate", "", err)
	}
	v, err := i.Eval(pkg + "." + fn)
	if err != nil {
		return nil, faults.Wrap(faults.ErrCustomStep, step.Name, "lookup", fn, err)
	}
	call, ok := v.Interface().(func(map[string]interface{}) error)
	if !ok {
		return nil, faults.Wrap(faults.ErrCustomStep, step.Name, "lookup", fn+" has the wrong signature", ErrNoEntryPoint)
	}

	if data == nil {
		data = make(map[string]any)
	}
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = faults.Wrap(faults.ErrCustomStep, step.Name, "run", fmt.Sprintf("panic: %v", rec), nil)
		}
	}()
	if err := call(data); err != nil {
		return nil, faults.Wrap(faults.ErrCustomStep, step.Name, "run", "", err)
	}
	return data, nil
}

// EntryPoint parses src and returns its package name and the single
// exported step function.
func EntryPoint(filename string, src []byte) (pkg, fn string, err error) {
	file, err := parser.ParseFile(token.NewFileSet(), filename, src, parser.SkipObjectResolution)
	if err != nil {
		return "", "", err
	}
	var found []string
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv != nil || !fd.Name.IsExported() {
			continue
		}
		if isStepFunc(fd.Type) {
			found = append(found, fd.Name.Name)
		}
	}
	switch len(found) {
	case 1:
		return file.Name.Name, found[0], nil
	case 0:
		return "", "", ErrNoEntryPoint
	default:
		return "", "", fmt.Errorf("%w: found %s, expected exactly one", ErrNoEntryPoint, strings.Join(found, ", "))
	}
}

func isStepFunc(ft *ast.FuncType) bool {
	if ft.Params == nil || len(ft.Params.List) != 1 || len(ft.Params.List[0].Names) > 1 {
		return false
	}
	if ft.Results == nil || len(ft.Results.List) != 1 || len(ft.Results.List[0].Names) > 1 {
		return false
	}
	if res, ok := ft.Results.List[0].Type.(*ast.Ident); !ok || res.Name != "error" {
		return false
	}
	m, ok := ft.Params.List[0].Type.(*ast.MapType)
	if !ok {
		return false
	}
	if key, ok := m.Key.(*ast.Ident); !ok || key.Name != "string" {
		return false
	}
	switch val := m.Value.(type) {
	case *ast.Ident:
		return val.Name == "any"
	case *ast.InterfaceType:
		return val.Methods == nil || len(val.Methods.List) == 0
	}
	return false
}

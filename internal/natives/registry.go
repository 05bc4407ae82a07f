// Package natives holds the interpreter's built-in global functions:
// pow, sqrt and clock. Each lives in its own file and registers itself
// with the package registry from an init func, mirroring the teacher's
// plugin-registration idiom; InstallAll wires every registered native
// into a VM's globals at startup.
package natives

import (
	"fmt"

	"github.com/JacobC09/JakePlusPlus/internal/value"
)

// Spec describes one built-in: its script-visible name, declared arity
// (for a friendlier arity error than the generic native panic would
// give), the expected kind of each argument, and the Go function
// implementing it.
type Spec struct {
	Name     string
	Arity    int
	ArgKinds []value.Kind
	Fn       value.NativeFunc
}

var byName = map[string]Spec{}

// Register installs spec into the registry. Called from each native's
// init func; panics on a duplicate name since that is a programming
// error, not a runtime condition.
func Register(spec Spec) {
	if _, exists := byName[spec.Name]; exists {
		panic(fmt.Sprintf("native %s already registered", spec.Name))
	}
	byName[spec.Name] = spec
}

// All returns every registered native, in no particular order.
func All() []Spec {
	out := make([]Spec, 0, len(byName))
	for _, spec := range byName {
		out = append(out, spec)
	}
	return out
}

// checkArity wraps fn so a wrong argument count, or an argument of the
// wrong kind, reports the native's name rather than silently coercing
// (AsNumber on a non-number yields a zero value) or panicking.
func checkArity(spec Spec) value.NativeFunc {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != spec.Arity {
			return value.Value{}, fmt.Errorf("%s expects %d argument(s) but got %d", spec.Name, spec.Arity, len(args))
		}
		for i, want := range spec.ArgKinds {
			if args[i].Kind != want {
				return value.Value{}, fmt.Errorf("%s expected argument %d as %s but got %s", spec.Name, i, kindName(want), kindName(args[i].Kind))
			}
		}
		return spec.Fn(args)
	}
}

func kindName(k value.Kind) string {
	switch k {
	case value.KindNumber:
		return "number"
	case value.KindBool:
		return "bool"
	case value.KindNone:
		return "none"
	case value.KindString:
		return "string"
	default:
		return "value"
	}
}

// Installer receives a name and its native value; vm.VM.DefineGlobal
// satisfies this without the natives package importing vm directly.
type Installer interface {
	DefineGlobal(name string, v value.Value)
}

// InstallAll defines every registered native as a global on target.
func InstallAll(target Installer) {
	for _, spec := range All() {
		fn := &value.NativeFunction{Name: spec.Name, Fn: checkArity(spec)}
		target.DefineGlobal(spec.Name, value.FromNative(fn))
	}
}

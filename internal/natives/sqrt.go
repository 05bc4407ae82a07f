package natives

import (
	"math"

	"github.com/JacobC09/JakePlusPlus/internal/value"
)

func init() {
	Register(Spec{
		Name:     "sqrt",
		Arity:    1,
		ArgKinds: []value.Kind{value.KindNumber},
		Fn: func(args []value.Value) (value.Value, error) {
			return value.Number(math.Sqrt(args[0].AsNumber())), nil
		},
	})
}

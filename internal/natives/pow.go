package natives

import (
	"math"

	"github.com/JacobC09/JakePlusPlus/internal/value"
)

func init() {
	Register(Spec{
		Name:     "pow",
		Arity:    2,
		ArgKinds: []value.Kind{value.KindNumber, value.KindNumber},
		Fn: func(args []value.Value) (value.Value, error) {
			base, exp := args[0].AsNumber(), args[1].AsNumber()
			return value.Number(math.Pow(base, exp)), nil
		},
	})
}

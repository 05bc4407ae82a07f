package natives

import (
	"time"

	"github.com/JacobC09/JakePlusPlus/internal/value"
)

// ticksPerSecond mirrors the conventional CLOCKS_PER_SEC of 100 that a
// native clock() built on a generic language runtime would report.
const ticksPerSecond = 100

var processStart = time.Now()

func init() {
	Register(Spec{
		Name:  "clock",
		Arity: 0,
		Fn: func(args []value.Value) (value.Value, error) {
			elapsed := time.Since(processStart)
			ticks := elapsed.Seconds() * ticksPerSecond
			return value.Number(float64(int64(ticks))), nil
		},
	})
}

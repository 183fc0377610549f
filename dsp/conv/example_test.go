package conv_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-webaudio/dsp/conv"
)

func rounded(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if math.Abs(v) >= 1e-9 {
			out[i] = math.Round(v*100) / 100
		}
	}
	return out
}

func ExampleStreamingOverlapSave() {
	sos, _ := conv.NewStreamingOverlapSave([]float64{1, 0.5}, 4)

	out := make([]float64, 4)
	_ = sos.ProcessBlockTo(out, []float64{0, 0, 0, 1})
	fmt.Println(rounded(out))

	_ = sos.ProcessBlockTo(out, []float64{0, 0, 0, 0})
	fmt.Println(rounded(out))

	// Output:
	// [0 0 0 1]
	// [0.5 0 0 0]
}

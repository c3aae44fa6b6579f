package modulation_test

import (
	"fmt"

	"github.com/cwbudde/algo-fshift/dsp/effects/modulation"
)

func ExampleFrequencyShifter_ProcessSample() {
	shifter, err := modulation.NewFrequencyShifter(48000, modulation.WithFrequencyShiftHz(100))
	if err != nil {
		fmt.Println("error")
		return
	}

	fmt.Printf("%.6f\n", shifter.ProcessSample(1))
	// Output: 0.108899
}

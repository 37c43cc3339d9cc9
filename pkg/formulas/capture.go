package formulas

// CaptureRatios holds up/down market capture versus a benchmark.
type CaptureRatios struct {
	Up      float64 `json:"up_capture"`
	Down    float64 `json:"down_capture"`
	Overall float64 `json:"overall"` // up / |down|, neutral 1.0 when undefined
}

// UpDownCapture partitions paired fund/benchmark daily returns by the sign
// of the benchmark return and compares mean fund performance in each
// subset:
//
//	capture = mean(fund returns in subset) / mean(benchmark returns in subset)
//
// The overall score is up / |down|. When either subset is empty, or a
// benchmark mean is zero, the affected ratio defaults to the neutral 1.0.
// Series must be aligned; the shorter length is used.
func UpDownCapture(fundReturns, benchReturns []float64) CaptureRatios {
	n := len(fundReturns)
	if len(benchReturns) < n {
		n = len(benchReturns)
	}

	neutral := CaptureRatios{Up: 1.0, Down: 1.0, Overall: 1.0}
	if n == 0 {
		return neutral
	}

	var upFund, upBench, downFund, downBench []float64
	for i := 0; i < n; i++ {
		switch {
		case benchReturns[i] > 0:
			upFund = append(upFund, fundReturns[i])
			upBench = append(upBench, benchReturns[i])
		case benchReturns[i] < 0:
			downFund = append(downFund, fundReturns[i])
			downBench = append(downBench, benchReturns[i])
		}
	}

	c := neutral
	if len(upBench) > 0 {
		if mb := Mean(upBench); mb != 0 {
			c.Up = Mean(upFund) / mb
		}
	}
	if len(downBench) > 0 {
		if mb := Mean(downBench); mb != 0 {
			c.Down = Mean(downFund) / mb
		}
	}

	if c.Down != 0 {
		c.Overall = c.Up / abs(c.Down)
	}
	return c
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

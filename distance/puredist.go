package distance

func squaredEuclideanDistancePureGo(x, y []float64) float64 {
	var sum float64
	for i := range x {
		diff := x[i] - y[i]
		sum += diff * diff
	}
	return sum
}

package optimizer

// Observer receives progress of both loops, one call per iteration
type Observer interface {
	RepairIteration(cost int, sigma float64, improved bool)
	SigmaAdapted(sigma float64)
	AnnealIteration(cost, temperature float64, accepted bool)
}

type nopObserver struct{}

func NopObserver() Observer {
	return nopObserver{}
}

func (nopObserver) RepairIteration(int, float64, bool) {}

func (nopObserver) SigmaAdapted(float64) {}

func (nopObserver) AnnealIteration(float64, float64, bool) {}

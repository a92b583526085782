package ecs

// Time is updated at the start of every frame.
type Time struct {
	// Delta is the time of the current frame in seconds.
	Delta float64

	// Elapsed is the sum of all frame deltas.
	Elapsed float64

	// Frame counts frames starting at one.
	Frame uint64
}

// FixedTime is updated before every run of a fixed stage.
type FixedTime struct {
	// Step is the simulated time of one fixed run in seconds.
	Step float64

	Delta   float64
	Elapsed float64

	accumulator float64
}

// Overstep returns the time accumulated towards the next fixed run.
func (t FixedTime) Overstep() float64 {
	return t.accumulator
}

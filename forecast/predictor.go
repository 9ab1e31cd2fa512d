package forecast

// Predictor runs one inference over a window of per-timestep feature vectors
// and returns the model's scalar output.
type Predictor interface {
	Predict(window [][]float64) (float64, error)
	// InputFeatures reports the number of channels the model expects per timestep.
	InputFeatures() int
}

// Sampler produces independent sample trajectories from a pretrained pipeline.
// The multi-step sampling procedure is the pipeline's own; callers never loop.
type Sampler interface {
	Sample(prices []float64, steps, numSamples int) ([][]float64, error)
}

// Scaler reproduces the training-time feature preprocessing of a model.
type Scaler interface {
	Transform(rows [][]float64) ([][]float64, error)
}

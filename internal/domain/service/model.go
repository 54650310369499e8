package service

// Scaler maps raw feature vectors into model space. A fitted scaler is never refit.
type Scaler interface {
	Transform(x []float64) ([]float64, error)
	Dim() int
}

// Regressor predicts a point value from a scaled feature vector.
type Regressor interface {
	Predict(x []float64) (float64, error)
	Dim() int
}

package training

import (
	"fmt"

	"StockPulse/internal/domain/service"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Ridge is an L2 regularized linear model with a fitted intercept.
type Ridge struct {
	Alpha     float64   `json:"alpha"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

var _ service.Regressor = (*Ridge)(nil)

// FitRidge solves (XcᵀXc + αI)w = Xcᵀyc on centered data and recovers the intercept.
func FitRidge(X [][]float64, y []float64, alpha float64) (*Ridge, error) {
	n := len(X)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("ridge: %d rows and %d targets", n, len(y))
	}
	if alpha <= 0 {
		return nil, fmt.Errorf("ridge: alpha must be positive, got %v", alpha)
	}
	p := len(X[0])

	xMean := make([]float64, p)
	for _, row := range X {
		floats.Add(xMean, row)
	}
	floats.Scale(1/float64(n), xMean)
	yMean := stat.Mean(y, nil)

	xc := mat.NewDense(n, p, nil)
	yc := mat.NewVecDense(n, nil)
	for i, row := range X {
		for j, v := range row {
			xc.Set(i, j, v-xMean[j])
		}
		yc.SetVec(i, y[i]-yMean)
	}

	var gram mat.SymDense
	gram.SymOuterK(1, xc.T())
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+alpha)
	}
	var rhs mat.VecDense
	rhs.MulVec(xc.T(), yc)

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return nil, fmt.Errorf("ridge: normal equations not positive definite")
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &rhs); err != nil {
		return nil, fmt.Errorf("ridge: solve: %w", err)
	}

	coef := make([]float64, p)
	for j := range coef {
		coef[j] = w.AtVec(j)
	}
	return &Ridge{Alpha: alpha, Coef: coef, Intercept: yMean - floats.Dot(xMean, coef)}, nil
}

func (r *Ridge) Dim() int { return len(r.Coef) }

func (r *Ridge) Predict(x []float64) (float64, error) {
	if len(x) != len(r.Coef) {
		return 0, fmt.Errorf("ridge: got %d features, fitted on %d", len(x), len(r.Coef))
	}
	return r.Intercept + floats.Dot(r.Coef, x), nil
}

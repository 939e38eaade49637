package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// GaussianNLL returns the negative log likelihood of the targets under
// N(pred, sigma^2), summed over the batch, together with the gradient
// with respect to the predictions and to log(sigma).
//
// pred must be a [batch, 1] matrix; sigma is the (homoscedastic) learned
// noise scale of the model.
func GaussianNLL(pred *mat.Dense, targets []float64, sigma float64) (nll float64, dPred *mat.Dense, dLogSigma float64) {
	batch, _ := pred.Dims()
	dPred = mat.NewDense(batch, 1, nil)

	logCoeff := math.Log(sigma) + 0.5*math.Log(2*math.Pi)
	inv2 := 1 / (sigma * sigma)

	for i := 0; i < batch; i++ {
		r := pred.At(i, 0) - targets[i]
		nll += 0.5*r*r*inv2 + logCoeff
		dPred.Set(i, 0, r*inv2)
		dLogSigma += 1 - r*r*inv2
	}
	return nll, dPred, dLogSigma
}

// MSE returns the mean squared error over the batch and its gradient with
// respect to the predictions.
func MSE(pred *mat.Dense, targets []float64) (float64, *mat.Dense) {
	batch, _ := pred.Dims()
	dPred := mat.NewDense(batch, 1, nil)

	var sum float64
	for i := 0; i < batch; i++ {
		r := pred.At(i, 0) - targets[i]
		sum += r * r
		dPred.Set(i, 0, 2*r/float64(batch))
	}
	return sum / float64(batch), dPred
}

// RMSE returns the root mean squared error between predictions and targets.
func RMSE(pred, targets []float64) float64 {
	var sum float64
	for i := range pred {
		r := pred[i] - targets[i]
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(pred)))
}

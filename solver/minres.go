package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/StructKernel/utils"
)

// ErrNotConverged is returned when the residual does not reach the tolerance
var ErrNotConverged = errors.New("solver did not converge")

// Config controls the iterative solve
type Config struct {
	Tolerance     float64 // relative residual target ‖b - A·x‖ / ‖b‖
	MaxIterations int     // 0 selects 10·n + 100
}

// DefaultConfig returns the settings used when a model does not override them
func DefaultConfig() Config {
	return Config{Tolerance: 1e-10}
}

func (c Config) maxIterations(n int) int {
	if c.MaxIterations > 0 {
		return c.MaxIterations
	}
	return 10*n + 100
}

// Result reports the solution and how it was reached
type Result struct {
	X          []float64
	Iterations int
	Residual   float64 // relative residual ‖b - A·x‖ / ‖b‖, recomputed at exit
}

// MINRES solves A·x = b for a symmetric, possibly indefinite or singular A
// (Paige & Saunders, unpreconditioned). A singular but consistent system
// converges to the solution with no component in the null space of A.
func MINRES(ctx context.Context, A *sparse.CSR, b []float64, cfg Config) (Result, error) {
	r, c := A.Dims()
	if r != c {
		return Result{}, fmt.Errorf("%w: minres needs a square matrix, got %dx%d", utils.ErrDimensionMismatch, r, c)
	}
	if len(b) != r {
		return Result{}, fmt.Errorf("%w: matrix %dx%d with right-hand side of length %d", utils.ErrDimensionMismatch, r, c, len(b))
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultConfig().Tolerance
	}

	var (
		n     = r
		x     = make([]float64, n)
		beta1 = floats.Norm(b, 2)
	)
	if beta1 == 0 {
		return Result{X: x}, nil
	}

	var (
		r1     = append([]float64(nil), b...)
		r2     = append([]float64(nil), b...)
		y      = append([]float64(nil), b...)
		v      = make([]float64, n)
		w      = make([]float64, n)
		w1     = make([]float64, n)
		w2     = make([]float64, n)
		oldb   float64
		beta   = beta1
		dbar   float64
		epsln  float64
		phibar = beta1
		tnorm2 float64
		cs     = -1.0
		sn     = 0.0
		eps    = math.Nextafter(1, 2) - 1
		maxIt  = cfg.maxIterations(n)
	)

	var (
		itn       int
		converged bool
	)

	for itn = 1; itn <= maxIt; itn++ {
		if err := ctx.Err(); err != nil {
			return Result{X: x, Iterations: itn - 1}, err
		}

		// Lanczos step
		floats.ScaleTo(v, 1/beta, y)
		Av, err := utils.MulVec(A, v)
		if err != nil {
			return Result{}, err
		}
		copy(y, Av)
		if itn >= 2 {
			floats.AddScaled(y, -beta/oldb, r1)
		}
		alfa := floats.Dot(v, y)
		floats.AddScaled(y, -alfa/beta, r2)
		copy(r1, r2)
		copy(r2, y)
		oldb = beta
		beta = floats.Norm(r2, 2)
		tnorm2 += alfa*alfa + oldb*oldb + beta*beta

		// apply previous rotation, then compute the new one
		oldeps := epsln
		delta := cs*dbar + sn*alfa
		gbar := sn*dbar - cs*alfa
		epsln = sn * beta
		dbar = -cs * beta
		gamma := math.Hypot(gbar, beta)
		// singular tridiagonal: b has a component outside the range of A
		if gamma <= eps*math.Sqrt(tnorm2) {
			break
		}
		cs = gbar / gamma
		sn = beta / gamma
		phi := cs * phibar
		phibar = sn * phibar

		// update the solution
		copy(w1, w2)
		copy(w2, w)
		for i := range w {
			w[i] = (v[i] - oldeps*w1[i] - delta*w2[i]) / gamma
		}
		floats.AddScaled(x, phi, w)

		if phibar <= cfg.Tolerance*beta1 {
			converged = true
			break
		}
		// Krylov space exhausted: b has a component outside the range of A
		if beta <= eps*beta1 {
			break
		}
	}
	if itn > maxIt {
		itn = maxIt
	}

	res, err := relativeResidual(A, x, b, beta1)
	if err != nil {
		return Result{}, err
	}
	out := Result{X: x, Iterations: itn, Residual: res}
	if !converged && res > cfg.Tolerance {
		return out, fmt.Errorf("%w: relative residual %.3e after %d iterations (tolerance %.3e)",
			ErrNotConverged, res, itn, cfg.Tolerance)
	}
	return out, nil
}

func relativeResidual(A *sparse.CSR, x, b []float64, bnorm float64) (float64, error) {
	Ax, err := utils.MulVec(A, x)
	if err != nil {
		return 0, err
	}
	floats.Sub(Ax, b)
	return floats.Norm(Ax, 2) / bnorm, nil
}

// internal/rating/glicko2.go
package rating

import "math"

const (
	// GlickoScale converts between the 1500-based scale and Glicko2's mu.
	GlickoScale = 173.7178
	// DefaultElo is the baseline rating on the 1500-based scale.
	DefaultElo = 1500.0
	// DefaultPhi is the baseline rating deviation (RD).
	DefaultPhi = 350.0
	// DefaultSigma is the baseline volatility.
	DefaultSigma = 0.06
	// Tau constrains volatility changes.
	Tau = 0.5
	// Epsilon is the tolerance of the volatility iteration.
	Epsilon = 0.000001
)

// Rating holds the transformed rating (Mu), rating deviation (Phi), and
// volatility (Sigma) for one identity in Glicko2 space.
type Rating struct {
	Mu    float64
	Phi   float64
	Sigma float64
}

// NewRating converts a 1500-based elo, deviation, and volatility into
// Glicko2 space.
func NewRating(elo, rd, sigma float64) Rating {
	return Rating{
		Mu:    (elo - DefaultElo) / GlickoScale,
		Phi:   rd / GlickoScale,
		Sigma: sigma,
	}
}

// Elo converts the rating back to the 1500-based scale.
func (r Rating) Elo() float64 {
	return r.Mu*GlickoScale + DefaultElo
}

// Update applies a single-match Glicko2 update with volatility against an
// opponent rating, given the final score in [0,1].
func Update(r, opp Rating, score float64) Rating {
	gVal := g(opp.Phi)
	eVal := e(r.Mu, opp.Mu, opp.Phi)

	v := 1.0 / (gVal * gVal * eVal * (1 - eVal))
	delta := v * gVal * (score - eVal)

	a := math.Log(r.Sigma * r.Sigma)
	bigA := a
	var bigB float64
	if delta*delta > r.Phi*r.Phi+v {
		bigB = math.Log(delta*delta - r.Phi*r.Phi - v)
	} else {
		k := 1.0
		for f(a-k*Tau, r.Phi, v, delta, bigA) < 0 {
			k++
		}
		bigB = a - k*Tau
	}

	fA := func(x float64) float64 {
		return f(x, r.Phi, v, delta, bigA)
	}

	fB := fA(bigB)
	for i := 0; i < 100; i++ {
		fAVal := fA(bigA)
		if math.Abs(fAVal) < Epsilon {
			break
		}
		prev := bigA
		bigA = prev - fAVal*(prev-bigB)/(fAVal-fB)
		fB = fA(bigB)
		if math.Abs(bigA-bigB) < Epsilon {
			break
		}
	}
	newSigma := math.Exp(bigA / 2)
	phiStar := math.Sqrt(r.Phi*r.Phi + newSigma*newSigma)
	phiPrime := 1.0 / math.Sqrt(1.0/(phiStar*phiStar)+1.0/v)
	muPrime := r.Mu + phiPrime*phiPrime*gVal*(score-eVal)

	return Rating{
		Mu:    muPrime,
		Phi:   phiPrime,
		Sigma: newSigma,
	}
}

// g is the G(phi) dampening factor, 1/sqrt(1+3phi^2/pi^2).
func g(phi float64) float64 {
	return 1.0 / math.Sqrt(1.0+3.0*phi*phi/math.Pi/math.Pi)
}

// e is the expected score in Glicko2 space.
func e(mu, mu2, phi2 float64) float64 {
	return 1.0 / (1.0 + math.Exp(-g(phi2)*(mu-mu2)))
}

// f is the volatility root-finding function.
func f(x, phi, v, delta, a float64) float64 {
	ex := math.Exp(x)
	num := ex * (delta*delta - phi*phi - v - ex)
	den := 2.0 * (phi*phi + v + ex) * (phi*phi + v + ex)
	return (num / den) - ((x - a) / (Tau * Tau))
}

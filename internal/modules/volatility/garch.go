package volatility

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/optimize"

	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/pkg/formulas"
)

// Returns are fitted in percent; tiny daily variances make the likelihood
// surface too flat for the simplex otherwise.
const garchScale = 100.0

// GARCHParams are the fitted GARCH(1,1)-t parameters in return units.
type GARCHParams struct {
	Mu            float64 `json:"mu"`
	Omega         float64 `json:"omega"`
	Alpha         float64 `json:"alpha"`
	Beta          float64 `json:"beta"`
	Nu            float64 `json:"nu"`
	LogLikelihood float64 `json:"log_likelihood"`
	Iterations    int     `json:"iterations"`
}

// Persistence is α + β.
func (p GARCHParams) Persistence() float64 {
	return p.Alpha + p.Beta
}

// garchModel holds the scaled series and evaluates the likelihood.
type garchModel struct {
	y        []float64
	variance float64
}

// unpack maps unconstrained optimizer coordinates to a stationary parameter
// set: ω > 0, α ∈ (0, 1), β ∈ (0, 1-α), ν > 2.
func unpack(x []float64) (mu, omega, alpha, beta, nu float64) {
	mu = x[0]
	omega = math.Exp(x[1])
	alpha = 0.999 * logistic(x[2])
	beta = 0.999 * (1 - alpha) * logistic(x[3])
	nu = 2.05 + math.Exp(x[4])
	return
}

func pack(mu, omega, alpha, beta, nu float64) []float64 {
	return []float64{
		mu,
		math.Log(omega),
		logit(alpha / 0.999),
		logit(beta / (0.999 * (1 - alpha))),
		math.Log(nu - 2.05),
	}
}

func logistic(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func logit(p float64) float64 { return math.Log(p / (1 - p)) }

// conditionalVariances runs the variance recursion, seeded with the sample
// variance. The returned slice has len(y)+1 entries; the last one is the
// forecast for the period after the sample.
func (m garchModel) conditionalVariances(mu, omega, alpha, beta float64) []float64 {
	h := make([]float64, len(m.y)+1)
	h[0] = m.variance
	for t := 1; t <= len(m.y); t++ {
		eps := m.y[t-1] - mu
		h[t] = omega + alpha*eps*eps + beta*h[t-1]
	}
	return h
}

// negLogLikelihood is the standardized Student-t negative log-likelihood.
func (m garchModel) negLogLikelihood(x []float64) float64 {
	mu, omega, alpha, beta, nu := unpack(x)
	h := m.conditionalVariances(mu, omega, alpha, beta)

	// ln Γ((ν+1)/2) - ln Γ(ν/2) - ½ ln(π(ν-2))
	constant := -mathext.Lbeta(nu/2, 0.5) - 0.5*math.Log(nu-2)

	ll := 0.0
	for t, y := range m.y {
		if !(h[t] > 0) || !formulas.IsFinite(h[t]) {
			return math.Inf(1)
		}
		eps := y - mu
		ll += constant - 0.5*math.Log(h[t]) - (nu+1)/2*math.Log1p(eps*eps/((nu-2)*h[t]))
	}
	if !formulas.IsFinite(ll) {
		return math.Inf(1)
	}
	return -ll
}

// FitGARCH estimates GARCH(1,1)-t parameters by maximum likelihood using a
// Nelder-Mead simplex capped at cfg.MaxIterations. Hitting the cap or any
// optimizer failure is reported as ErrModelDidNotConverge.
func FitGARCH(returns []float64, cfg Config) (GARCHParams, error) {
	if cfg.MaxIterations <= 0 {
		return GARCHParams{}, fmt.Errorf("%w: max iterations must be positive, got %d", domain.ErrInvalidParameter, cfg.MaxIterations)
	}
	if len(returns) < 2 {
		return GARCHParams{}, fmt.Errorf("%w: got %d", domain.ErrEmptyReturnSeries, len(returns))
	}

	y := make([]float64, len(returns))
	for i, r := range returns {
		y[i] = r * garchScale
	}
	mean, std := formulas.MeanStdDev(y)
	if formulas.NearZero(std) {
		return GARCHParams{}, fmt.Errorf("%w: std=%v", domain.ErrDegenerateVariance, std)
	}
	model := garchModel{y: y, variance: std * std}

	init := pack(mean, 0.05*model.variance, 0.1, 0.85, 8)
	problem := optimize.Problem{Func: model.negLogLikelihood}
	settings := &optimize.Settings{
		MajorIterations: cfg.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-9,
			Relative:   1e-12,
			Iterations: 200,
		},
	}

	result, err := optimize.Minimize(problem, init, settings, &optimize.NelderMead{})
	if err != nil {
		return GARCHParams{}, fmt.Errorf("%w: %v", domain.ErrModelDidNotConverge, err)
	}
	if result.Status.Early() {
		return GARCHParams{}, fmt.Errorf("%w: optimizer stopped with status %s after %d iterations",
			domain.ErrModelDidNotConverge, result.Status, result.Stats.MajorIterations)
	}
	if !formulas.IsFinite(result.F) {
		return GARCHParams{}, fmt.Errorf("%w: non-finite likelihood", domain.ErrModelDidNotConverge)
	}

	mu, omega, alpha, beta, nu := unpack(result.X)
	return GARCHParams{
		Mu:            mu / garchScale,
		Omega:         omega / (garchScale * garchScale),
		Alpha:         alpha,
		Beta:          beta,
		Nu:            nu,
		LogLikelihood: -result.F,
		Iterations:    result.Stats.MajorIterations,
	}, nil
}

// GARCHForecast fits the model once over the whole series and returns, for
// every date t >= Window-1, the one-step-ahead conditional volatility
// σ_{t+1|t} labelled with date t and the constant conditional mean μ. The
// first Window-1 dates are burn-in and produce no forecast.
func GARCHForecast(series domain.Series, cfg Config) (domain.VolatilityForecast, GARCHParams, error) {
	n := series.Len()
	if err := cfg.validateWindow(n); err != nil {
		return domain.VolatilityForecast{}, GARCHParams{}, err
	}

	params, err := FitGARCH(series.Values, cfg)
	if err != nil {
		return domain.VolatilityForecast{}, GARCHParams{}, err
	}

	// Rerun the recursion in return units with the fitted parameters.
	std := formulas.StdDev(series.Values)
	model := garchModel{y: series.Values, variance: std * std}
	h := model.conditionalVariances(params.Mu, params.Omega, params.Alpha, params.Beta)

	points := make([]domain.ForecastPoint, 0, n-cfg.Window+1)
	for t := cfg.Window - 1; t < n; t++ {
		points = append(points, domain.ForecastPoint{
			Date:       series.Dates[t],
			Mean:       params.Mu,
			Volatility: math.Sqrt(h[t+1]),
		})
	}

	return domain.VolatilityForecast{Model: GARCH.String(), Points: points}, params, nil
}

package forecast

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/transitlab/ridecast/internal/config"
	"github.com/transitlab/ridecast/internal/mathutil"
	"github.com/transitlab/ridecast/pkg/errors"
	"github.com/transitlab/ridecast/pkg/models"
)

// Selector chooses an autoregressive order by information criterion.
type Selector struct {
	maxOrder int
	period   int
	logger   *logrus.Logger
}

// NewSelector creates a model selector from the pipeline configuration.
func NewSelector(cfg *config.Config, logger *logrus.Logger) *Selector {
	if logger == nil {
		logger = logrus.New()
	}
	return &Selector{
		maxOrder: cfg.MaxAROrder,
		period:   cfg.SeasonalPeriod,
		logger:   logger,
	}
}

// Select evaluates candidate AR orders 0..max on the differenced series and
// picks the one minimizing corrected AIC. Ties break toward the lowest
// order. The differencing order is taken from the stationarity verdict and
// the seasonal period is passed through from configuration.
func (s *Selector) Select(series *models.CleanSeries, verdict *models.StationarityVerdict) (models.ModelSpec, error) {
	d := verdict.DifferencingOrder
	diffed := mathutil.Difference(series.Values(), d)
	if diffed == nil {
		return models.ModelSpec{}, errors.NewInsufficientDataError("series too short to difference")
	}

	maxOrder := s.maxOrder
	if maxOrder >= len(diffed) {
		maxOrder = len(diffed) - 1
	}

	// Every candidate is conditioned on the same sample: order p drops the
	// leading maxOrder-p values before fitting, so each regression targets
	// diffed[maxOrder:] and the likelihoods are comparable. Without this the
	// criterion rewards higher orders for simply covering fewer observations.
	bestOrder := -1
	bestAICc := math.Inf(1)
	for p := 0; p <= maxOrder; p++ {
		model, err := FitAR(diffed[maxOrder-p:], p)
		if err != nil {
			// Higher orders only get more underdetermined.
			break
		}
		if model.AICc < bestAICc {
			bestAICc = model.AICc
			bestOrder = p
		}
	}

	if bestOrder < 0 {
		return models.ModelSpec{}, errors.NewModelFitError("no candidate autoregressive order could be fitted")
	}

	s.logger.WithFields(logrus.Fields{
		"station":  series.StationID,
		"ar_order": bestOrder,
		"diff":     d,
		"aicc":     bestAICc,
	}).Debug("Selected model")

	return models.ModelSpec{
		AROrder:           bestOrder,
		DifferencingOrder: d,
		SeasonalPeriod:    s.period,
		AICc:              bestAICc,
	}, nil
}

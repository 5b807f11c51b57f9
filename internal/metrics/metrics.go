package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eugenenazirov/diacritics-settings/internal/apiversion"
	"github.com/eugenenazirov/diacritics-settings/internal/diacritics"
)

var (
	versionUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diacritics_version_updates_total",
		Help: "Total number of API version update attempts by outcome",
	}, []string{"outcome"})

	apiVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "diacritics_api_version",
		Help: "Parsed major number of the currently selected diacritics API version",
	})
)

// RecordVersionUpdate records one version update attempt and the resulting version.
func RecordVersionUpdate(res diacritics.UpdateResult) {
	versionUpdatesTotal.WithLabelValues(normalizeOutcomeLabel(res.Outcome)).Inc()
	SetAPIVersion(res.Version)
}

// SetAPIVersion publishes the parsed number of version.
func SetAPIVersion(version string) {
	if n, ok := apiversion.ParseInt(version); ok {
		apiVersion.Set(float64(n))
	}
}

func normalizeOutcomeLabel(outcome diacritics.Outcome) string {
	switch outcome {
	case diacritics.OutcomeDowngraded,
		diacritics.OutcomeReaffirmed,
		diacritics.OutcomeNotANumber,
		diacritics.OutcomeNonPositive,
		diacritics.OutcomeUpgrade:
		return string(outcome)
	default:
		return "unknown"
	}
}

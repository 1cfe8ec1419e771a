package store

import "time"

// Detection records one region detection run and the probe statistics that
// produced it. Only the resolved classification and rates are persisted;
// per-domain results are ephemeral.
type Detection struct {
	ID                 int64
	Region             string
	ChinaSuccessRate   float64
	GlobalSuccessRate  float64
	ChinaAvgLatencyMs  int64
	GlobalAvgLatencyMs int64
	DetectedAt         time.Time
}

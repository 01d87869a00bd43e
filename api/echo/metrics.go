package echoapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan endpoints are hit by unattended devices; counters are the only way to
// notice a misbehaving scanner short of tailing logs.
var (
	scanRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mahudhurio_scan_requests_total",
			Help: "Scan endpoint requests by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	attendanceMarked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mahudhurio_attendance_marked_total",
			Help: "Attendance records created via scan devices.",
		},
	)
)

func countScan(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	scanRequests.WithLabelValues(operation, outcome).Inc()
}

package attendance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classtrack_attendance_sessions_created_total",
		Help: "Attendance sessions opened by lecturers.",
	})

	checkins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classtrack_attendance_checkins_total",
		Help: "Check-in attempts by outcome.",
	}, []string{"result"})
)

const (
	checkinOK        = "ok"
	checkinExpired   = "expired"
	checkinDuplicate = "duplicate"
	checkinGeofence  = "outside_geofence"
	checkinRejected  = "rejected"
)

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSchedulingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulingMetrics(reg)
	m.ObserveBooking("booked")
	m.ObserveBooking("slot_conflict")
	m.ObserveTransition("complete", "ok")
	m.ObservePollCycle("ok")
	m.ObserveEventEmitted(3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}
}

func TestSchedulingMetricsNilReceiver(t *testing.T) {
	var m *SchedulingMetrics
	m.ObserveBooking("booked")
	m.ObserveTransition("cancel", "ok")
	m.ObservePollCycle("error")
	m.ObserveEventEmitted(1)
}

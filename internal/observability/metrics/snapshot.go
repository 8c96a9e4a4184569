package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// FunnelSnapshot summarises funnel activity for the stats endpoint.
type FunnelSnapshot struct {
	Submissions    map[string]int64 `json:"submissions"`
	Transitions    map[string]int64 `json:"transitions"`
	ActiveSessions int64            `json:"active_sessions"`
}

// Snapshot reads the funnel collectors back out of gatherer. Missing
// families yield empty maps.
func Snapshot(gatherer prometheus.Gatherer) FunnelSnapshot {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	out := FunnelSnapshot{
		Submissions: map[string]int64{},
		Transitions: map[string]int64{},
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return out
	}

	for _, mf := range mfs {
		if mf == nil {
			continue
		}
		switch mf.GetName() {
		case namespace + "_gateway_submissions_total":
			for _, metric := range mf.Metric {
				if metric == nil || metric.GetCounter() == nil {
					continue
				}
				out.Submissions[labelValue(metric, "result")] += int64(metric.GetCounter().GetValue())
			}
		case namespace + "_wizard_transitions_total":
			for _, metric := range mf.Metric {
				if metric == nil || metric.GetCounter() == nil {
					continue
				}
				key := labelValue(metric, "from") + "->" + labelValue(metric, "to")
				out.Transitions[key] += int64(metric.GetCounter().GetValue())
			}
		case namespace + "_wizard_active_sessions":
			for _, metric := range mf.Metric {
				if metric != nil && metric.GetGauge() != nil {
					out.ActiveSessions = int64(metric.GetGauge().GetValue())
				}
			}
		}
	}
	return out
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.Label {
		if lp == nil {
			continue
		}
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

package dashboard

// EvaluateAlerts returns an Alert for every metric whose current value lies
// strictly outside its configured range. Values equal to a bound are in
// range. Metrics without a configured range never alert. The result is
// ordered by the display order of Metrics and recomputed from scratch on
// every call.
func EvaluateAlerts(snapshot Snapshot, thresholds Thresholds) []Alert {
	var alerts []Alert

	for _, metric := range Metrics {
		state, ok := snapshot.Metrics[metric]
		if !ok {
			continue
		}

		limits, ok := thresholds[metric]
		if !ok {
			continue
		}

		value := state.Current.Value
		if value < limits.Min || value > limits.Max {
			alerts = append(alerts, Alert{
				Metric: metric,
				Value:  value,
				Limits: limits,
			})
		}
	}

	return alerts
}

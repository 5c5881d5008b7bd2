/*
Package observability turns session lifecycle hooks into Prometheus metrics
and structured log records.

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	engine, _ := turnstile.New(reg, turnstile.WithLifecycleHooks(
		observability.Combine(metrics.Hooks(), observability.LogHooks(logger)),
	))
	http.Handle("/metrics", metrics.Handler())
*/
package observability

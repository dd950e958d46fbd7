package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// ActivationMetrics is returned by GET /v1/metrics/activation.
type ActivationMetrics struct {
	TotalActivations  int64            `json:"totalActivations"`
	Succeeded         int64            `json:"succeeded"`
	Failed            int64            `json:"failed"`
	Rejected          int64            `json:"rejected"`
	SuccessRate       float64          `json:"successRate"`
	StepFailures      map[string]int64 `json:"stepFailures"`
	Compensations     int64            `json:"compensations"`
	SessionRejections int64            `json:"sessionRejections"`
	Period            string           `json:"period"`
}

// ============================================================
// Generic API Response wrappers
// ============================================================

// ListParams are the pagination/search parameters forwarded to the backend.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
}

// ListResponse wraps paginated list results.
type ListResponse[T any] struct {
	Data     []T  `json:"data"`
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasMore  bool `json:"has_more"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

package handler

import (
	"net/http"

	"github.com/wasselni/ridehail/pkg/logger"
	wrap "github.com/wasselni/ridehail/pkg/logger/wrapper"
)

type Health struct {
	serviceName string
	version     string
	l           logger.Logger
}

func NewHealth(serviceName, version string, l logger.Logger) *Health {
	return &Health{serviceName: serviceName, version: version, l: l}
}

func (h *Health) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "health_check")

	response := envelope{
		"status": "available",
		"system_info": map[string]string{
			"service-name": h.serviceName,
			"version":      h.version,
		},
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(ctx, "healthcheck", err)
	}
}

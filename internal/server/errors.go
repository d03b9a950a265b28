// Package server provides the HTTP API of the demand synthesis agent.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/config"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/hubspot"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/ingestion"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/pipeline"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/reconcile"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// Failures of upstream APIs map to 502, missing server-side setup to 503.
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		configErr     *config.ConfigError
		fetchErr      *ingestion.FetchError
		syncErr       *reconcile.SyncError
		apiErr        *hubspot.APIError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, pipeline.ErrNoStore), errors.As(err, &configErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &fetchErr), errors.As(err, &syncErr), errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

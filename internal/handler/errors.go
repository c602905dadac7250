package handler

import (
	"errors"
	"net/http"

	"github.com/iqbalbaharum/hyper-sdk/internal/coder"
	"github.com/iqbalbaharum/hyper-sdk/internal/engine"
	"github.com/iqbalbaharum/hyper-sdk/internal/sdk"
	"github.com/iqbalbaharum/hyper-sdk/internal/storage"
)

const ErrTimeout = "request timed out"

var errBadRequest = errors.New("bad request")

var codecErrors = []error{
	coder.ErrRange,
	coder.ErrFormat,
	coder.ErrLength,
	coder.ErrMalformedInstruction,
	coder.ErrCompose,
	storage.ErrInvalidFilter,
	errBadRequest,
}

var stateErrors = []error{
	engine.ErrUnresolved,
	engine.ErrUnknownPair,
	engine.ErrUnknownCurve,
	engine.ErrUnknownPool,
	engine.ErrPoolExists,
	engine.ErrExhausted,
}

func statusOf(err error) int {
	for _, target := range codecErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}

	for _, target := range stateErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}

	switch {
	case errors.Is(err, sdk.ErrNotDeployed):
		return http.StatusServiceUnavailable
	case errors.Is(err, storage.ErrDeploymentNotFound):
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	select {
	case <-r.Context().Done():
		http.Error(w, ErrTimeout, http.StatusGatewayTimeout)
	default:
		http.Error(w, err.Error(), statusOf(err))
	}
}

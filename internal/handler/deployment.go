package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iqbalbaharum/hyper-sdk/internal/coder"
	"github.com/iqbalbaharum/hyper-sdk/internal/sdk"
	"github.com/iqbalbaharum/hyper-sdk/internal/types"
	"github.com/iqbalbaharum/hyper-sdk/internal/utils"
	"go.uber.org/zap"
)

// Attacher is the part of the sdk client that owns deployment addresses.
type Attacher interface {
	Attach(d types.Deployment) error
	Deployment() (types.Deployment, bool)
}

type DeploymentStore interface {
	SetDeployment(ctx context.Context, d *types.Deployment) error
}

type DeploymentRequest struct {
	Hyper     string `json:"hyper"`
	Forwarder string `json:"forwarder"`
}

type deploymentHandler struct {
	client  Attacher
	store   DeploymentStore
	chainId uint64
	log     *zap.Logger
}

// NewDeploymentHandler serves the attached deployment. store may be nil, in
// which case updates are kept in memory only.
func NewDeploymentHandler(client Attacher, store DeploymentStore, chainId uint64, log *zap.Logger) *deploymentHandler {
	return &deploymentHandler{client: client, store: store, chainId: chainId, log: log}
}

func (h *deploymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, ok := h.client.Deployment()
	if !ok {
		writeError(w, r, sdk.ErrNotDeployed)
		return
	}

	utils.Encode(w, r, http.StatusOK, d)
}

func (h *deploymentHandler) Put(w http.ResponseWriter, r *http.Request) {
	decoded, err := utils.Decode[DeploymentRequest](r)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	hyper, err := coder.ParseAddress(decoded.Hyper)
	if err != nil {
		writeError(w, r, fmt.Errorf("hyper: %w", err))
		return
	}

	forwarder, err := coder.ParseAddress(decoded.Forwarder)
	if err != nil {
		writeError(w, r, fmt.Errorf("forwarder: %w", err))
		return
	}

	d := types.Deployment{Hyper: hyper, Forwarder: forwarder, ChainId: h.chainId}
	if err := h.client.Attach(d); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	if h.store != nil {
		if err := h.store.SetDeployment(r.Context(), &d); err != nil {
			h.log.Error("failed to persist deployment", zap.Error(err))
			writeError(w, r, err)
			return
		}
	}

	utils.Encode(w, r, http.StatusOK, d)
}

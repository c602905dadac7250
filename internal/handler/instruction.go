package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/iqbalbaharum/hyper-sdk/internal/engine"
	"github.com/iqbalbaharum/hyper-sdk/internal/instructions"
	"github.com/iqbalbaharum/hyper-sdk/internal/sdk"
	"github.com/iqbalbaharum/hyper-sdk/internal/utils"
	"go.uber.org/zap"
)

// Submitter forwards instructions to a deployment.
type Submitter interface {
	Submit(ctx context.Context, ixs ...instructions.Instruction) (common.Hash, error)
}

type InstructionsRequest struct {
	Instructions []InstructionJSON `json:"instructions"`
}

type PayloadRequest struct {
	Hex string `json:"hex"`
}

type EncodeResponse struct {
	Hex    string `json:"hex"`
	Length int    `json:"length"`
}

type DecodeResponse struct {
	Instructions []InstructionJSON `json:"instructions"`
}

type EffectJSON struct {
	Op        string `json:"op"`
	Created   string `json:"created,omitempty"`
	Pair      uint16 `json:"pair,omitempty"`
	Curve     uint32 `json:"curve,omitempty"`
	Pool      uint64 `json:"pool,omitempty"`
	UseMax    bool   `json:"useMax,omitempty"`
	Direction string `json:"direction,omitempty"`
}

type SimulateResponse struct {
	Effects []EffectJSON `json:"effects"`
}

type SubmitResponse struct {
	Hash string `json:"hash"`
}

type instructionHandler struct {
	engine    *engine.Engine
	submitter Submitter
	log       *zap.Logger
}

func NewInstructionHandler(e *engine.Engine, submitter Submitter, log *zap.Logger) *instructionHandler {
	return &instructionHandler{engine: e, submitter: submitter, log: log}
}

func decodeInstructions(r *http.Request) ([]instructions.Instruction, error) {
	decoded, err := utils.Decode[InstructionsRequest](r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	if len(decoded.Instructions) == 0 {
		return nil, fmt.Errorf("%w: no instructions", errBadRequest)
	}

	return toInstructions(decoded.Instructions)
}

func decodeHex(r *http.Request) ([]byte, error) {
	decoded, err := utils.Decode[PayloadRequest](r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	return instructions.FromHex(decoded.Hex)
}

func (h *instructionHandler) Encode(w http.ResponseWriter, r *http.Request) {
	ixs, err := decodeInstructions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	payload, err := sdk.EncodePayload(ixs...)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.Encode(w, r, http.StatusOK, EncodeResponse{Hex: instructions.Hex(payload), Length: len(payload)})
}

func (h *instructionHandler) Decode(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeHex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ixs, err := instructions.DecodePayload(payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]InstructionJSON, len(ixs))
	for i, ix := range ixs {
		out[i] = FromInstruction(ix)
	}

	utils.Encode(w, r, http.StatusOK, DecodeResponse{Instructions: out})
}

func (h *instructionHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeHex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	effects, err := h.engine.Execute(payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]EffectJSON, len(effects))
	for i, e := range effects {
		out[i] = EffectJSON{
			Op:     e.OpCode.String(),
			Pair:   e.Pair,
			Curve:  e.Curve,
			Pool:   e.Pool.Uint64(),
			UseMax: e.UseMax,
		}
		if e.Created != instructions.EntityNone {
			out[i].Created = e.Created.String()
		}
		if e.OpCode == instructions.OpSwapExactTokens {
			out[i].Direction = e.Direction.String()
		}
	}

	utils.Encode(w, r, http.StatusOK, SimulateResponse{Effects: out})
}

func (h *instructionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ixs, err := decodeInstructions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	hash, err := h.submitter.Submit(r.Context(), ixs...)
	if err != nil {
		h.log.Warn("submit failed", zap.Error(err))
		writeError(w, r, err)
		return
	}

	utils.Encode(w, r, http.StatusAccepted, SubmitResponse{Hash: hash.Hex()})
}

package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iqbalbaharum/hyper-sdk/internal/types"
	"github.com/iqbalbaharum/hyper-sdk/internal/utils"
)

type SubmissionSearcher interface {
	Search(ctx context.Context, filter types.MySQLFilter) ([]types.Submission, error)
}

type submissionHandler struct {
	store SubmissionSearcher
}

func NewSubmissionHandler(store SubmissionSearcher) *submissionHandler {
	return &submissionHandler{store: store}
}

func (h *submissionHandler) Search(w http.ResponseWriter, r *http.Request) {
	decoded, err := utils.Decode[types.MySQLFilter](r)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	submissions, err := h.store.Search(r.Context(), decoded)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.Encode(w, r, http.StatusOK, submissions)
}

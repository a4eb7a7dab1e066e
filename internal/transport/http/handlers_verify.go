package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"signet/internal/audit"
	"signet/internal/verify"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/requestcontext"
)

// VerifyService is the slice of the verification engine the transport needs.
type VerifyService interface {
	Verify(ctx context.Context, nationalID string, probe []byte) (*verify.Result, error)
	History(ctx context.Context, customerID id.CustomerID) ([]*audit.VerificationEvent, error)
}

type verifyHandler struct {
	verifier VerifyService
	logger   *slog.Logger
}

// handleVerify decides whether the uploaded probe signature belongs to the
// customer registered under the submitted national ID.
func (h *verifyHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeValidation, "request must be multipart form data"))
		return
	}
	nationalID := r.FormValue("national_id")
	if nationalID == "" {
		WriteError(w, dErrors.New(dErrors.CodeValidation, "national_id is required"))
		return
	}
	probe, err := signatureFile(r, "signature")
	if err != nil {
		WriteError(w, err)
		return
	}
	if probe == nil {
		WriteError(w, dErrors.New(dErrors.CodeValidation, "signature file is required"))
		return
	}

	result, err := h.verifier.Verify(r.Context(), nationalID, probe)
	if err != nil {
		h.logger.WarnContext(r.Context(), "verification failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVerifyResponse(result))
}

func (h *verifyHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	customerID, err := id.ParseCustomerID(chi.URLParam(r, "customerID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	events, err := h.verifier.History(r.Context(), customerID)
	if err != nil {
		WriteError(w, err)
		return
	}
	out := make([]verificationEventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, toVerificationEventResponse(event))
	}
	writeJSON(w, http.StatusOK, out)
}

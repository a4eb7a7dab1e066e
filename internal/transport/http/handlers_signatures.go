package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	sigmodels "signet/internal/signature/models"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/requestcontext"
)

// SignatureService is the slice of the signature service the transport needs.
type SignatureService interface {
	Enroll(ctx context.Context, customerID id.CustomerID, image []byte) (*sigmodels.EnrolledSignature, error)
	Replace(ctx context.Context, customerID id.CustomerID, image []byte) (*sigmodels.EnrolledSignature, error)
	ListFor(ctx context.Context, customerID id.CustomerID) ([]*sigmodels.EnrolledSignature, error)
	Remove(ctx context.Context, signatureID id.SignatureID) error
}

type signatureHandler struct {
	signatures SignatureService
	logger     *slog.Logger
}

func (h *signatureHandler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	customerID, err := id.ParseCustomerID(chi.URLParam(r, "customerID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	image, err := requiredSignatureFile(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	sig, err := h.signatures.Enroll(r.Context(), customerID, image)
	if err != nil {
		h.logFailure(r.Context(), "signature enroll failed", err)
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSignatureResponse(sig))
}

func (h *signatureHandler) handleReplace(w http.ResponseWriter, r *http.Request) {
	customerID, err := id.ParseCustomerID(chi.URLParam(r, "customerID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	image, err := requiredSignatureFile(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	sig, err := h.signatures.Replace(r.Context(), customerID, image)
	if err != nil {
		h.logFailure(r.Context(), "signature replace failed", err)
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSignatureResponse(sig))
}

func (h *signatureHandler) handleList(w http.ResponseWriter, r *http.Request) {
	customerID, err := id.ParseCustomerID(chi.URLParam(r, "customerID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	sigs, err := h.signatures.ListFor(r.Context(), customerID)
	if err != nil {
		WriteError(w, err)
		return
	}
	out := make([]signatureResponse, 0, len(sigs))
	for _, sig := range sigs {
		out = append(out, toSignatureResponse(sig))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *signatureHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	signatureID, err := id.ParseSignatureID(chi.URLParam(r, "signatureID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.signatures.Remove(r.Context(), signatureID); err != nil {
		h.logFailure(r.Context(), "signature remove failed", err)
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requiredSignatureFile(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "request must be multipart form data")
	}
	image, err := signatureFile(r, "signature")
	if err != nil {
		return nil, err
	}
	if image == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "signature file is required")
	}
	return image, nil
}

func (h *signatureHandler) logFailure(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}

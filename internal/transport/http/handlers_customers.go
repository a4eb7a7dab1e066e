package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"signet/internal/audit"
	custmodels "signet/internal/customer/models"
	custservice "signet/internal/customer/service"
	sigmodels "signet/internal/signature/models"
	id "signet/pkg/domain"
	"signet/pkg/requestcontext"
)

// CustomerService is the slice of the customer service the transport needs.
type CustomerService interface {
	Create(ctx context.Context, name, email, phone, nationalID string) (*custmodels.Customer, error)
	RegisterWithSignature(ctx context.Context, name, email, phone, nationalID string, image []byte) (*custmodels.Customer, *sigmodels.EnrolledSignature, error)
	Get(ctx context.Context, customerID id.CustomerID) (*custmodels.Customer, error)
	List(ctx context.Context) ([]*custmodels.Customer, error)
	Update(ctx context.Context, customerID id.CustomerID, name, email, phone, nationalID string) (*custmodels.Customer, error)
	UpdateWithSignature(ctx context.Context, customerID id.CustomerID, name, email, phone, nationalID string, image []byte) (*custmodels.Customer, *sigmodels.EnrolledSignature, error)
	Delete(ctx context.Context, customerID id.CustomerID) error
	Registrations(ctx context.Context, customerID id.CustomerID) ([]*audit.Registration, error)
	Stats(ctx context.Context) (*custservice.Stats, error)
}

type customerHandler struct {
	customers CustomerService
	logger    *slog.Logger
}

// handleCreate registers a customer. When a signature file accompanies the
// form, the customer and their first reference signature are created as one
// all-or-nothing operation.
func (h *customerHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	form, err := parseCustomerForm(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	image, err := signatureFile(r, "signature")
	if err != nil {
		WriteError(w, err)
		return
	}

	ctx := r.Context()
	if image == nil {
		customer, err := h.customers.Create(ctx, form.Name, form.Email, form.Phone, form.NationalID)
		if err != nil {
			h.logFailure(ctx, "customer create failed", err)
			WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toCustomerResponse(customer))
		return
	}

	customer, sig, err := h.customers.RegisterWithSignature(ctx, form.Name, form.Email, form.Phone, form.NationalID, image)
	if err != nil {
		h.logFailure(ctx, "customer registration with signature failed", err)
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Customer  customerResponse  `json:"customer"`
		Signature signatureResponse `json:"signature"`
	}{toCustomerResponse(customer), toSignatureResponse(sig)})
}

func (h *customerHandler) handleList(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "customer list failed", err)
		WriteError(w, err)
		return
	}
	out := make([]customerResponse, 0, len(customers))
	for _, customer := range customers {
		out = append(out, toCustomerResponse(customer))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *customerHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	customerID, err := id.ParseCustomerID(chi.URLParam(r, "customerID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	customer, err := h.customers.Get(r.Context(), customerID)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

// handleUpdate updates identity details; when a new signature file is
// supplied, the details and the signature swap succeed or fail as one
// operation.
func (h *customerHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	customerID, err := id.ParseCustomerID(chi.URLParam(r, "customerID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	form, err := parseCustomerForm(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	image, err := signatureFile(r, "signature")
	if err != nil {
		WriteError(w, err)
		return
	}

	ctx := r.Context()
	if image == nil {
		customer, err := h.customers.Update(ctx, customerID, form.Name, form.Email, form.Phone, form.NationalID)
		if err != nil {
			h.logFailure(ctx, "customer update failed", err)
			WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCustomerResponse(customer))
		return
	}

	customer, _, err := h.customers.UpdateWithSignature(ctx, customerID, form.Name, form.Email, form.Phone, form.NationalID, image)
	if err != nil {
		h.logFailure(ctx, "customer update with signature failed", err)
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

func (h *customerHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	customerID, err := id.ParseCustomerID(chi.URLParam(r, "customerID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.customers.Delete(r.Context(), customerID); err != nil {
		h.logFailure(r.Context(), "customer delete failed", err)
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *customerHandler) handleRegistrations(w http.ResponseWriter, r *http.Request) {
	customerID, err := id.ParseCustomerID(chi.URLParam(r, "customerID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	regs, err := h.customers.Registrations(r.Context(), customerID)
	if err != nil {
		WriteError(w, err)
		return
	}
	type registrationResponse struct {
		ID           int64  `json:"id"`
		CustomerID   int64  `json:"customer_id"`
		AdminID      int64  `json:"admin_id"`
		RegisteredAt string `json:"registered_at"`
	}
	out := make([]registrationResponse, 0, len(regs))
	for _, reg := range regs {
		out = append(out, registrationResponse{
			ID:           reg.ID,
			CustomerID:   int64(reg.CustomerID),
			AdminID:      int64(reg.AdminID),
			RegisteredAt: reg.RegisteredAt.Format(timeLayout),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *customerHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.customers.Stats(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "stats query failed", err)
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsResponse(stats))
}

func (h *customerHandler) logFailure(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}

package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"signet/internal/audit"
	custmodels "signet/internal/customer/models"
	custservice "signet/internal/customer/service"
	sigmodels "signet/internal/signature/models"
	"signet/internal/verify"
	dErrors "signet/pkg/domain-errors"
)

const timeLayout = time.RFC3339

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError maps a domain error onto its HTTP status and a JSON envelope
// carrying the machine code plus the human-readable message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	writeJSON(w, statusOf(code), errorEnvelope{
		Error:   string(code),
		Message: dErrors.MessageOf(err),
	})
}

func statusOf(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeNotFound, dErrors.CodeNoReferenceSignature:
		return http.StatusNotFound
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeEmbeddingUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type customerResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	NationalID string `json:"national_id"`
	CreatedAt  string `json:"created_at"`
}

func toCustomerResponse(c *custmodels.Customer) customerResponse {
	return customerResponse{
		ID:         int64(c.ID),
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		NationalID: c.NationalID,
		CreatedAt:  c.CreatedAt.Format(timeLayout),
	}
}

type signatureResponse struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	CreatedAt  string `json:"created_at"`
}

func toSignatureResponse(sig *sigmodels.EnrolledSignature) signatureResponse {
	return signatureResponse{
		ID:         int64(sig.ID),
		CustomerID: int64(sig.CustomerID),
		CreatedAt:  sig.CreatedAt.Format(timeLayout),
	}
}

type verifyResponse struct {
	Verified        bool    `json:"verified"`
	Status          string  `json:"status"`
	Distance        float64 `json:"distance"`
	MatchPercentage int     `json:"match_percentage"`
	Threshold       float64 `json:"threshold"`
	CustomerID      int64   `json:"customer_id"`
}

func toVerifyResponse(result *verify.Result) verifyResponse {
	return verifyResponse{
		Verified:        result.Verified,
		Status:          string(result.Status),
		Distance:        result.Distance,
		MatchPercentage: result.MatchPercentage,
		Threshold:       result.Threshold,
		CustomerID:      int64(result.CustomerID),
	}
}

type verificationEventResponse struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	AdminID    int64  `json:"admin_id"`
	Outcome    string `json:"outcome"`
	VerifiedAt string `json:"verified_at"`
}

func toVerificationEventResponse(event *audit.VerificationEvent) verificationEventResponse {
	return verificationEventResponse{
		ID:         event.ID,
		CustomerID: int64(event.CustomerID),
		AdminID:    int64(event.AdminID),
		Outcome:    string(event.Outcome),
		VerifiedAt: event.VerifiedAt.Format(timeLayout),
	}
}

type statsResponse struct {
	Customers           int   `json:"customers"`
	VerificationsPassed int64 `json:"verifications_passed"`
	VerificationsFailed int64 `json:"verifications_failed"`
}

func toStatsResponse(stats *custservice.Stats) statsResponse {
	return statsResponse{
		Customers:           stats.Customers,
		VerificationsPassed: stats.VerificationsPassed,
		VerificationsFailed: stats.VerificationsFailed,
	}
}

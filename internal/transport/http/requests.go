package httptransport

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-playground/validator/v10"

	dErrors "signet/pkg/domain-errors"
)

// maxUploadBytes bounds multipart parsing; signature scans are small images.
const maxUploadBytes = 10 << 20

var validate = validator.New()

// customerForm is the multipart form for create and update.
type customerForm struct {
	Name       string `validate:"required,max=128"`
	Email      string `validate:"required,email"`
	Phone      string `validate:"omitempty,max=32"`
	NationalID string `validate:"required,max=64"`
}

func parseCustomerForm(r *http.Request) (*customerForm, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "request must be multipart form data")
	}
	form := &customerForm{
		Name:       r.FormValue("name"),
		Email:      r.FormValue("email"),
		Phone:      r.FormValue("phone"),
		NationalID: r.FormValue("national_id"),
	}
	if err := validate.Struct(form); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid customer form")
	}
	return form, nil
}

// signatureFile reads the uploaded signature image from the named form field.
// Returns nil bytes without error when the field is absent, so callers can
// treat the file as optional.
func signatureFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "signature file is unreadable")
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "signature file is unreadable")
	}
	if len(data) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "signature file is empty")
	}
	return data, nil
}

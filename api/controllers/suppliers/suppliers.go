package suppliers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/procurement-backend/api/middleware"
	"github.com/angelmondragon/procurement-backend/api/responses"
	"github.com/angelmondragon/procurement-backend/api/validators"
	internalsuppliers "github.com/angelmondragon/procurement-backend/internal/suppliers"
	pkgerrors "github.com/angelmondragon/procurement-backend/pkg/errors"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
)

const (
	importFormField   = "file"
	multipartOverhead = 1 << 20
	defaultListLimit  = 100
	maxListLimit      = 500
)

func init() {
	if err := validators.RegisterStringRule("ruc", internalsuppliers.ValidRUC, "must be an 11 digit RUC"); err != nil {
		panic(err)
	}
}

type createRequest struct {
	RUC          string  `json:"ruc" validate:"required,ruc"`
	BusinessName string  `json:"businessName" validate:"required,max=200"`
	TradeName    *string `json:"tradeName" validate:"omitempty,max=200"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Phone        *string `json:"phone" validate:"omitempty,max=40"`
	Address      *string `json:"address" validate:"omitempty,max=500"`
	Category     *string `json:"category" validate:"omitempty,max=120"`
	PaymentTerms *string `json:"paymentTerms" validate:"omitempty,max=120"`
	Active       *bool   `json:"active"`
}

// List returns suppliers filtered by active flag, category and free text.
func List(svc internalsuppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "suppliers service unavailable"))
			return
		}

		active, err := validators.ParseQueryBool(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		list, err := svc.List(r.Context(), internalsuppliers.ListFilters{
			Active:   active,
			Category: validators.SanitizeString(query.Get("category"), 120),
			Query:    validators.SanitizeString(query.Get("q"), 120),
			Limit:    limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Create registers a supplier. A duplicate RUC responds 409.
func Create(svc internalsuppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "suppliers service unavailable"))
			return
		}

		var req createRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSupplierRUC(ctx, req.RUC)
		}
		supplier, err := svc.Create(ctx, internalsuppliers.CreateInput{
			RUC:          req.RUC,
			BusinessName: req.BusinessName,
			TradeName:    req.TradeName,
			Email:        req.Email,
			Phone:        req.Phone,
			Address:      req.Address,
			Category:     req.Category,
			PaymentTerms: req.PaymentTerms,
			Active:       req.Active,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, supplier)
	}
}

// Detail returns the supplier registered under the {ruc} path parameter.
func Detail(svc internalsuppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "suppliers service unavailable"))
			return
		}

		ruc := strings.TrimSpace(chi.URLParam(r, "ruc"))
		if !internalsuppliers.ValidRUC(ruc) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "ruc must have 11 digits").
				WithDetails(map[string]any{"ruc": ruc}))
			return
		}

		supplier, err := svc.FindByRUC(r.Context(), ruc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, supplier)
	}
}

// Import upserts suppliers from a CSV sent as a multipart "file" field or as the raw body.
func Import(svc internalsuppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "suppliers service unavailable"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, internalsuppliers.MaxImportBytes+multipartOverhead)
		source, closeFn, err := importSource(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeFn()

		result, err := svc.Import(r.Context(), source, middleware.ActorFromContext(r.Context()))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				err = pkgerrors.New(pkgerrors.CodeValidation, "import file too large").
					WithDetails(map[string]any{"maxBytes": internalsuppliers.MaxImportBytes})
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func importSource(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}

	file, _, err := r.FormFile(importFormField)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "multipart field \"file\" is required")
	}
	return file, func() { _ = file.Close() }, nil
}

// Package responses renders the JSON envelopes every handler returns.
package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	pkgerrors "github.com/angelmondragon/procurement-backend/pkg/errors"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
	"github.com/angelmondragon/procurement-backend/pkg/types"
)

var errUnknown = errors.New("unknown error")

// WriteSuccess writes data inside the {"data": ...} envelope with status 200.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteError renders err with the status and visibility rules of its code.
// Errors without a code are reported as INTERNAL_ERROR and never leak their
// message.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errUnknown
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	if logg != nil {
		logFailure(ctx, logg, meta, typed, err)
	}
	writeJSON(w, meta.HTTPStatus, errorEnvelope(meta, typed))
}

func errorEnvelope(meta pkgerrors.Metadata, typed *pkgerrors.Error) types.ErrorEnvelope {
	msg := meta.PublicMessage
	if meta.ExposeMessage && typed.Message() != "" {
		msg = typed.Message()
	}
	body := types.ErrorEnvelope{
		Error:   types.APIError{Code: string(typed.Code()), Message: msg},
		Message: msg,
	}
	if meta.DetailsAllowed {
		body.Error.Details = typed.Details()
	}
	return body
}

func logFailure(ctx context.Context, logg *logger.Logger, meta pkgerrors.Metadata, typed *pkgerrors.Error, err error) {
	fields := pkgerrors.Dump(err).Fields()
	if details, ok := typed.Details().(map[string]any); ok {
		if step, ok := details["step"]; ok {
			fields["step"] = step
		}
	}
	ctx = logg.WithFields(ctx, fields)

	if meta.HTTPStatus >= http.StatusInternalServerError {
		logg.Error(ctx, "request.error", err)
		return
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"error":      err.Error(),
		"error_code": typed.Code(),
	})
	logg.Warn(ctx, "request.rejected")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

package bigquery

import (
	"errors"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func IsNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// IsRetryable reports whether err is transient. Insert errors that bundle
// several failures are retryable only when every one of them is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var putErr bigquery.PutMultiError
	if errors.As(err, &putErr) {
		inner := make([]error, 0, len(putErr))
		for _, rowErr := range putErr {
			inner = append(inner, rowErr.Errors)
		}
		return allRetryable(inner)
	}
	var multi bigquery.MultiError
	if errors.As(err, &multi) {
		return allRetryable(multi)
	}
	var rowErr *bigquery.RowInsertionError
	if errors.As(err, &rowErr) {
		return allRetryable(rowErr.Errors)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusRequestTimeout,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Aborted, codes.DeadlineExceeded, codes.Internal, codes.ResourceExhausted, codes.Unavailable:
			return true
		}
	}
	return false
}

func allRetryable(errs []error) bool {
	if len(errs) == 0 {
		return false
	}
	for _, inner := range errs {
		if !IsRetryable(inner) {
			return false
		}
	}
	return true
}

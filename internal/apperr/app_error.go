package apperr

import (
	"errors"

	"github.com/tuanvumaihuynh/restock-watch/pkg/zerror"
)

const (
	ValidationErrorCode = "VALIDATION_FAILED"
	SourceErrorCode     = "SOURCE_UNAVAILABLE"
	StoreErrorCode      = "STORE_FAILED"
	RecordErrorCode     = "RECORD_MALFORMED"
	UnavailableCode     = "SERVICE_UNAVAILABLE"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")

	// SourceErr covers network, session expiry and malformed response failures of a snapshot source.
	SourceErr = zerror.NewBadGateway(SourceErrorCode, "snapshot source unavailable")
	// StoreErr covers failures of the stock state store.
	StoreErr = zerror.NewInternalServerError(StoreErrorCode, "stock state store failed")
	// RecordErr marks a single snapshot record that cannot be reconciled.
	RecordErr = zerror.NewValidationFailed(RecordErrorCode, "malformed product record")

	UnavailableErr = zerror.NewServiceUnavailable(UnavailableCode, "service unavailable")
)

func IsSourceErr(err error) bool {
	return errors.Is(err, SourceErr)
}

func IsStoreErr(err error) bool {
	return errors.Is(err, StoreErr)
}

func IsRecordErr(err error) bool {
	return errors.Is(err, RecordErr)
}

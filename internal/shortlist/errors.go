package shortlist

import (
	"errors"

	apperrors "talent-shortlist/internal/common/errors"
)

var (
	// ErrMissingIdentity is returned by Add when name or email is absent or blank.
	ErrMissingIdentity = errors.New("MISSING_IDENTITY")
	// ErrInvalidRecord is returned by Add when the record fails schema validation
	// for a reason other than identity.
	ErrInvalidRecord = errors.New("INVALID_CANDIDATE_RECORD")
	// ErrReadFailed wraps transport failures while reading the stored list.
	ErrReadFailed = errors.New("SHORTLIST_READ_FAILED")
	// ErrWriteFailed wraps failures while persisting the list. The stored value is
	// left as it was before the call.
	ErrWriteFailed = errors.New("SHORTLIST_WRITE_FAILED")
	// ErrConflict is returned when concurrent writers kept invalidating an update
	// until the retry budget ran out.
	ErrConflict = errors.New("SHORTLIST_WRITE_CONFLICT")

	// ErrKeyNotFound is returned by KV.Get when the key has never been written.
	ErrKeyNotFound = errors.New("key not found")
	// ErrSkipWrite is returned from an UpdateFunc to leave the key untouched.
	ErrSkipWrite = errors.New("skip write")
)

// ToStandardError maps store errors onto the shared error taxonomy used by
// workers and the HTTP API.
func ToStandardError(err error) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &stdErr):
		return stdErr
	case errors.Is(err, ErrMissingIdentity):
		return apperrors.NewMissingIdentityError(err.Error())
	case errors.Is(err, ErrInvalidRecord):
		return apperrors.NewInvalidRecordError(err.Error())
	case errors.Is(err, ErrConflict):
		return apperrors.NewStoreConflictError(0).WithMetadata("cause", err.Error())
	case errors.Is(err, ErrWriteFailed):
		return apperrors.NewStoreWriteFailedError(err)
	case errors.Is(err, ErrReadFailed):
		return apperrors.NewStoreReadFailedError(err)
	default:
		return apperrors.NewInternalError(err)
	}
}

package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dparitosh/recipe-organizer-sub000/internal/admission"
	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
)

// statusFor maps err, matched with errors.Is against the admission and domain
// sentinels, to the HTTP status the envelope should carry, per spec §7's
// escalated/validation split.
func statusFor(err error) int {
	switch {
	case errors.Is(err, admission.ErrTooManyRequests), errors.Is(err, domain.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRunTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrAgentTimeout),
		errors.Is(err, domain.ErrMemoryBudgetExceeded),
		errors.Is(err, domain.ErrPersistenceFailed),
		errors.Is(err, domain.ErrStoreUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrGraphRAGUnavailable):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// respondError writes a standard error envelope for err, deriving the code
// and status from domain.Code/statusFor.
func respondError(w http.ResponseWriter, err error, start time.Time) {
	code := domain.Code(err)
	status := statusFor(err)

	field := ""
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		field = verr.Field
	}
	writeError(w, status, code, err.Error(), "", field, start)
}

package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrValidation       = errors.New("validation error")
	ErrConfiguration    = errors.New("configuration error")
	ErrExternal         = errors.New("external collaborator error")
	ErrExecutorCrash    = errors.New("executor crash")
	ErrDataIneligible   = errors.New("data ineligible")
	ErrTimeout          = errors.New("timeout")
)

// Kind names the failure class of an error for logs and stored notes.
type Kind string

const (
	KindStoreUnavailable Kind = "store_unavailable"
	KindValidation       Kind = "validation"
	KindConfiguration    Kind = "configuration"
	KindExternal         Kind = "external"
	KindExecutorCrash    Kind = "executor_crash"
	KindDataIneligible   Kind = "data_ineligible"
	KindTimeout          Kind = "timeout"
	KindUnknown          Kind = "unknown"
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternal
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureKind classifies err by the marker it carries.
func FailureKind(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrDataIneligible):
		return KindDataIneligible
	case errors.Is(err, ErrExecutorCrash):
		return KindExecutorCrash
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrExternal):
		return KindExternal
	default:
		return KindUnknown
	}
}

// IsPermanent reports whether retrying the same operation cannot succeed
// without an outside change.
func IsPermanent(err error) bool {
	switch FailureKind(err) {
	case KindValidation, KindConfiguration, KindDataIneligible:
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

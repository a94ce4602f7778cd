package download

import "fmt"

// ErrorKind classifies download failures so callers can decide whether a
// fresh attempt is worthwhile.
type ErrorKind int

const (
	// KindNetwork is a transport-level failure. Retryable.
	KindNetwork ErrorKind = iota
	// KindHTTP is a non-2xx response. Retryable for 5xx, fatal for 4xx.
	KindHTTP
	// KindCorrupt means bytes written did not match the declared
	// content length. Fatal for the attempt, retryable as a fresh one.
	KindCorrupt
	// KindIO is a local filesystem failure. Fatal.
	KindIO
)

func (k ErrorKind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindCorrupt:
		return "corrupt"
	case KindIO:
		return "io"
	default:
		return "network"
	}
}

// Error is a structured download failure. After retries are exhausted the
// caller receives the last attempt's Error.
type Error struct {
	Kind    ErrorKind
	Status  int    // HTTP status for KindHTTP
	URL     string // Sanitized source URL
	Attempt int    // 1-based attempt number that produced this error
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("download %s: server returned status %d", e.URL, e.Status)
	case KindCorrupt:
		if e.Err != nil {
			return fmt.Sprintf("download %s: truncated payload: %v", e.URL, e.Err)
		}
		return fmt.Sprintf("download %s: truncated payload", e.URL)
	default:
		return fmt.Sprintf("download %s: %v", e.URL, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether a fresh attempt could plausibly succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindCorrupt:
		return true
	case KindHTTP:
		return e.Status >= 500
	default:
		return false
	}
}

package detect

import "errors"

// Sentinel errors for the fatal failure kinds. Both are wrapped with the
// stage that raised them; match with errors.Is.
var (
	// ErrPageUnresponsive means a liveness probe timed out or failed. The
	// page or session needs recovery; retrying the call is pointless.
	ErrPageUnresponsive = errors.New("page unresponsive")

	// ErrPollGuardExceeded means the iteration cap was hit before the
	// wall-clock deadline, which indicates the wait primitive or the page
	// event loop is not behaving as configured.
	ErrPollGuardExceeded = errors.New("poll budget exhausted before deadline")
)

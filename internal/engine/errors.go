package engine

import "errors"

// ErrStationOccupied indicates the claim lost to an existing or racing
// session on the same station. Recoverable; the caller may pick another
// station or join the waitlist.
var ErrStationOccupied = errors.New("station occupied")

// ErrAuthorization covers both a wrong PIN and a release of an idle station.
// The two cases are deliberately indistinguishable to the caller.
var ErrAuthorization = errors.New("not authorized")

// ErrInvalidStation indicates a station id outside the registry. Validated
// input never produces it.
var ErrInvalidStation = errors.New("station not in registry")

// ErrStoreUnavailable indicates the transaction failed or timed out; nothing
// was committed and the action can be retried.
var ErrStoreUnavailable = errors.New("store unavailable")

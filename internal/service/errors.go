package service

import "errors"

// ErrSuperseded is returned by a dashboard load that finished after a newer
// load on the same service had started. Its result is discarded.
var ErrSuperseded = errors.New("dashboard load superseded by a newer load")

package client

import internalclient "github.com/pipetlab/pipet/internal/client"

// Sentinel errors surfaced by the transport, re-exported so callers do not
// need to import the internal package.
var (
	ErrDaemonNotRunning = internalclient.ErrDaemonNotRunning
	ErrPermissionDenied = internalclient.ErrPermissionDenied
	ErrNotFound         = internalclient.ErrNotFound
)

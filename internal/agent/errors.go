package agent

import "errors"

var (
	ErrInvalidHeader = errors.New("invalid section header")
	ErrNoSource      = errors.New("no agent output path or command configured")
)

package contract

import "errors"

var (
	ErrPersonaNotFound  = errors.New("persona not found")
	ErrDuplicatePersona = errors.New("persona already registered")
	ErrTransferTarget   = errors.New("transfer target unavailable")

	ErrToolNotFound   = errors.New("tool not found")
	ErrDuplicateTool  = errors.New("tool already registered")
	ErrToolValidation = errors.New("tool validation failed")
	ErrToolTimeout    = errors.New("tool timed out")
	ErrToolExecution  = errors.New("tool execution failed")

	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSessionNotFound = errors.New("session not found")

	ErrInvalidMessage      = errors.New("message is empty")
	ErrInvalidConversation = errors.New("conversation id is empty")
)

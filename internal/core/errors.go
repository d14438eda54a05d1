package core

import "errors"

// Error codes for domain errors. They are part of the wire contract.
const (
	ErrCodeAuth          = "AUTH_ERROR"
	ErrCodeRoomNotFound  = "ROOM_NOT_FOUND"
	ErrCodeNotInRoom     = "NOT_IN_ROOM"
	ErrCodeInvalidCell   = "INVALID_CELL"
	ErrCodeRoomFull      = "ROOM_FULL"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeNotConnected  = "NOT_CONNECTED"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeInternal      = "INTERNAL"
	ErrCodeCooldown      = "COOLDOWN_ACTIVE"
	ErrCodeJoinRoom      = "JOIN_ROOM_ERROR"
	ErrCodeLeaveRoom     = "LEAVE_ROOM_ERROR"
	ErrCodeSubmitBlock   = "SUBMIT_BLOCK_ERROR"
	ErrCodeGetHistory    = "GET_HISTORY_ERROR"
	ErrCodeTimeTravel    = "TIME_TRAVEL_ERROR"
	ErrCodeConnectFailed = "CONNECT_ERROR"
)

var (
	ErrAuth         = errors.New("authentication failed")
	ErrRoomNotFound = errors.New("room not found")
	ErrNotInRoom    = errors.New("not in room")
	ErrInvalidCell  = errors.New("invalid cell coordinates")
	ErrRoomFull     = errors.New("room is full")
	ErrCooldown     = errors.New("cooldown active")
	ErrNotConnected = errors.New("connection not active")
	ErrHubStopped   = errors.New("hub stopped")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
	err     error
}

func (e *CoreError) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel so callers can use errors.Is.
func (e *CoreError) Unwrap() error {
	return e.err
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

func wrapCoreError(code, msg string, sentinel error) *CoreError {
	return &CoreError{Code: code, Message: msg, err: sentinel}
}

// AsCoreError extracts a CoreError from err. Unknown errors map to fallbackCode.
func AsCoreError(err error, fallbackCode string) *CoreError {
	if err == nil {
		return nil
	}
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce
	}
	return &CoreError{Code: fallbackCode, Message: err.Error(), err: err}
}

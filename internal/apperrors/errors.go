package apperrors

// =============================================================================
// Error Codes
// =============================================================================

type ErrorCode string

const (
	ErrorCodeInternalError   ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidationError ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound        ErrorCode = "NOT_FOUND"

	// Session error codes. Everything except CONFIG_INVALID is recoverable:
	// the supervisor aborts the session, waits the restart delay, and retries.
	ErrorCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"
	ErrorCodeConnectFailed  ErrorCode = "CONNECT_FAILED"
	ErrorCodePlayerNotFound ErrorCode = "PLAYER_NOT_FOUND"
	ErrorCodeProtocolParse  ErrorCode = "PROTOCOL_PARSE_ERROR"
	ErrorCodeConnectionLost ErrorCode = "CONNECTION_LOST"
	ErrorCodeDispatchFailed ErrorCode = "DISPATCH_FAILED"
	ErrorCodeEventNotFound  ErrorCode = "EVENT_NOT_FOUND"
)

// ErrorBody is the serialized error payload for the local API.
type ErrorBody struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// AppError is the base error type shared by the session loop and the local API.
type AppError struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    map[string]any
	cause      error
}

func (err *AppError) Error() string {
	return err.Message
}

func (err *AppError) Unwrap() error {
	return err.cause
}

func (err *AppError) ErrorBody() ErrorBody {
	body := ErrorBody{
		Code:    err.Code,
		Message: err.Message,
	}
	if err.Details != nil {
		body.Details = err.Details
	}
	return body
}

func NewAppError(code ErrorCode, message string, statusCode int, details map[string]any) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

func NewValidationError(message string, details map[string]any) *AppError {
	return NewAppError(ErrorCodeValidationError, message, 400, details)
}

func NewNotFoundError(message string, details map[string]any) *AppError {
	return NewAppError(ErrorCodeNotFound, message, 404, details)
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrorCodeInternalError, message, 500, nil)
}

// =============================================================================
// Session Errors
// =============================================================================

// NewConfigError reports an unusable configuration. Fatal: the process cannot
// run without a valid configuration, so this is never caught at the session
// boundary.
func NewConfigError(message string, cause error) *AppError {
	return &AppError{Code: ErrorCodeConfigInvalid, Message: message, StatusCode: 500, cause: cause}
}

// NewConnectError reports a failure to open the server connection.
func NewConnectError(message string, cause error) *AppError {
	return &AppError{Code: ErrorCodeConnectFailed, Message: message, StatusCode: 502, cause: cause}
}

// NewPlayerNotFoundError reports that the configured player name matched no
// entry in the server roster. Recoverable: the roster may change before the
// next session.
func NewPlayerNotFoundError(name string) *AppError {
	return &AppError{
		Code:       ErrorCodePlayerNotFound,
		Message:    "player not found: " + name,
		StatusCode: 404,
		Details:    map[string]any{"player_name": name},
	}
}

// NewProtocolParseError reports a reply that did not match the sent command.
// Treated like a lost connection: the session aborts rather than guess.
func NewProtocolParseError(message string) *AppError {
	return &AppError{Code: ErrorCodeProtocolParse, Message: message, StatusCode: 502}
}

// NewConnectionLostError reports a hang-up, read error, or empty read.
func NewConnectionLostError(message string, cause error) *AppError {
	return &AppError{Code: ErrorCodeConnectionLost, Message: message, StatusCode: 502, cause: cause}
}

// IsRecoverable reports whether the session supervisor should swallow the
// error and retry after the restart delay. Only configuration errors are
// terminal for the process.
func IsRecoverable(err error) bool {
	appErr := EnsureAppError(err)
	return appErr.Code != ErrorCodeConfigInvalid
}

// EnsureAppError converts an arbitrary error into an AppError.
func EnsureAppError(err error) *AppError {
	if err == nil {
		return NewInternalError("Unknown error")
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return &AppError{Code: ErrorCodeInternalError, Message: err.Error(), StatusCode: 500, cause: err}
}

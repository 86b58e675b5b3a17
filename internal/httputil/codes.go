package httputil

// Machine-readable error codes returned alongside error messages so
// clients can branch without parsing English text.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeMissingFields      = "MISSING_FIELDS"
	CodeInvalidRole        = "INVALID_ROLE"

	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeEmailConflict      = "EMAIL_CONFLICT"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidOldPassword = "INVALID_OLD_PASSWORD"

	CodeMissingAuth          = "MISSING_AUTH"
	CodeInvalidAuthHeader    = "INVALID_AUTH_HEADER"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeRefreshTokenRequired = "REFRESH_TOKEN_REQUIRED"
	CodeInvalidRefreshToken  = "INVALID_REFRESH_TOKEN"
	CodeOAuthFailed          = "OAUTH_FAILED"

	CodeForbidden = "FORBIDDEN"
	CodeNotFound  = "NOT_FOUND"

	CodeRoadmapNotFound      = "ROADMAP_NOT_FOUND"
	CodeMentorNotFound       = "MENTOR_NOT_FOUND"
	CodeSessionNotFound      = "SESSION_NOT_FOUND"
	CodeSessionAlreadyExists = "SESSION_ALREADY_EXISTS"
	CodeSelfSessionRequest   = "SELF_SESSION_REQUEST"

	CodeUploadFailed    = "UPLOAD_FAILED"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeInternalError   = "INTERNAL_ERROR"
)

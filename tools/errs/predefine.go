package errs

// Error codes. 1xxx auth, 2xxx request, 3xxx domain, 5xxx server.
const (
	CodeTokenInvalid     = 1001
	CodeTokenExpired     = 1002
	CodeBadCredentials   = 1003
	CodeArgs             = 2001
	CodeNotFound         = 3001
	CodeAccessDenied     = 3002
	CodeDuplicate        = 3003
	CodeEditWindowClosed = 3004
	CodeInternal         = 5001
)

var (
	ErrTokenInvalid     = NewCodeError(CodeTokenInvalid, "invalid token")
	ErrTokenExpired     = NewCodeError(CodeTokenExpired, "token expired")
	ErrBadCredentials   = NewCodeError(CodeBadCredentials, "incorrect username or password")
	ErrArgs             = NewCodeError(CodeArgs, "invalid request")
	ErrNotFound         = NewCodeError(CodeNotFound, "not found")
	ErrAccessDenied     = NewCodeError(CodeAccessDenied, "access denied")
	ErrDuplicate        = NewCodeError(CodeDuplicate, "already exists")
	ErrEditWindowClosed = NewCodeError(CodeEditWindowClosed, "edit window closed")
	ErrInternal         = NewCodeError(CodeInternal, "internal server error")
)

package errno

// Errno 定义业务错误码。
type Errno struct {
	Code    int
	Message string
}

// Error 实现 error 接口。
func (e *Errno) Error() string {
	return e.Message
}

// HTTPStatus maps the business code onto the HTTP status used by restapi.
func (e *Errno) HTTPStatus() int {
	switch {
	case e == nil:
		return 200
	case e.Code >= 400 && e.Code < 500:
		return e.Code
	case e.Code == 200:
		return 200
	default:
		return 500
	}
}

var (
	OK = &Errno{Code: 200, Message: "Success"}

	ErrParameterInvalid = &Errno{Code: 400, Message: "Invalid parameter %s"}
	ErrUnauthorized     = &Errno{Code: 401, Message: "Unauthorized"}
	ErrNotFound         = &Errno{Code: 404, Message: "Not found"}

	// ErrAuth is returned by the handshake gate for any rejected credential.
	ErrAuth = &Errno{Code: 401, Message: "Authentication failed: %s"}

	ErrInternalServer = &Errno{Code: 500, Message: "Internal server error"}
	ErrDatabase       = &Errno{Code: 501, Message: "Database error"}
	ErrUnknown        = &Errno{Code: 510, Message: "Unknown error"}
)

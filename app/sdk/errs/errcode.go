package errs

import (
	"fmt"
	"net/http"
)

// ErrCode represents an error code in the system.
type ErrCode struct {
	name   string
	value  int
	status int
	hidden bool
}

// Set of error codes. Several kinds share a numeric code; clients tell them
// apart by the http status.
var (
	NotFound         = ErrCode{name: "not_found", value: 1001, status: http.StatusNotFound}
	ServiceNotFound  = ErrCode{name: "service_not_found", value: 1002, status: http.StatusNotFound}
	RoomNotFound     = ErrCode{name: "room_not_found", value: 1003, status: http.StatusNotFound}
	Unauthenticated  = ErrCode{name: "unauthenticated", value: 1101, status: http.StatusUnauthorized}
	PermissionDenied = ErrCode{name: "permission_denied", value: 1102, status: http.StatusForbidden}
	InvalidArgument  = ErrCode{name: "invalid_argument", value: 1201, status: http.StatusBadRequest}
	Aborted          = ErrCode{name: "aborted", value: 1201, status: http.StatusConflict}
	Internal         = ErrCode{name: "internal", value: 2001, status: http.StatusInternalServerError}
	InternalOnlyLog  = ErrCode{name: "internal", value: 2001, status: http.StatusInternalServerError, hidden: true}
	Unavailable      = ErrCode{name: "unavailable", value: 2001, status: http.StatusServiceUnavailable}
)

var codeNames = map[string]ErrCode{
	NotFound.name:         NotFound,
	ServiceNotFound.name:  ServiceNotFound,
	RoomNotFound.name:     RoomNotFound,
	Unauthenticated.name:  Unauthenticated,
	PermissionDenied.name: PermissionDenied,
	InvalidArgument.name:  InvalidArgument,
	Aborted.name:          Aborted,
	Internal.name:         Internal,
	Unavailable.name:      Unavailable,
}

// Value returns the numeric code carried in the error body.
func (ec ErrCode) Value() int {
	return ec.value
}

// HTTPStatus returns the http status for the code.
func (ec ErrCode) HTTPStatus() int {
	if ec.status == 0 {
		return http.StatusInternalServerError
	}
	return ec.status
}

// String returns the name of the code.
func (ec ErrCode) String() string {
	return ec.name
}

// UnmarshalText implement the unmarshal interface for JSON conversions.
func (ec *ErrCode) UnmarshalText(data []byte) error {
	code, exists := codeNames[string(data)]
	if !exists {
		return fmt.Errorf("err code %q does not exist", data)
	}

	*ec = code

	return nil
}

// MarshalText implement the marshal interface for JSON conversions.
func (ec ErrCode) MarshalText() ([]byte, error) {
	return []byte(ec.name), nil
}

// Equal provides support for the go-cmp package and testing.
func (ec ErrCode) Equal(ec2 ErrCode) bool {
	return ec == ec2
}

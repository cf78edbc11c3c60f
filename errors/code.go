package errors

import (
	"fmt"
	"reflect"
)

const (
	// successCode signals that processing was successful and no error is
	// returned.
	successCode uint32 = 0

	// All unclassified errors that do not provide a code are clubbed under
	// an internal error code and a generic message instead of a detailed
	// error string.
	internalCode uint32 = 1
	internalLog         = "internal error"
)

// Info returns the stable numeric code and log message for given error, as
// consumed by the host at the request boundary.
//
// When not running in a debug mode all messages of errors that do not provide
// a code are replaced with a generic "internal error". Errors without a code
// are considered internal.
func Info(err error, debug bool) (uint32, string) {
	if isNilErr(err) {
		return successCode, ""
	}

	// Only non-internal errors information can be exposed. Any error that
	// does not explicitly expose its state by providing an error code must
	// be silenced.
	if code := Code(err); code != internalCode {
		if debug {
			// Trigger full information formatting. This might
			// produce a stacktrace.
			return code, fmt.Sprintf("%+v", err)
		}
		return code, err.Error()
	}

	if debug {
		return internalCode, fmt.Sprintf("%+v", err)
	}
	return internalCode, internalLog
}

// Code tests if given error contains a stable numeric code and returns its
// value. It unwraps the error looking for the deepest layer that provides
// one. Errors that carry no code are reported as internal.
func Code(err error) uint32 {
	if isNilErr(err) {
		return successCode
	}

	for {
		if c, ok := err.(coder); ok {
			return c.Code()
		}

		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return internalCode
		}
	}
}

type coder interface {
	Code() uint32
}

func isNilErr(err error) bool {
	if err == nil {
		return true
	}
	// A returned interface carrying a typed nil pointer is still a nil
	// error from the caller's point of view.
	if val := reflect.ValueOf(err); val.Kind() == reflect.Ptr {
		return val.IsNil()
	}
	return false
}

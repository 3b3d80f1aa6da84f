// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeStageFailed,
//	    "deploy stage exited non-zero",
//	    cause,
//	    map[string]interface{}{
//	        "stage": stage.Name,
//	        "host":  host,
//	    },
//	)
package errors

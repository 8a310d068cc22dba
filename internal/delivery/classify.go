// Package delivery accumulates serialized records into size- and
// count-bounded batches and ships them to the Firehose delivery stream
// with classified retry and partial-failure handling.
package delivery

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/firehose/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// Class buckets a delivery failure for the retry policy.
type Class int

const (
	// ClassRetriable failures are retried with exponential backoff.
	ClassRetriable Class = iota
	// ClassPermanent failures drop the affected records immediately.
	ClassPermanent
	// ClassUnknown failures are not retried; the conservative default.
	ClassUnknown
)

func (c Class) String() string {
	switch c {
	case ClassRetriable:
		return "retriable"
	case ClassPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// retriableCodes are AWS error codes that indicate a transient
// condition worth retrying.
var retriableCodes = map[string]struct{}{
	"ServiceUnavailableException": {},
	"ServiceUnavailable":          {},
	"InternalFailure":             {},
	"InternalServerError":         {},
	"ThrottlingException":         {},
	"Throttling":                  {},
	"TooManyRequestsException":    {},
	"LimitExceededException":      {},
	"RequestTimeout":              {},
	"RequestTimeoutException":     {},
	"SlowDown":                    {},
}

// permanentCodes indicate a misconfigured stream or an invalid request;
// retrying cannot succeed.
var permanentCodes = map[string]struct{}{
	"ResourceNotFoundException":   {},
	"InvalidArgumentException":    {},
	"ValidationException":         {},
	"AccessDeniedException":       {},
	"SerializationException":      {},
	"InvalidKMSResourceException": {},
}

// Classify maps a batch-level dispatch error to its retry class.
func Classify(err error) Class {
	if err == nil {
		return ClassUnknown
	}

	var notFound *types.ResourceNotFoundException
	var invalidArg *types.InvalidArgumentException
	if errors.As(err, &notFound) || errors.As(err, &invalidArg) {
		return ClassPermanent
	}
	var unavailable *types.ServiceUnavailableException
	if errors.As(err, &unavailable) {
		return ClassRetriable
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return classifyCode(apiErr.ErrorCode())
	}

	// Transport-level failures without an API error body: HTTP 5xx,
	// connection resets, timeouts. All transient.
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() >= 500 {
		return ClassRetriable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassRetriable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassRetriable
	}

	return ClassUnknown
}

// ClassifyCode maps a per-record error code from a PutRecordBatch
// response to its retry class.
func ClassifyCode(code string) Class {
	return classifyCode(code)
}

func classifyCode(code string) Class {
	if code == "" {
		return ClassUnknown
	}
	if _, ok := retriableCodes[code]; ok {
		return ClassRetriable
	}
	if _, ok := permanentCodes[code]; ok {
		return ClassPermanent
	}
	// AWS surfaces throttling under several spellings; match the family.
	if strings.Contains(code, "Throttl") {
		return ClassRetriable
	}
	return ClassUnknown
}

// IsThrottle reports whether the error code is a throttling signal,
// counted separately from generic retriable failures.
func IsThrottle(code string) bool {
	switch code {
	case "ThrottlingException", "Throttling", "TooManyRequestsException", "LimitExceededException":
		return true
	}
	return strings.Contains(code, "Throttl")
}

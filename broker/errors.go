package broker

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/errors"
)

const (
	ReasonConfiguration      = "CONFIGURATION_ERROR"
	ReasonQueueNotFound      = "QUEUE_NOT_FOUND"
	ReasonTopicResolution    = "TOPIC_RESOLUTION_ERROR"
	ReasonTransport          = "TRANSPORT_ERROR"
	ReasonPublish            = "PUBLISH_ERROR"
	ReasonSerialization      = "SERIALIZATION_ERROR"
	ReasonStreamNotFound     = "STREAM_NOT_FOUND"
	ReasonTopicNotRegistered = "TOPIC_NOT_REGISTERED"
	ReasonInvalidState       = "INVALID_STATE"
	ReasonJoinTimeout        = "JOIN_TIMEOUT"
)

// Sentinels match with errors.Is on code and reason, so any error built
// from them with Errorf compares equal regardless of message or cause.
var (
	ErrConfiguration      = errors.BadRequest(ReasonConfiguration, "required option missing")
	ErrQueueNotFound      = errors.NotFound(ReasonQueueNotFound, "queue not found")
	ErrTopicResolution    = errors.NotFound(ReasonTopicResolution, "topic could not be resolved")
	ErrTransport          = errors.ServiceUnavailable(ReasonTransport, "remote call failed")
	ErrPublish            = errors.ServiceUnavailable(ReasonPublish, "publish failed")
	ErrSerialization      = errors.BadRequest(ReasonSerialization, "payload could not be serialized")
	ErrStreamNotFound     = errors.NotFound(ReasonStreamNotFound, "stream not found")
	ErrTopicNotRegistered = errors.NotFound(ReasonTopicNotRegistered, "topic not registered")
	ErrInvalidState       = errors.Conflict(ReasonInvalidState, "invalid state")
	ErrJoinTimeout        = errors.GatewayTimeout(ReasonJoinTimeout, "worker did not exit in time")
)

// Errorf clones sentinel with a formatted message and an optional cause.
func Errorf(sentinel *errors.Error, cause error, format string, a ...any) *errors.Error {
	e := errors.Clone(sentinel)
	e.Message = fmt.Sprintf(format, a...)
	if cause != nil {
		e = e.WithCause(cause)
	}
	return e
}

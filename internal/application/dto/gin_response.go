package dto

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/crn/pkg/constants"
	"github.com/turtacn/crn/pkg/errors"
)

// SendSuccess writes data in the success envelope.
func SendSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse(data, traceIDOf(c)))
}

// SendError writes err in the error envelope with its HTTP status. Rate limit errors
// carrying a reset time also get a Retry-After header.
func SendError(c *gin.Context, err error) {
	if crnErr, ok := errors.AsCRNError(err); ok && crnErr.Code() == errors.ErrCodeRateLimitExceeded {
		if reset, ok := crnErr.Metadata()["reset_at"].(string); ok {
			if at, perr := time.Parse(time.RFC3339, reset); perr == nil {
				secs := int(time.Until(at).Seconds()) + 1
				if secs < 1 {
					secs = 1
				}
				c.Header(constants.HeaderRetryAfter, strconv.Itoa(secs))
			}
		}
	}
	_ = c.Error(err)
	c.JSON(errors.StatusOf(err), ErrorResponse(err, traceIDOf(c)))
}

func traceIDOf(c *gin.Context) string {
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
		return sc.TraceID().String()
	}
	return c.GetString(string(constants.ContextKeyTraceID))
}

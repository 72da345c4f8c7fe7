package response

import (
	"net/http"

	"judgegate/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Receipt is the in-band acknowledgment body. The HTTP status is always 200;
// callers read the outcome from Message and Received.
type Receipt struct {
	Message  string `json:"message"`
	Received string `json:"received"`
}

const (
	received    = "yes"
	notReceived = "no"
	noMessage   = "none"
)

// Responder writes at most one receipt per request.
type Responder struct {
	c    *gin.Context
	sent bool
}

// New creates a responder for c.
func New(c *gin.Context) *Responder {
	return &Responder{c: c}
}

// Send writes the receipt unless one was already written.
func (r *Responder) Send(message, receivedFlag string) {
	if r.sent {
		return
	}
	r.c.Header("Content-Type", "application/json;charset=utf-8")
	r.c.JSON(http.StatusOK, Receipt{Message: message, Received: receivedFlag})
	r.sent = true
}

// Reject answers with the message of err's code and received "no".
func (r *Responder) Reject(err error) {
	r.Send(errors.GetCode(err).Message(), notReceived)
}

// Finish writes the acceptance receipt when nothing was sent yet.
func (r *Responder) Finish() {
	r.Send(noMessage, received)
}

// Sent reports whether a receipt has been written.
func (r *Responder) Sent() bool {
	return r.sent
}

// Empty answers 200 with no body.
func Empty(c *gin.Context) {
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
}

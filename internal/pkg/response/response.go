// Package response shapes every API reply into the code/msg/data
// envelope the webapi proxy layer emits. Handlers never write to the
// gin context directly.
package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

func (e codeErr) Code() uint32 {
	return e.code
}

// Success wraps data in the standard envelope with a zero code.
func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error emits an application error code from the errcode table. The
// HTTP status stays 200; clients read the envelope code instead.
func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, codeErr{code: uint32(code), msg: message})
}

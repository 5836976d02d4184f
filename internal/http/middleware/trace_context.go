package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// TraceContext instruments every request with an OTel server span. When the
// exporter is disabled the spans are no-ops.
func TraceContext(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

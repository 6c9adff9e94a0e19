package sentryw

import (
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Middleware instruments HTTP-triggered functions served through echo the
// same way the event wrappers do: span per request, fresh scope, capture
// of the handler's error as unhandled, bounded flush before returning.
func Middleware(o Options) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			hub := o.hub()
			ctx := sentry.SetHubOnContext(r.Context(), hub)

			name := o.Name
			if name == "" {
				route := c.Path()
				if route == "" {
					route = r.URL.Path
				}
				name = fmt.Sprintf("%s %s", r.Method, route)
			}

			span := sentry.StartSpan(ctx, "function.http", sentry.WithTransactionName(name))
			defer hub.Flush(o.flushTimeout())
			defer span.Finish()
			defer RecoverRepanic(hub, o.flushTimeout())

			scope := hub.PushScope()
			defer hub.PopScope()
			scope.SetTag("function_name", name)
			scope.SetTag("function_version", o.Runtime.Revision)
			scope.SetTag("invocation_id", uuid.NewString())
			scope.SetRequest(r)

			c.SetRequest(r.WithContext(span.Context()))
			err := next(c)
			if err != nil {
				span.Status = sentry.SpanStatusInternalError
				if o.Runtime.Environment != "production" && o.Logger != nil {
					o.Logger.Error("unhandled request error", err)
				}
				MarkEventUnhandled(scope)
				hub.CaptureException(err)
				return err
			}
			span.Status = sentry.SpanStatusOK
			return nil
		}
	}
}

package sentryw

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
)

func (o Options) hub() *sentry.Hub {
	if o.Hub != nil {
		return o.Hub.Clone()
	}
	return sentry.CurrentHub().Clone()
}

func (o Options) flushTimeout() time.Duration {
	if o.FlushTimeout > 0 {
		return o.FlushTimeout
	}
	return defaultFlushTimeout
}

// invoke drives one wrapped invocation: span open, fresh scope, tag and
// context enrichment, handler call, unhandled capture on failure, and a
// bounded flush that runs on every exit path. The handler's return value
// travels through unchanged.
func invoke(ctx context.Context, o Options, operation string, enrich func(scope *sentry.Scope), handler func(ctx context.Context) error) error {
	hub := o.hub()
	ctx = sentry.SetHubOnContext(ctx, hub)

	span := sentry.StartSpan(ctx, operation, sentry.WithTransactionName(o.Name))
	defer hub.Flush(o.flushTimeout())
	defer span.Finish()

	scope := hub.PushScope()
	defer hub.PopScope()

	scope.SetTag("function_name", o.Name)
	scope.SetTag("function_version", o.Runtime.Revision)
	scope.SetTag("invocation_id", uuid.NewString())
	if enrich != nil {
		enrich(scope)
	}

	defer func() {
		if rec := recover(); rec != nil {
			MarkEventUnhandled(scope)
			hub.Recover(rec)
			panic(rec)
		}
	}()

	err := handler(span.Context())
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		if o.Runtime.Environment != "production" && o.Logger != nil {
			o.Logger.Error("unhandled function error", err)
		}
		MarkEventUnhandled(scope)
		hub.CaptureException(err)
		return err
	}
	span.Status = sentry.SpanStatusOK
	return nil
}

// stringifyDocument renders a document body with 2-space indentation for
// the event context block.
func stringifyDocument(fields map[string]interface{}) string {
	if fields == nil {
		return "null"
	}
	body, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", fields)
	}
	return string(body)
}

// WrapOnWrite instruments a first-generation document-write handler.
func WrapOnWrite(o Options, handler FirestoreHandler) FirestoreHandler {
	return func(ctx context.Context, event FirestoreEvent, meta EventContext) error {
		return invoke(ctx, o, "function.firestore.write", func(scope *sentry.Scope) {
			scope.SetContext("Firestore Document", sentry.Context{
				"resource": meta.Resource,
				"before":   stringifyDocument(event.OldValue.Fields),
				"after":    stringifyDocument(event.Value.Fields),
			})
		}, func(ctx context.Context) error {
			return handler(ctx, event, meta)
		})
	}
}

// WrapDocumentWritten instruments a current-generation document-write
// handler.
func WrapDocumentWritten(o Options, handler DocumentWrittenHandler) DocumentWrittenHandler {
	return func(ctx context.Context, event DocumentEvent) error {
		return invoke(ctx, o, "function.firestore.document_written", func(scope *sentry.Scope) {
			scope.SetContext("Firestore Document", sentry.Context{
				"document": event.Document,
				"before":   stringifyDocument(event.Before),
				"after":    stringifyDocument(event.After),
			})
		}, func(ctx context.Context) error {
			return handler(ctx, event)
		})
	}
}

// WrapOnPublish instruments a first-generation published-message handler.
func WrapOnPublish(o Options, handler PubSubHandler) PubSubHandler {
	return func(ctx context.Context, message PubSubMessage, meta EventContext) error {
		return invoke(ctx, o, "function.pubsub.publish", func(scope *sentry.Scope) {
			scope.SetContext("PubSub Message", sentry.Context{
				"messageId":  message.ID,
				"data":       string(message.Data),
				"attributes": message.Attributes,
			})
		}, func(ctx context.Context) error {
			return handler(ctx, message, meta)
		})
	}
}

// WrapMessagePublished instruments a current-generation published-message
// handler.
func WrapMessagePublished(o Options, handler MessagePublishedHandler) MessagePublishedHandler {
	return func(ctx context.Context, event MessagePublishedEvent) error {
		return invoke(ctx, o, "function.pubsub.message_published", func(scope *sentry.Scope) {
			scope.SetContext("PubSub Message", sentry.Context{
				"messageId":    event.Message.ID,
				"data":         string(event.Message.Data),
				"attributes":   event.Message.Attributes,
				"subscription": event.Subscription,
			})
		}, func(ctx context.Context) error {
			return handler(ctx, event)
		})
	}
}

// WrapOnRun instruments a first-generation scheduled handler; its only
// payload is the event context itself.
func WrapOnRun(o Options, handler RunHandler) RunHandler {
	return func(ctx context.Context, meta EventContext) error {
		return invoke(ctx, o, "function.scheduler.run", func(scope *sentry.Scope) {
			scope.SetContext("Firebase Context", sentry.Context{
				"eventId":   meta.EventID,
				"eventType": meta.EventType,
				"timestamp": meta.Timestamp,
				"resource":  meta.Resource,
			})
		}, func(ctx context.Context) error {
			return handler(ctx, meta)
		})
	}
}

// WrapScheduleRun instruments a current-generation scheduled handler.
func WrapScheduleRun(o Options, handler ScheduleRunHandler) ScheduleRunHandler {
	return func(ctx context.Context, event ScheduledEvent) error {
		return invoke(ctx, o, "function.scheduler.schedule_run", func(scope *sentry.Scope) {
			scope.SetContext("scheduledEvent", sentry.Context{
				"jobName":      event.JobName,
				"scheduleTime": event.ScheduleTime,
			})
		}, func(ctx context.Context) error {
			return handler(ctx, event)
		})
	}
}

// WrapOnUserChange instruments a first-generation auth-change handler.
// The user identity goes on the scope instead of a context block.
func WrapOnUserChange(o Options, handler AuthHandler) AuthHandler {
	return func(ctx context.Context, user AuthUserRecord, meta EventContext) error {
		return invoke(ctx, o, "function.auth.user_change", func(scope *sentry.Scope) {
			scope.SetUser(sentry.User{
				ID:       user.UID,
				Email:    user.Email,
				Username: user.DisplayName,
			})
		}, func(ctx context.Context) error {
			return handler(ctx, user, meta)
		})
	}
}

// WrapTaskDispatched instruments a current-generation task-queue handler.
func WrapTaskDispatched(o Options, handler TaskHandler) TaskHandler {
	return func(ctx context.Context, task TaskRequest) error {
		return invoke(ctx, o, "function.tasks.task_dispatched", func(scope *sentry.Scope) {
			scope.SetContext("Task Request", sentry.Context{
				"id":             task.ID,
				"queue":          task.QueueName,
				"headers":        task.Headers,
				"retryCount":     task.RetryCount,
				"executionCount": task.ExecutionCount,
				"data":           task.Data,
			})
		}, func(ctx context.Context) error {
			return handler(ctx, task)
		})
	}
}

// Package sentryw wraps Cloud Functions handlers with tracing spans,
// scope enrichment drawn from the trigger payload, unhandled-exception
// capture and a bounded telemetry flush before every return.
package sentryw

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/valian-ca/firebase-functions/configw"
	"github.com/valian-ca/firebase-functions/errow"
)

const defaultFlushTimeout = 2 * time.Second

type InitOption struct {
	Runtime configw.Runtime

	// Release identifies the deployed code version in event metadata.
	Release string

	// Transport overrides the delivery transport; tests inject a fake.
	Transport sentry.Transport
}

// Init configures the global client: DSN and identity from the runtime, a
// Cloud Functions integration appended to the defaults, and a pre-send
// hook applying capture context carried by the reported error chain.
func Init(option *InitOption) error {
	if option == nil {
		option = &InitOption{}
	}
	environment := option.Runtime.Environment
	if environment == "" {
		environment = string(option.Runtime.Mode())
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn:              option.Runtime.SentryDSN,
		Environment:      environment,
		Release:          option.Release,
		ServerName:       option.Runtime.Service,
		AttachStacktrace: true,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Transport:        option.Transport,
		Integrations: func(integrations []sentry.Integration) []sentry.Integration {
			return append(integrations, &cloudFunctionsIntegration{runtime: option.Runtime})
		},
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if hint != nil && hint.OriginalException != nil {
				ApplyCaptureContext(event, hint.OriginalException)
			}
			return event
		},
	})
}

// cloudFunctionsIntegration stamps every event with the hosting runtime's
// identity.
type cloudFunctionsIntegration struct {
	runtime configw.Runtime
}

func (i *cloudFunctionsIntegration) Name() string {
	return "CloudFunctions"
}

func (i *cloudFunctionsIntegration) SetupOnce(client *sentry.Client) {
	client.AddEventProcessor(func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
		if event.Tags == nil {
			event.Tags = make(map[string]string)
		}
		event.Tags["runtime"] = "cloud_functions"
		if i.runtime.Service != "" {
			event.Tags["service"] = i.runtime.Service
		}
		if i.runtime.Revision != "" {
			event.Tags["revision"] = i.runtime.Revision
		}
		if event.ServerName == "" {
			event.ServerName = i.runtime.Service
		}
		return event
	})
}

// ApplyCaptureContext merges the capture context of every carrying layer
// of exception into event, outermost layer first. Later layers overwrite,
// so the innermost (root) cause wins extra and tag collisions and an
// inner fingerprint replaces an outer one. Errors without capture context
// leave the event untouched.
func ApplyCaptureContext(event *sentry.Event, exception error) {
	for _, layer := range errow.Chain(exception, errow.DefaultMaxDepth) {
		capture := layer.Context()
		if len(capture.Extra) > 0 {
			if event.Extra == nil {
				event.Extra = make(map[string]interface{}, len(capture.Extra))
			}
			for k, v := range capture.Extra {
				event.Extra[k] = v
			}
		}
		if len(capture.Tags) > 0 {
			if event.Tags == nil {
				event.Tags = make(map[string]string, len(capture.Tags))
			}
			for k, v := range capture.Tags {
				event.Tags[k] = v
			}
		}
		if len(capture.Contexts) > 0 {
			if event.Contexts == nil {
				event.Contexts = make(map[string]sentry.Context, len(capture.Contexts))
			}
			for k, v := range capture.Contexts {
				// shallow: the whole block is replaced, not deep-merged
				event.Contexts[k] = sentry.Context(v)
			}
		}
		if len(capture.Fingerprint) > 0 {
			event.Fingerprint = capture.Fingerprint
		}
	}
}

// MarkEventUnhandled attaches a processor flagging every exception of
// every event through scope as not handled. Returns the scope it was
// given. Calling it repeatedly stacks processors; they all run.
func MarkEventUnhandled(scope *sentry.Scope) *sentry.Scope {
	scope.AddEventProcessor(func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
		handled := false
		for i := range event.Exception {
			mechanism := event.Exception[i].Mechanism
			if mechanism == nil {
				mechanism = &sentry.Mechanism{Type: "generic"}
				event.Exception[i].Mechanism = mechanism
			}
			mechanism.Handled = &handled
		}
		return event
	})
	return scope
}

// HandleNotAwaited reports the eventual failure of work nobody waits on.
// A nil channel is a no-op. Otherwise a goroutine receives once and
// captures a non-nil error with the given hint; a nil error or a closed
// channel is ignored. Never blocks the caller.
func HandleNotAwaited(errc <-chan error, hint *sentry.EventHint) {
	if errc == nil {
		return
	}
	hub := sentry.CurrentHub().Clone()
	go func() {
		err, ok := <-errc
		if !ok || err == nil {
			return
		}
		client := hub.Client()
		if client == nil {
			return
		}
		if hint == nil {
			hint = &sentry.EventHint{}
		}
		if hint.OriginalException == nil {
			hint.OriginalException = err
		}
		client.CaptureException(err, hint, hub.Scope())
	}()
}

// Flush drains queued telemetry, waiting at most timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// RecoverRepanic is meant to be deferred: it reports a panic as unhandled,
// flushes, and re-raises so the runtime's own crash handling still runs.
func RecoverRepanic(hub *sentry.Hub, timeout time.Duration) {
	rec := recover()
	if rec == nil {
		return
	}
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		MarkEventUnhandled(scope)
		hub.Recover(rec)
	})
	if timeout <= 0 {
		timeout = defaultFlushTimeout
	}
	hub.Flush(timeout)
	panic(rec)
}

package sentryw

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/valian-ca/firebase-functions/configw"
	"github.com/valian-ca/firebase-functions/loggerw"
)

// Options configures one wrapped function.
type Options struct {
	// Name is the registered function name; spans and tags carry it.
	Name string

	Runtime configw.Runtime

	// Logger receives the local copy of unhandled errors outside
	// production. Optional.
	Logger loggerw.Logger

	// Hub overrides the global hub; each invocation clones it. Optional.
	Hub *sentry.Hub

	// FlushTimeout bounds the final telemetry drain. Defaults to 2s.
	FlushTimeout time.Duration
}

// EventContext is the metadata delivered alongside every first-generation
// event payload.
type EventContext struct {
	EventID   string    `json:"eventId"`
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
	Resource  string    `json:"resource"`
}

// FirestoreValue is one side of a document change.
type FirestoreValue struct {
	Name       string                 `json:"name"`
	Fields     map[string]interface{} `json:"fields"`
	CreateTime time.Time              `json:"createTime"`
	UpdateTime time.Time              `json:"updateTime"`
}

// FirestoreEvent is the first-generation document-write payload.
type FirestoreEvent struct {
	OldValue   FirestoreValue `json:"oldValue"`
	Value      FirestoreValue `json:"value"`
	UpdateMask struct {
		FieldPaths []string `json:"fieldPaths"`
	} `json:"updateMask"`
}

// DocumentEvent is the current-generation document-write payload, with
// its event metadata inline.
type DocumentEvent struct {
	ID       string                 `json:"id"`
	Source   string                 `json:"source"`
	Subject  string                 `json:"subject"`
	Time     time.Time              `json:"time"`
	Document string                 `json:"document"`
	Before   map[string]interface{} `json:"before"`
	After    map[string]interface{} `json:"after"`
}

// PubSubMessage is the first-generation published-message payload.
type PubSubMessage struct {
	ID          string            `json:"messageId"`
	Data        []byte            `json:"data"`
	Attributes  map[string]string `json:"attributes"`
	PublishTime time.Time         `json:"publishTime"`
	OrderingKey string            `json:"orderingKey"`
}

// MessagePublishedEvent is the current-generation published-message
// payload.
type MessagePublishedEvent struct {
	ID           string        `json:"id"`
	Source       string        `json:"source"`
	Subject      string        `json:"subject"`
	Time         time.Time     `json:"time"`
	Message      PubSubMessage `json:"message"`
	Subscription string        `json:"subscription"`
}

// ScheduledEvent is the current-generation scheduler payload.
type ScheduledEvent struct {
	JobName      string    `json:"jobName"`
	ScheduleTime time.Time `json:"scheduleTime"`
}

// AuthUserRecord is the first-generation auth-change payload.
type AuthUserRecord struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	PhoneNumber string    `json:"phoneNumber"`
	Disabled    bool      `json:"disabled"`
	CreateTime  time.Time `json:"createTime"`
}

// TaskRequest is the current-generation task-queue dispatch payload.
type TaskRequest struct {
	ID             string                 `json:"id"`
	QueueName      string                 `json:"queueName"`
	Headers        map[string]string      `json:"headers"`
	RetryCount     int                    `json:"retryCount"`
	ExecutionCount int                    `json:"executionCount"`
	Data           map[string]interface{} `json:"data"`
}

type (
	FirestoreHandler        func(ctx context.Context, event FirestoreEvent, meta EventContext) error
	DocumentWrittenHandler  func(ctx context.Context, event DocumentEvent) error
	PubSubHandler           func(ctx context.Context, message PubSubMessage, meta EventContext) error
	MessagePublishedHandler func(ctx context.Context, event MessagePublishedEvent) error
	RunHandler              func(ctx context.Context, meta EventContext) error
	ScheduleRunHandler      func(ctx context.Context, event ScheduledEvent) error
	AuthHandler             func(ctx context.Context, user AuthUserRecord, meta EventContext) error
	TaskHandler             func(ctx context.Context, task TaskRequest) error
)

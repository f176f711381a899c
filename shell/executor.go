package shell

import (
	"context"
	"errors"

	"github.com/google/uuid"

	rq "github.com/AntonStoeckl/reservation-queue-go/reservationqueue"
)

var (
	// ErrNilExecutorCollaborator is returned when an executor option receives a nil collaborator.
	ErrNilExecutorCollaborator = errors.New("executor collaborator must not be nil")

	// ErrPublishingNotificationsFailed wraps publisher errors. The notifications are committed at that point.
	ErrPublishingNotificationsFailed = errors.New("publishing committed notifications failed")

	// ErrLockingResourceFailed wraps locker errors.
	ErrLockingResourceFailed = errors.New("locking resource failed")
)

// QueueOperation mutates a loaded queue. It must not keep a reference to the queue.
type QueueOperation func(ctx context.Context, queue *rq.ReservationQueue) error

// QueueCommandExecutor runs the shared command workflow:
// Lock -> Load -> operate -> Drain -> Save (retried on conflicts) -> Publish.
type QueueCommandExecutor struct {
	repository       QueueRepository
	locker           ResourceLocker
	publisher        NotificationPublisher
	retryOptions     []RetryOption
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
}

// ExecutorOption configures a QueueCommandExecutor.
type ExecutorOption func(*QueueCommandExecutor) error

// WithLocker sets the per-resource locker, NoopLocker by default.
func WithLocker(locker ResourceLocker) ExecutorOption {
	return func(e *QueueCommandExecutor) error {
		if locker == nil {
			return ErrNilExecutorCollaborator
		}

		e.locker = locker

		return nil
	}
}

// WithPublisher sets the notification sink, NoopPublisher by default.
func WithPublisher(publisher NotificationPublisher) ExecutorOption {
	return func(e *QueueCommandExecutor) error {
		if publisher == nil {
			return ErrNilExecutorCollaborator
		}

		e.publisher = publisher

		return nil
	}
}

// WithRetryOptions sets a custom retry configuration.
func WithRetryOptions(opts ...RetryOption) ExecutorOption {
	return func(e *QueueCommandExecutor) error {
		e.retryOptions = opts
		return nil
	}
}

// WithExecutorLogger sets a basic logger for lock and publish problems.
func WithExecutorLogger(logger Logger) ExecutorOption {
	return func(e *QueueCommandExecutor) error {
		e.logger = logger
		return nil
	}
}

// WithExecutorContextualLogger sets a contextual logger for lock and publish problems.
func WithExecutorContextualLogger(logger ContextualLogger) ExecutorOption {
	return func(e *QueueCommandExecutor) error {
		e.contextualLogger = logger
		return nil
	}
}

// WithExecutorMetrics records committed notification counts per kind.
func WithExecutorMetrics(collector MetricsCollector) ExecutorOption {
	return func(e *QueueCommandExecutor) error {
		e.metricsCollector = collector
		return nil
	}
}

// NewQueueCommandExecutor creates an executor on top of a repository.
func NewQueueCommandExecutor(repository QueueRepository, opts ...ExecutorOption) (QueueCommandExecutor, error) {
	executor := QueueCommandExecutor{
		repository: repository,
		locker:     NoopLocker{},
		publisher:  NoopPublisher{},
	}

	for _, opt := range opts {
		if err := opt(&executor); err != nil {
			return QueueCommandExecutor{}, err
		}
	}

	return executor, nil
}

// Execute runs operate on the current state of the resource's queue and commits what it changed.
//
// A rejected operation writes nothing and its error is not retried. An operation that produces
// no notifications yields an idempotent result. Publishing happens once, after the commit.
func (e QueueCommandExecutor) Execute(
	ctx context.Context,
	resourceID uuid.UUID,
	causationID uuid.UUID,
	operate QueueOperation,
) (HandlerResult, error) {

	unlock, lockErr := e.locker.Lock(ctx, resourceID.String())
	if lockErr != nil {
		return NewErrorResult(RetryMetrics{LastErrorType: getErrorType(lockErr)}), errors.Join(ErrLockingResourceFailed, lockErr)
	}

	defer func() {
		if unlockErr := unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			LogWarn(ctx, e.logger, e.contextualLogger, LogMsgUnlockFailed,
				LogAttrResourceID, resourceID.String(), LogAttrError, unlockErr.Error())
		}
	}()

	var committed rq.Notifications

	retryMetrics, err := RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		committed = nil

		queue, loaded, loadErr := e.repository.Load(retryCtx, resourceID)
		if loadErr != nil {
			return loadErr
		}

		if opErr := operate(retryCtx, queue); opErr != nil {
			return opErr
		}

		drained := queue.DrainNotifications()
		if len(drained) == 0 {
			return nil
		}

		correlationID := causationID
		if correlationID == uuid.Nil {
			correlationID = uuid.New()
		}

		saveErr := e.repository.Save(retryCtx, loaded, drained, BuildBatchMetadata(len(drained), causationID, correlationID))
		if saveErr != nil {
			return saveErr
		}

		committed = drained

		return nil
	}, e.retryOptions...)

	if err != nil {
		return NewErrorResult(retryMetrics), err
	}

	if len(committed) == 0 {
		return NewIdempotentResult(retryMetrics), nil
	}

	RecordNotificationMetrics(e.metricsCollector, committed)

	result := NewSuccessResult(retryMetrics, len(committed))

	if publishErr := e.publisher.Publish(ctx, committed); publishErr != nil {
		LogError(ctx, e.logger, e.contextualLogger, LogMsgPublishFailed,
			LogAttrResourceID, resourceID.String(), LogAttrError, publishErr.Error())

		return result, errors.Join(ErrPublishingNotificationsFailed, publishErr)
	}

	return result, nil
}

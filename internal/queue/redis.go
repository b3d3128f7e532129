package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"etsy/lister/internal/config"
	"etsy/lister/internal/domain/task"
)

// StreamPrefix is prepended to the task type to name its stream
const StreamPrefix = "lister:stream:"

// Queue hands tasks to the upload workers
type Queue interface {
	AddTask(ctx context.Context, task task.Task) (string, error)
}

// RedisQueue publishes tasks to one Redis stream per task type. Upload workers consume
// the streams through a shared consumer group.
type RedisQueue struct {
	rdb    *redis.Client
	group  string
	maxLen int64
}

func NewRedisQueue(ctx context.Context, rdb *redis.Client, cfg config.RedisConfig) (*RedisQueue, error) {
	q := &RedisQueue{
		rdb:    rdb,
		group:  cfg.ConsumerGroup,
		maxLen: cfg.StreamMaxLen,
	}

	if err := q.EnsureStreamsExist(ctx, task.ApplyDefaultsTaskType); err != nil {
		return nil, err
	}

	return q, nil
}

func StreamName(taskType string) string {
	return StreamPrefix + taskType
}

// AddTask returns the stream message id of the published task
func (q *RedisQueue) AddTask(ctx context.Context, t task.Task) (string, error) {
	payload, err := t.TaskValue()
	if err != nil {
		return "", fmt.Errorf("failed to encode %s task: %w", t.TaskType(), err)
	}

	args := &redis.XAddArgs{
		Stream: StreamName(t.TaskType()),
		Values: map[string]any{
			"task_type": t.TaskType(),
			"task_data": string(payload),
		},
	}
	if q.maxLen > 0 {
		args.MaxLen = q.maxLen
		args.Approx = true
	}

	id, err := q.rdb.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish %s task: %w", t.TaskType(), err)
	}

	log.Debugf("Published %s task %s", t.TaskType(), id)
	return id, nil
}

// CreateGroup creates the stream and its consumer group; an existing group is not an error
func (q *RedisQueue) CreateGroup(ctx context.Context, stream, group string) error {
	err := q.rdb.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create group %s on %s: %w", group, stream, err)
	}
	return nil
}

// EnsureStreamsExist prepares the stream of every task type so tasks queued before the
// first worker starts are not lost
func (q *RedisQueue) EnsureStreamsExist(ctx context.Context, taskTypes ...string) error {
	for _, taskType := range taskTypes {
		if err := q.CreateGroup(ctx, StreamName(taskType), q.group); err != nil {
			return err
		}
	}

	log.Infof("📬 Upload streams ready for group %s", q.group)
	return nil
}

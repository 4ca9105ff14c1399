package jobqueue

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelBlog/internal/pkg/blog"
)

// EnqueueTimeout bounds how long a request waits on Redis to hand off a job
const EnqueueTimeout = 500 * time.Millisecond

var _ blog.Notifier = (*PostCreatedNotifier)(nil)

// PostCreatedNotifier hands post-created events to the Redis queue
type PostCreatedNotifier struct {
	queue   *Queue
	timeout time.Duration
}

func NewPostCreatedNotifier(queue *Queue) *PostCreatedNotifier {
	return &PostCreatedNotifier{queue: queue, timeout: EnqueueTimeout}
}

// NotifyPostCreated enqueues the job within the notifier timeout; the log
// line is written later by a worker
func (n *PostCreatedNotifier) NotifyPostCreated(postID uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	_, err := n.queue.EnqueuePostCreated(ctx, postID)
	return err
}

// EnqueuePostCreated schedules the post-created log entry
func (q *Queue) EnqueuePostCreated(ctx context.Context, postID uint64) (*Job, error) {
	job, err := NewJob(JobTypePostCreated, PostCreatedJobPayload{PostID: postID}, q.now())
	if err != nil {
		return nil, err
	}
	if err := q.Enqueue(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// handlePostCreated writes the post-created log line. A broken payload
// cannot get better on a second run, so it is logged and the job completes.
func handlePostCreated(ctx context.Context, job *Job) error {
	var payload PostCreatedJobPayload
	if err := job.DecodePayload(&payload); err != nil || payload.PostID == 0 {
		log.Warnf("[BlogPostCreated] Ignoring job %s with invalid payload %s: %v", job.ID, job.Payload, err)
		return nil
	}

	log.Infof("[BlogPostCreated] New blog post created [%d]", payload.PostID)
	return nil
}

package ledger

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	domainerrors "github.com/highgoal215/cryptowallet_service/internal/domain/errors"
	"github.com/highgoal215/cryptowallet_service/pkg/metrics"
)

type commandFunc func(ctx context.Context) (*entities.OperationResult, error)

type commandReply struct {
	result *entities.OperationResult
	err    error
}

type command struct {
	ctx       context.Context
	requestID uuid.UUID
	op        entities.Operation
	fn        commandFunc
	reply     chan commandReply
}

// commandQueue runs every mutating operation of a session on one goroutine,
// strictly in submission order.
type commandQueue struct {
	inbox   chan *command
	pending atomic.Int64

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func newCommandQueue(size int) *commandQueue {
	if size <= 0 {
		size = 1
	}
	q := &commandQueue{
		inbox:   make(chan *command, size),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *commandQueue) run() {
	defer close(q.stopped)
	for {
		select {
		case <-q.done:
			q.drain()
			return
		case cmd := <-q.inbox:
			q.execute(cmd)
		}
	}
}

func (q *commandQueue) execute(cmd *command) {
	// cancelled while waiting: never start, never mutate
	if err := cmd.ctx.Err(); err != nil {
		cmd.reply <- commandReply{err: err}
		return
	}

	var reply commandReply
	func() {
		defer func() {
			if r := recover(); r != nil {
				reply = commandReply{err: domainerrors.InternalError(
					fmt.Sprintf("%s panicked", cmd.op), fmt.Errorf("%v", r))}
			}
		}()
		res, err := cmd.fn(cmd.ctx)
		if err == nil && res == nil {
			res = &entities.OperationResult{}
		}
		reply = commandReply{result: res, err: err}
	}()

	if reply.result != nil {
		reply.result.RequestID = cmd.requestID
		reply.result.Operation = cmd.op
	}
	cmd.reply <- reply
}

func (q *commandQueue) drain() {
	for {
		select {
		case cmd := <-q.inbox:
			cmd.reply <- commandReply{err: domainerrors.ErrSessionClosed}
		default:
			return
		}
	}
}

// submit enqueues fn and waits for its completion. Once a command is accepted
// the caller always receives its real outcome, even if ctx expires meanwhile.
func (q *commandQueue) submit(ctx context.Context, op entities.Operation, fn commandFunc) (uuid.UUID, *entities.OperationResult, error) {
	cmd := &command{
		ctx:       ctx,
		requestID: newID(),
		op:        op,
		fn:        fn,
		reply:     make(chan commandReply, 1),
	}

	q.pending.Add(1)
	metrics.LedgerQueueDepth.Inc()
	defer func() {
		q.pending.Add(-1)
		metrics.LedgerQueueDepth.Dec()
	}()

	select {
	case <-q.done:
		return cmd.requestID, nil, domainerrors.ErrSessionClosed
	default:
	}

	select {
	case q.inbox <- cmd:
	case <-ctx.Done():
		return cmd.requestID, nil, ctx.Err()
	case <-q.done:
		return cmd.requestID, nil, domainerrors.ErrSessionClosed
	}

	select {
	case r := <-cmd.reply:
		return cmd.requestID, r.result, r.err
	case <-q.stopped:
		// run exited; drain may still have answered us
		select {
		case r := <-cmd.reply:
			return cmd.requestID, r.result, r.err
		default:
			return cmd.requestID, nil, domainerrors.ErrSessionClosed
		}
	}
}

// Pending reports queued plus in-flight operations
func (q *commandQueue) Pending() int {
	return int(q.pending.Load())
}

// close stops accepting work, fails queued commands and waits for the
// in-flight one to finish.
func (q *commandQueue) close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
	<-q.stopped
}

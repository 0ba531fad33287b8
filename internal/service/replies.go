package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/raphaelgruber/knowbot/internal/models"
)

// ErrReplyCancelled is returned by PendingReply.Wait when a newer message or
// a delete superseded the reply.
var ErrReplyCancelled = errors.New("reply cancelled")

// ReplyRequest is what a Responder answers.
type ReplyRequest struct {
	ConversationID string
	Text           string
	History        []models.Message
}

// Responder produces the bot's answer to a user message. Implementations must
// return promptly once ctx is cancelled.
type Responder interface {
	Respond(ctx context.Context, req ReplyRequest) (string, error)
}

// StaticResponder answers every message with Text after Delay.
type StaticResponder struct {
	Text  string
	Delay time.Duration
}

// Respond implements Responder.
func (r StaticResponder) Respond(ctx context.Context, _ ReplyRequest) (string, error) {
	timer := time.NewTimer(r.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return r.Text, nil
	}
}

// ReplyOutcome is the final state of a PendingReply.
type ReplyOutcome int

const (
	ReplyPending ReplyOutcome = iota
	ReplyDelivered
	ReplyCancelled
	ReplyFailed
)

func (o ReplyOutcome) String() string {
	switch o {
	case ReplyDelivered:
		return "delivered"
	case ReplyCancelled:
		return "cancelled"
	case ReplyFailed:
		return "failed"
	default:
		return "pending"
	}
}

// PendingReply is the future of one scheduled bot reply.
type PendingReply struct {
	conversationID string
	cancel         context.CancelFunc
	done           chan struct{}
	once           sync.Once

	// set once before done is closed
	outcome ReplyOutcome
	message models.Message
	err     error
}

func newPendingReply(conversationID string, cancel context.CancelFunc) *PendingReply {
	return &PendingReply{
		conversationID: conversationID,
		cancel:         cancel,
		done:           make(chan struct{}),
	}
}

// ConversationID returns the conversation the reply belongs to.
func (p *PendingReply) ConversationID() string { return p.conversationID }

// Done is closed once the reply was delivered, cancelled or failed.
func (p *PendingReply) Done() <-chan struct{} { return p.done }

// Outcome returns ReplyPending until Done is closed.
func (p *PendingReply) Outcome() ReplyOutcome {
	select {
	case <-p.done:
		return p.outcome
	default:
		return ReplyPending
	}
}

// Wait blocks until the reply settles or ctx ends. It returns the bot message
// when delivered, ErrReplyCancelled when superseded, or the responder error.
func (p *PendingReply) Wait(ctx context.Context) (models.Message, error) {
	select {
	case <-ctx.Done():
		return models.Message{}, ctx.Err()
	case <-p.done:
	}

	switch p.outcome {
	case ReplyDelivered:
		return p.message, nil
	case ReplyCancelled:
		return models.Message{}, ErrReplyCancelled
	default:
		return models.Message{}, p.err
	}
}

func (p *PendingReply) finish(outcome ReplyOutcome, msg models.Message, err error) {
	p.once.Do(func() {
		p.outcome = outcome
		p.message = msg
		p.err = err
		p.cancel()
		close(p.done)
	})
}

// scheduleReplyLocked cancels the current reply and starts a new one.
// Caller must hold w.mu.
func (w *Workspace) scheduleReplyLocked(req ReplyRequest) *PendingReply {
	w.cancelReplyLocked()

	ctx, cancel := context.WithCancel(w.ctx)
	p := newPendingReply(req.ConversationID, cancel)
	w.pending = p

	w.wg.Add(1)
	go w.runReply(ctx, p, req)
	return p
}

// cancelReplyLocked drops the current reply, if any. Caller must hold w.mu.
func (w *Workspace) cancelReplyLocked() {
	if w.pending == nil {
		return
	}
	p := w.pending
	w.pending = nil
	p.finish(ReplyCancelled, models.Message{}, nil)
	w.emitLocked(models.Event{Type: models.EventReplyCancelled, ConversationID: p.conversationID})
}

func (w *Workspace) runReply(ctx context.Context, p *PendingReply, req ReplyRequest) {
	defer w.wg.Done()

	start := time.Now()
	text, err := w.responder.Respond(ctx, req)
	w.recorder.RecordTiming(OpReply, time.Since(start))

	w.mu.Lock()
	if w.pending != p || w.closed {
		w.mu.Unlock()
		p.finish(ReplyCancelled, models.Message{}, nil)
		return
	}
	w.pending = nil

	if err != nil {
		w.emitLocked(models.Event{Type: models.EventReplyFailed, ConversationID: p.conversationID})
		w.mu.Unlock()
		w.logger.Warn("bot reply failed", "conversation", p.conversationID, "error", err)
		p.finish(ReplyFailed, models.Message{}, err)
		return
	}

	msg, err := w.appendLocked(ctx, p.conversationID, models.SenderBot, text, false)
	w.mu.Unlock()
	if err != nil {
		// the message is in memory; only the save failed and was logged
		w.logger.Warn("bot reply not persisted", "conversation", p.conversationID, "error", err)
	}

	w.logger.Debug("bot reply delivered", "conversation", p.conversationID, "message", msg.ID)
	p.finish(ReplyDelivered, msg, nil)
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"meal-planner/internal/model"
	"meal-planner/internal/service"
)

var errPlanCancelled = errors.New("plan cancelled by owner")

// planSession is one running week build. Answers typed by the owner are
// handed to the build goroutine through a single-slot channel.
type planSession struct {
	answers chan string
	cancel  context.CancelCauseFunc
}

func newPlanSession(parent context.Context) (*planSession, context.Context) {
	ctx, cancel := context.WithCancelCause(parent)
	return &planSession{answers: make(chan string, 1), cancel: cancel}, ctx
}

// answer hands text to the waiting selector. It reports false when a
// previous answer has not been picked up yet.
func (s *planSession) answer(text string) bool {
	select {
	case s.answers <- text:
		return true
	default:
		return false
	}
}

func (s *planSession) stop(cause error) {
	s.cancel(cause)
}

// chatSelector asks for each slot in the owner's chat and waits for the reply.
type chatSelector struct {
	prompt  func(text string, markup interface{}) error
	answers <-chan string
}

func (s *chatSelector) DayStarted(_ context.Context, day model.Day) error {
	return s.prompt(fmt.Sprintf("🗓 <b>%s</b>", day), nil)
}

func (s *chatSelector) DayPlanned(_ context.Context, day model.Day) error {
	return s.prompt(fmt.Sprintf("Yeah! We planned the meals for %s.", day), nil)
}

func (s *chatSelector) Select(ctx context.Context, req service.SelectionRequest) (string, error) {
	text := fmt.Sprintf("Choose the %s for %s:", req.Category, req.Day)
	if req.Err != nil {
		text = msgMealNotFound
	}
	if err := s.prompt(text, candidateKeyboard(req.Candidates)); err != nil {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", context.Cause(ctx)
	case answer := <-s.answers:
		return strings.TrimSpace(answer), nil
	}
}

func (b *Bot) startPlan(ctx context.Context, msg *tgbotapi.Message) error {
	userID, chatID := msg.From.ID, msg.Chat.ID
	if b.getSession(userID) != nil {
		return b.sendWithReplyMarkup(chatID, "A plan is already being built. Answer the question above or send /cancel.", nil)
	}
	b.clearConversation(userID)

	session, sessionCtx := newPlanSession(ctx)
	b.setSession(userID, session)

	sel := &chatSelector{
		answers: session.answers,
		prompt: func(text string, markup interface{}) error {
			return b.sendWithReplyMarkup(chatID, text, markup)
		},
	}

	log.Printf("[info] start plan session user=%d", userID)
	go b.runPlan(sessionCtx, userID, chatID, session, sel)
	return nil
}

func (b *Bot) runPlan(ctx context.Context, userID, chatID int64, session *planSession, sel *chatSelector) {
	defer session.stop(nil)
	defer b.clearSession(userID, session)

	entries, err := b.plans.Build(ctx, sel)
	var empty *service.EmptyCategoryError
	switch {
	case errors.As(err, &empty):
		err = b.sendText(chatID, fmt.Sprintf("No meals found for %s. Add one first with /add.", empty.Category))
	case err != nil && errors.Is(context.Cause(ctx), errPlanCancelled):
		log.Printf("[info] plan session cancelled user=%d", userID)
		err = b.sendText(chatID, "⏪ Planning cancelled. The previous plan is kept.")
	case err != nil && ctx.Err() != nil:
		log.Printf("[info] plan session stopped user=%d", userID)
		return
	case err != nil:
		log.Printf("build plan user=%d: %v", userID, err)
		err = b.sendText(chatID, fmt.Sprintf("Failed to build the plan: %s", escape(err.Error())))
	default:
		log.Printf("[info] plan stored user=%d slots=%d", userID, len(entries))
		var text string
		text, err = renderPlan(b.plans.Lines(ctx))
		if err == nil {
			err = b.sendText(chatID, text)
		}
	}
	if err != nil {
		log.Printf("report plan result to %d: %v", chatID, err)
	}
}

func (b *Bot) getSession(userID int64) *planSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[userID]
}

func (b *Bot) setSession(userID int64, session *planSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[userID] = session
}

// clearSession forgets session unless a newer one has replaced it.
func (b *Bot) clearSession(userID int64, session *planSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sessions[userID] == session {
		delete(b.sessions, userID)
	}
}

func (b *Bot) cancelAllSessions() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for userID, session := range b.sessions {
		session.stop(context.Canceled)
		delete(b.sessions, userID)
	}
}

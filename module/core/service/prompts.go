package service

import (
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrPromptNotFound = errors.New("prompt not found")

// Unanswered prompts expire after promptTTL; beyond maxPendingPrompts the oldest is dropped.
const (
	promptTTL         = 5 * time.Minute
	maxPendingPrompts = 32
)

type Prompt struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type pendingPrompt struct {
	Prompt
	onConfirm func()
}

// Prompts is the Notifier used by the server. Toasts are queued for fanout; confirmation
// prompts wait until a client accepts or declines them, and an accepted prompt's
// callback is posted back onto the loop.
type Prompts struct {
	post   func(func())
	toasts chan string
	now    func() time.Time
	ttl    time.Duration
	limit  int

	mu      sync.Mutex
	pending map[string]pendingPrompt
}

func NewPrompts(post func(func()), toastBuffer int) *Prompts {
	return &Prompts{
		post:    post,
		toasts:  make(chan string, toastBuffer),
		now:     time.Now,
		ttl:     promptTTL,
		limit:   maxPendingPrompts,
		pending: map[string]pendingPrompt{},
	}
}

func (p *Prompts) Toast(message string) {
	log.Printf("toast: %s", message)
	select {
	case p.toasts <- message:
	default:
		log.Printf("toast queue full, dropping %q", message)
	}
}

// Toasts is drained by the notification relay.
func (p *Prompts) Toasts() <-chan string {
	return p.toasts
}

func (p *Prompts) Confirm(title, message string, onConfirm func()) {
	prompt := pendingPrompt{
		Prompt: Prompt{
			ID:        uuid.NewString(),
			Title:     title,
			Message:   message,
			CreatedAt: p.now(),
		},
		onConfirm: onConfirm,
	}

	p.mu.Lock()
	p.expireLocked(prompt.CreatedAt)
	for p.limit > 0 && len(p.pending) >= p.limit {
		p.dropOldestLocked()
	}
	p.pending[prompt.ID] = prompt
	p.mu.Unlock()

	log.Printf("confirm %s: %s (%s)", prompt.ID, title, message)
}

func (p *Prompts) Pending() []Prompt {
	p.mu.Lock()
	p.expireLocked(p.now())
	out := make([]Prompt, 0, len(p.pending))
	for _, pp := range p.pending {
		out = append(out, pp.Prompt)
	}
	p.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Resolve answers a prompt. Declined prompts are discarded without running anything.
func (p *Prompts) Resolve(id string, accept bool) error {
	p.mu.Lock()
	p.expireLocked(p.now())
	prompt, ok := p.pending[id]
	delete(p.pending, id)
	p.mu.Unlock()

	if !ok {
		return ErrPromptNotFound
	}
	if accept && prompt.onConfirm != nil {
		p.post(prompt.onConfirm)
	}
	return nil
}

func (p *Prompts) expireLocked(now time.Time) {
	for id, pp := range p.pending {
		if now.Sub(pp.CreatedAt) >= p.ttl {
			log.Printf("prompt %s expired: %s", id, pp.Title)
			delete(p.pending, id)
		}
	}
}

func (p *Prompts) dropOldestLocked() {
	var oldest *pendingPrompt
	for _, pp := range p.pending {
		if oldest == nil || pp.CreatedAt.Before(oldest.CreatedAt) {
			pp := pp
			oldest = &pp
		}
	}
	if oldest == nil {
		return
	}
	log.Printf("too many pending prompts, dropping %s: %s", oldest.ID, oldest.Title)
	delete(p.pending, oldest.ID)
}

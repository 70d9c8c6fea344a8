package realtime

import (
	"context"
	"errors"
	"sync"

	"swiftfactureBack/internal/models"
)

// Frame types exchanged with a chat panel.
const (
	FrameHello    = "hello"
	FrameSelect   = "select"
	FrameSend     = "send"
	FrameMessages = "messages"
	FrameSenders  = "senders"
	FrameSent     = "sent"
	FrameError    = "error"
)

// ClientFrame is a frame sent by the browser.
type ClientFrame struct {
	Type        string `json:"type"`
	AccessToken string `json:"access_token,omitempty"`
	Counterpart string `json:"counterpart,omitempty"`
	Body        string `json:"body,omitempty"`
}

// Frame is a frame pushed to the browser.
type Frame struct {
	Type        string                 `json:"type"`
	Counterpart string                 `json:"counterpart,omitempty"`
	Messages    []models.Message       `json:"messages,omitempty"`
	Senders     []models.MessageSender `json:"senders,omitempty"`
	Message     *models.Message        `json:"message,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// MessageSource is what a panel reads from and writes to.
type MessageSource interface {
	List(ctx context.Context, role, counterpart string) ([]models.Message, error)
	Senders(ctx context.Context, role string) ([]models.MessageSender, error)
	Send(ctx context.Context, author models.Author, req models.SendMessageRequest) (models.Message, error)
}

// Panel is one mounted chat panel. It holds exactly one feed subscription and
// answers every change event with a full re-fetch. Events that arrive while a
// re-fetch is pending collapse into that re-fetch.
type Panel struct {
	author models.Author
	source MessageSource
	feed   Feed
	write  func(Frame) error
	logger Logger

	refresh chan struct{}

	mu          sync.Mutex
	counterpart string
	sub         Subscription
	closed      bool
}

func NewPanel(author models.Author, source MessageSource, feed Feed, write func(Frame) error, logger Logger) *Panel {
	return &Panel{
		author:  author,
		source:  source,
		feed:    feed,
		write:   write,
		logger:  logger,
		refresh: make(chan struct{}, 1),
	}
}

func (p *Panel) isAdmin() bool { return models.IsAdminRole(p.author.Role) }

// Run subscribes, pushes the initial lists and serves re-fetches until ctx is
// done. The subscription is closed on return.
func (p *Panel) Run(ctx context.Context) error {
	if err := p.resubscribe(ctx); err != nil {
		return err
	}
	defer p.Close()

	p.requestRefresh()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.refresh:
			p.fetch(ctx)
		}
	}
}

// Handle applies a frame received from the browser.
func (p *Panel) Handle(ctx context.Context, frame ClientFrame) {
	switch frame.Type {
	case FrameSelect:
		if !p.isAdmin() {
			p.writeError(models.ErrForbidden)
			return
		}
		p.mu.Lock()
		changed := p.counterpart != frame.Counterpart
		p.counterpart = frame.Counterpart
		p.mu.Unlock()
		if !changed {
			return
		}
		if err := p.resubscribe(ctx); err != nil {
			p.logger.Errorf("realtime: resubscribe panel of %s: %v", p.author.UserID, err)
			p.writeError(err)
			return
		}
		p.requestRefresh()
	case FrameSend:
		msg, err := p.source.Send(ctx, p.author, models.SendMessageRequest{Body: frame.Body, Counterpart: p.Counterpart()})
		if err != nil {
			p.writeError(err)
			return
		}
		p.writeFrame(Frame{Type: FrameSent, Message: &msg})
	default:
		p.writeError(errors.New("unknown frame type " + frame.Type))
	}
}

// Counterpart is the thread an admin panel currently shows.
func (p *Panel) Counterpart() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counterpart
}

// Close drops the feed subscription.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.sub != nil {
		_ = p.sub.Close()
		p.sub = nil
	}
}

// resubscribe replaces the current subscription. The old one is closed before
// the new one opens.
func (p *Panel) resubscribe(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("panel closed")
	}
	if p.sub != nil {
		_ = p.sub.Close()
		p.sub = nil
	}
	sub, err := p.feed.Subscribe(ctx)
	if err != nil {
		return err
	}
	p.sub = sub
	go p.listen(sub)
	return nil
}

func (p *Panel) listen(sub Subscription) {
	for range sub.Events() {
		p.requestRefresh()
	}
}

func (p *Panel) requestRefresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

func (p *Panel) fetch(ctx context.Context) {
	counterpart := p.Counterpart()
	messages, err := p.source.List(ctx, p.author.Role, counterpart)
	if err != nil {
		p.logger.Errorf("realtime: list messages for %s: %v", p.author.UserID, err)
		p.writeError(err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	p.writeFrame(Frame{Type: FrameMessages, Counterpart: counterpart, Messages: messages})

	if !p.isAdmin() {
		return
	}
	senders, err := p.source.Senders(ctx, p.author.Role)
	if err != nil {
		p.logger.Errorf("realtime: list senders: %v", err)
		return
	}
	p.writeFrame(Frame{Type: FrameSenders, Senders: senders})
}

func (p *Panel) writeFrame(f Frame) {
	if err := p.write(f); err != nil {
		p.logger.Errorf("realtime: write %s frame to %s: %v", f.Type, p.author.UserID, err)
	}
}

func (p *Panel) writeError(err error) {
	p.writeFrame(Frame{Type: FrameError, Error: err.Error()})
}

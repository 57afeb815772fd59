// Package msgsync fetches a channel's recent messages, decides whether
// anything changed and hands the result to the renderer.
package msgsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/parsascontentcorner/discordlite/internal/models"
	"github.com/parsascontentcorner/discordlite/internal/session"
)

// EmptyPlaceholder is shown for a channel without messages
const EmptyPlaceholder = "No messages yet. Start the conversation!"

// Mode selects how a sync treats an unchanged page
type Mode int

// Sync modes
const (
	// Full always replaces the buffer and renders. Used on channel
	// selection, refresh and after send, edit or delete.
	Full Mode = iota
	// Silent renders only when the newest message id changed. Used by the
	// background poll.
	Silent
)

func (m Mode) String() string {
	if m == Silent {
		return "silent"
	}
	return "full"
}

// Frame is one render of a channel's buffer, oldest first
type Frame struct {
	ChannelID snowflake.ID
	Messages  []models.Message
	Mode      Mode
}

// Empty reports whether the placeholder should be shown
func (f Frame) Empty() bool {
	return len(f.Messages) == 0
}

// MessageLister is the slice of the gateway the synchronizer needs
type MessageLister interface {
	ListMessages(ctx context.Context, creds models.Credentials, channelID snowflake.ID, limit int) ([]models.Message, error)
}

// Renderer receives sync results
type Renderer interface {
	RenderMessages(frame Frame)
	RenderMessagesError(channelID snowflake.ID, err error)
}

// Synchronizer runs fetch, diff and render cycles against the session state
type Synchronizer struct {
	gateway  MessageLister
	state    *session.State
	renderer Renderer
	limit    int
	logger   *zap.Logger
}

// New creates a synchronizer fetching up to limit messages per sync
func New(gateway MessageLister, state *session.State, renderer Renderer, limit int, logger *zap.Logger) *Synchronizer {
	return &Synchronizer{
		gateway:  gateway,
		state:    state,
		renderer: renderer,
		limit:    limit,
		logger:   logger,
	}
}

// Sync fetches the channel of ticket and renders according to mode.
// rendered reports whether a frame was handed to the renderer. Results for a
// ticket that is no longer current are dropped without rendering.
//
// In Full mode a fetch failure is rendered as an error, the buffer is
// invalidated so the next Silent sync renders again, and the error is
// returned. In Silent mode it is only logged and returned; what is on
// screen stays.
func (s *Synchronizer) Sync(ctx context.Context, ticket session.Ticket, mode Mode) (rendered bool, err error) {
	log := s.logger.With(
		zap.String("channel_id", ticket.ChannelID.String()),
		zap.Stringer("mode", mode),
	)

	if !s.state.IsCurrent(ticket) {
		log.Debug("skipping sync for inactive channel")
		return false, nil
	}

	page, err := s.gateway.ListMessages(ctx, s.state.Credentials(), ticket.ChannelID, s.limit)
	if err != nil {
		return false, s.fail(ctx, log, ticket, mode, err)
	}

	changed, err := s.state.ReplaceMessages(ticket, page, mode == Silent)
	if errors.Is(err, session.ErrStaleTicket) {
		log.Debug("discarding messages fetched for a previous channel", zap.Int("message_count", len(page)))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to store messages: %w", err)
	}
	if !changed || !s.state.IsCurrent(ticket) {
		return false, nil
	}

	log.Debug("rendering messages", zap.Int("message_count", len(page)))
	s.renderer.RenderMessages(Frame{
		ChannelID: ticket.ChannelID,
		Messages:  page,
		Mode:      mode,
	})
	return true, nil
}

func (s *Synchronizer) fail(ctx context.Context, log *zap.Logger, ticket session.Ticket, mode Mode, err error) error {
	// Cancelled by a channel switch or shutdown; nothing to report
	if ctx.Err() != nil {
		return ctx.Err()
	}

	err = fmt.Errorf("failed to fetch messages: %w", err)
	if mode == Silent {
		log.Warn("background sync failed", zap.Error(err))
		return err
	}

	log.Warn("sync failed", zap.Error(err))
	// The error replaces the list on screen, so the next poll must render
	// whatever it fetches
	if s.state.Invalidate(ticket) == nil {
		s.renderer.RenderMessagesError(ticket.ChannelID, err)
	}
	return err
}

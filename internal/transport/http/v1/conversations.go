package v1

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/convokeep/convokeep/internal/domain"
)

type attachmentView struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	Size int    `json:"size"`
}

type messageView struct {
	UUID        string                  `json:"uuid"`
	Content     string                  `json:"content"`
	Author      domain.Person           `json:"author"`
	Timestamp   int64                   `json:"timestamp"`
	ReplyTo     *messageView            `json:"reply_to,omitempty"`
	Attachments []attachmentView        `json:"attachments,omitempty"`
	Moderation  domain.ModerationResult `json:"moderation"`
}

func toMessageView(m *domain.Message) *messageView {
	if m == nil {
		return nil
	}
	view := &messageView{
		UUID:       m.UUID,
		Content:    m.Content,
		Author:     m.Author,
		Timestamp:  m.Timestamp,
		ReplyTo:    toMessageView(m.Reference),
		Moderation: m.Moderation,
	}
	for _, att := range m.Attachments {
		view.Attachments = append(view.Attachments, attachmentView{
			Kind: string(att.Kind()),
			Name: att.Name(),
			URL:  domain.AttachmentURL(att),
			Size: len(att.Payload()),
		})
	}
	return view
}

func channelIDParam(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("channel_id"), 10, 64)
}

// ListConversations lists all stored conversations with message counts.
// GET /v1/conversations
func (h *Handler) ListConversations(c echo.Context) error {
	convs, err := h.service.LoadConversations(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	type entry struct {
		ChannelID int64 `json:"channel_id"`
		Messages  int   `json:"messages"`
	}
	entries := make([]entry, 0, len(convs))
	for id, conv := range convs {
		entries = append(entries, entry{ChannelID: id, Messages: len(conv.Messages)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ChannelID < entries[j].ChannelID })

	return c.JSON(http.StatusOK, map[string]interface{}{
		"conversations": entries,
	})
}

// GetConversationMessages returns the stored history for a channel.
// GET /v1/conversations/:channel_id/messages
func (h *Handler) GetConversationMessages(c echo.Context) error {
	channelID, err := channelIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid channel id"})
	}

	conv, err := h.service.LoadConversation(c.Request().Context(), channelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	views := make([]*messageView, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		views = append(views, toMessageView(m))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"channel_id": channelID,
		"messages":   views,
	})
}

// DeleteConversation removes a channel's stored history.
// DELETE /v1/conversations/:channel_id
func (h *Handler) DeleteConversation(c echo.Context) error {
	channelID, err := channelIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid channel id"})
	}

	if err := h.service.DeleteConversation(c.Request().Context(), channelID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// ModerateConversation runs the moderation pipeline over a channel's
// stored history and persists the result.
// POST /v1/conversations/:channel_id/moderate
func (h *Handler) ModerateConversation(c echo.Context) error {
	channelID, err := channelIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid channel id"})
	}

	ctx := c.Request().Context()
	conv, err := h.service.LoadConversation(ctx, channelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	if err := h.service.ModerateAndSave(ctx, channelID, conv); err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}

	flagged := 0
	for _, m := range conv.Messages {
		if m.Moderation.Flagged {
			flagged++
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"channel_id": channelID,
		"messages":   len(conv.Messages),
		"flagged":    flagged,
	})
}

// GetMessage returns a single message with its reply chain resolved.
// GET /v1/messages/:uuid
func (h *Handler) GetMessage(c echo.Context) error {
	msg, err := h.service.MessageByUUID(c.Request().Context(), c.Param("uuid"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if msg == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "message not found"})
	}
	return c.JSON(http.StatusOK, toMessageView(msg))
}

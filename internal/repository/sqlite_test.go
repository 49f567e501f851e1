package store

import (
	"context"
	"testing"

	"github.com/convokeep/convokeep/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func testMessage(content string, ts int64) *domain.Message {
	m := domain.NewMessage(content, domain.NewPerson("alice", "al"))
	m.Timestamp = ts
	return m
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	conv := &domain.Conversation{}
	conv.AddMessage(testMessage("hello", 100))
	conv.AddMessage(testMessage("world", 200))

	if err := s.SaveConversation(ctx, 42, conv); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	got, err := s.LoadConversation(ctx, 42)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Content != "hello" || got.Messages[1].Content != "world" {
		t.Fatalf("messages out of order: %q, %q", got.Messages[0].Content, got.Messages[1].Content)
	}
	if got.Messages[0].Author.Name != "alice" || got.Messages[0].Author.Nick != "al" {
		t.Fatalf("author not restored: %+v", got.Messages[0].Author)
	}
	if got.Messages[0].Moderation.Moderated {
		t.Fatal("unmoderated message came back moderated")
	}
}

func TestContextMessagesAreNeverPersisted(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	conv := &domain.Conversation{}
	conv.AddMessage(testMessage("durable", 100))
	scaffold := testMessage("scaffolding", 200)
	scaffold.Context = true
	conv.AddMessage(scaffold)

	if err := s.SaveConversation(ctx, 1, conv); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}
	got, err := s.LoadConversation(ctx, 1)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "durable" {
		t.Fatalf("expected only the durable message, got %+v", got.Messages)
	}
}

func TestLoadMissingConversationIsEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	got, err := s.LoadConversation(ctx, 999)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(got.Messages) != 0 {
		t.Fatalf("expected empty conversation, got %d messages", len(got.Messages))
	}
}

func TestSaveIsFullReplace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := &domain.Conversation{}
	first.AddMessage(testMessage("A", 100))
	first.AddMessage(testMessage("B", 200))
	if err := s.SaveConversation(ctx, 42, first); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	second := &domain.Conversation{}
	second.AddMessage(testMessage("C", 300))
	if err := s.SaveConversation(ctx, 42, second); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	got, err := s.LoadConversation(ctx, 42)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "C" {
		t.Fatalf("expected exactly [C], got %+v", got.Messages)
	}
}

func TestReplyChainReconstruction(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Three-message chain in ancestor-first order.
	root := testMessage("root", 100)
	mid := testMessage("mid", 200)
	mid.Reference = root
	leaf := testMessage("leaf", 300)
	leaf.Reference = mid

	conv := &domain.Conversation{}
	conv.AddMessage(root)
	conv.AddMessage(mid)
	conv.AddMessage(leaf)
	if err := s.SaveConversation(ctx, 7, conv); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	got, err := s.LoadConversation(ctx, 7)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	loaded := got.Messages[2]
	if loaded.Content != "leaf" {
		t.Fatalf("unexpected last message %q", loaded.Content)
	}

	depth := 0
	for m := loaded.Reference; m != nil; m = m.Reference {
		depth++
	}
	if depth != 2 {
		t.Fatalf("expected reference chain of length 2, got %d", depth)
	}
	if loaded.Reference.Content != "mid" || loaded.Reference.Reference.Content != "root" {
		t.Fatalf("chain order wrong: %q -> %q",
			loaded.Reference.Content, loaded.Reference.Reference.Content)
	}
	if loaded.Reference.Reference.Reference != nil {
		t.Fatal("chain does not terminate in nil")
	}
}

func TestDanglingReferenceStoresNull(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// The ancestor was trimmed from the rolling window and never saved.
	ghost := testMessage("ghost", 50)
	msg := testMessage("orphan", 100)
	msg.Reference = ghost

	conv := &domain.Conversation{}
	conv.AddMessage(msg)
	if err := s.SaveConversation(ctx, 3, conv); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	got, err := s.LoadConversation(ctx, 3)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got.Messages))
	}
	if got.Messages[0].Reference != nil {
		t.Fatalf("dangling reference resolved to %+v", got.Messages[0].Reference)
	}
}

func TestAttachmentsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	msg := testMessage("with files", 100)
	msg.Attachments = []domain.Attachment{
		domain.ImageAttachment{Filename: "cat.png", Data: []byte{1, 2}, URL: "https://example.com/cat.png"},
		domain.TextAttachment{Filename: "notes.txt", Data: []byte("hi"), MIME: "text/plain"},
	}
	conv := &domain.Conversation{}
	conv.AddMessage(msg)
	if err := s.SaveConversation(ctx, 9, conv); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	got, err := s.LoadConversation(ctx, 9)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	atts := got.Messages[0].Attachments
	if len(atts) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(atts))
	}
	img, ok := atts[0].(domain.ImageAttachment)
	if !ok {
		t.Fatalf("expected ImageAttachment first, got %T", atts[0])
	}
	if img.URL != "https://example.com/cat.png" {
		t.Fatalf("image URL lost: %q", img.URL)
	}
	if _, ok := atts[1].(domain.TextAttachment); !ok {
		t.Fatalf("expected TextAttachment second, got %T", atts[1])
	}
}

func TestUnknownAttachmentTypeIsSkipped(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	msg := testMessage("mixed", 100)
	msg.Attachments = []domain.Attachment{
		domain.TextAttachment{Filename: "keep.txt", Data: []byte("x")},
	}
	conv := &domain.Conversation{}
	conv.AddMessage(msg)
	if err := s.SaveConversation(ctx, 5, conv); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	// Corrupt storage with a tag outside the variant set.
	if _, err := s.db.Exec(
		`INSERT INTO attachments (message_id, type, filename) VALUES (
			(SELECT id FROM messages WHERE uuid = ?), 'hologram', 'bad.bin')`,
		msg.UUID); err != nil {
		t.Fatalf("failed to insert corrupt row: %v", err)
	}

	got, err := s.LoadConversation(ctx, 5)
	if err != nil {
		t.Fatalf("LoadConversation must not fail on unknown tags: %v", err)
	}
	atts := got.Messages[0].Attachments
	if len(atts) != 1 || atts[0].Name() != "keep.txt" {
		t.Fatalf("expected only the known attachment, got %+v", atts)
	}
}

func TestModerationRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	msg := testMessage("nasty", 100)
	msg.Moderation = domain.ModerationResult{
		Flagged:   true,
		Moderated: true,
		Categories: domain.Categories{
			Harassment: true,
			BannedWord: "jerk",
		},
	}
	clean := testMessage("fine", 200)
	clean.Moderation = domain.ModerationResult{Moderated: true}

	conv := &domain.Conversation{}
	conv.AddMessage(msg)
	conv.AddMessage(clean)
	if err := s.SaveConversation(ctx, 11, conv); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	got, err := s.LoadConversation(ctx, 11)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	m := got.Messages[0].Moderation
	if !m.Flagged || !m.Moderated || !m.Categories.Harassment {
		t.Fatalf("moderation state lost: %+v", m)
	}
	if m.Categories.BannedWord != "jerk" {
		t.Fatalf("banned word lost: %q", m.Categories.BannedWord)
	}
	c := got.Messages[1].Moderation
	if !c.Moderated || c.Flagged {
		t.Fatalf("clean moderation state wrong: %+v", c)
	}
}

func TestDeleteConversationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	conv := &domain.Conversation{}
	conv.AddMessage(testMessage("bye", 100))
	if err := s.SaveConversation(ctx, 13, conv); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	if err := s.DeleteConversation(ctx, 13); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	got, err := s.LoadConversation(ctx, 13)
	if err != nil {
		t.Fatalf("LoadConversation failed: %v", err)
	}
	if len(got.Messages) != 0 {
		t.Fatalf("expected empty conversation after delete, got %d", len(got.Messages))
	}

	if err := s.DeleteConversation(ctx, 13); err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
}

func TestLoadConversations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := &domain.Conversation{}
	a.AddMessage(testMessage("in a", 100))
	b := &domain.Conversation{}
	b.AddMessage(testMessage("in b", 100))
	b.AddMessage(testMessage("more b", 200))

	if err := s.SaveConversation(ctx, 1, a); err != nil {
		t.Fatalf("save a failed: %v", err)
	}
	if err := s.SaveConversation(ctx, 2, b); err != nil {
		t.Fatalf("save b failed: %v", err)
	}

	all, err := s.LoadConversations(ctx)
	if err != nil {
		t.Fatalf("LoadConversations failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(all))
	}
	if len(all[1].Messages) != 1 || len(all[2].Messages) != 2 {
		t.Fatalf("wrong message counts: %d, %d", len(all[1].Messages), len(all[2].Messages))
	}
}

func TestMessageByUUID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	parent := testMessage("parent", 100)
	child := testMessage("child", 200)
	child.Reference = parent

	conv := &domain.Conversation{}
	conv.AddMessage(parent)
	conv.AddMessage(child)
	if err := s.SaveConversation(ctx, 21, conv); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	got, err := s.MessageByUUID(ctx, child.UUID)
	if err != nil {
		t.Fatalf("MessageByUUID failed: %v", err)
	}
	if got == nil || got.Content != "child" {
		t.Fatalf("unexpected message: %+v", got)
	}
	if got.Reference == nil || got.Reference.Content != "parent" {
		t.Fatalf("reply chain not resolved: %+v", got.Reference)
	}

	missing, err := s.MessageByUUID(ctx, "no-such-uuid")
	if err != nil {
		t.Fatalf("MessageByUUID for missing uuid failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing uuid, got %+v", missing)
	}
}

func TestReplyChainCycleGuard(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := testMessage("a", 100)
	b := testMessage("b", 200)
	b.Reference = a
	conv := &domain.Conversation{}
	conv.AddMessage(a)
	conv.AddMessage(b)
	if err := s.SaveConversation(ctx, 31, conv); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	// Corrupt the chain into a cycle: a now replies to b.
	if _, err := s.db.Exec(
		`UPDATE messages SET reply_to = (SELECT id FROM messages WHERE uuid = ?) WHERE uuid = ?`,
		b.UUID, a.UUID); err != nil {
		t.Fatalf("failed to corrupt chain: %v", err)
	}

	got, err := s.LoadConversation(ctx, 31)
	if err != nil {
		t.Fatalf("LoadConversation looped or failed: %v", err)
	}
	// The walk from b must stop once it would revisit a row.
	last := got.Messages[1]
	depth := 0
	for m := last.Reference; m != nil; m = m.Reference {
		depth++
		if depth > 3 {
			t.Fatal("cycle not broken")
		}
	}
}

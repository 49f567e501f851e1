package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/convokeep/convokeep/internal/domain"
)

// SQLiteStore implements Store using SQLite. The handle may be reused
// across calls; callers needing multi-writer safety for one channel must
// serialize externally.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dsn and applies the
// schema.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection so schema and data survive across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER,
			author TEXT NOT NULL,
			nick TEXT,
			reply_to INTEGER,
			content TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			uuid TEXT NOT NULL,
			UNIQUE (uuid) ON CONFLICT REPLACE,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id),
			FOREIGN KEY (reply_to) REFERENCES messages(id) ON DELETE SET NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS attachments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id INTEGER,
			type TEXT NOT NULL,
			filename TEXT NOT NULL,
			url TEXT,
			data BLOB,
			FOREIGN KEY (message_id) REFERENCES messages(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attachments_message ON attachments(message_id)`,
		`CREATE TABLE IF NOT EXISTS moderations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id INTEGER,
			flagged BOOLEAN NOT NULL DEFAULT 0,
			moderated BOOLEAN NOT NULL DEFAULT 0,
			harassment BOOLEAN NOT NULL DEFAULT 0,
			harassment_threat BOOLEAN NOT NULL DEFAULT 0,
			sexual BOOLEAN NOT NULL DEFAULT 0,
			hate BOOLEAN NOT NULL DEFAULT 0,
			hate_threat BOOLEAN NOT NULL DEFAULT 0,
			illicit BOOLEAN NOT NULL DEFAULT 0,
			illicit_violent BOOLEAN NOT NULL DEFAULT 0,
			self_harm_intent BOOLEAN NOT NULL DEFAULT 0,
			self_harm_instruction BOOLEAN NOT NULL DEFAULT 0,
			self_harm BOOLEAN NOT NULL DEFAULT 0,
			sexual_minors BOOLEAN NOT NULL DEFAULT 0,
			violence BOOLEAN NOT NULL DEFAULT 0,
			violence_graphic BOOLEAN NOT NULL DEFAULT 0,
			banned_word TEXT,
			FOREIGN KEY (message_id) REFERENCES messages(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_moderations_message ON moderations(message_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// withTx runs fn inside one transaction, rolling back on error. Every
// operation goes through here so delete-then-insert is atomic from the
// outside and no caller observes intermediate state.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("ERROR: failed to rollback: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveConversation performs a full replace of the channel's message set:
// the conversation row is upserted, every stored message (with its
// attachment and moderation rows) is deleted, and the given messages are
// inserted in order. Messages marked as context are never persisted.
// Messages absent from conv are unrecoverably dropped; conversations are a
// bounded rolling window, not an archive. Concurrent saves for the same
// channel are not coordinated and race last-committed-wins.
func (s *SQLiteStore) SaveConversation(ctx context.Context, channelID int64, conv *domain.Conversation) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO conversations (id) VALUES (?)`, channelID); err != nil {
			return fmt.Errorf("failed to upsert conversation %d: %w", channelID, err)
		}

		if err := clearMessages(ctx, tx, channelID); err != nil {
			return err
		}

		// conv.Messages is timestamp-ordered, so an ancestor is inserted
		// before its descendants and references resolve through this map.
		// The fallback query covers ancestors stored under another
		// conversation; anything else is a dangling reference, stored NULL.
		rowIDs := make(map[string]int64, len(conv.Messages))
		for _, msg := range conv.Messages {
			if msg.Context {
				continue
			}

			var replyTo sql.NullInt64
			if msg.Reference != nil {
				if id, ok := rowIDs[msg.Reference.UUID]; ok {
					replyTo = sql.NullInt64{Int64: id, Valid: true}
				} else {
					id, err := rowIDByUUID(ctx, tx, msg.Reference.UUID)
					if err != nil {
						return err
					}
					if id != 0 {
						replyTo = sql.NullInt64{Int64: id, Valid: true}
					}
				}
			}

			res, err := tx.ExecContext(ctx,
				`INSERT INTO messages (conversation_id, author, nick, reply_to, content, timestamp, uuid)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				channelID, msg.Author.Name, nullString(msg.Author.Nick), replyTo,
				msg.Content, msg.Timestamp, msg.UUID)
			if err != nil {
				return fmt.Errorf("failed to insert message %s: %w", msg.UUID, err)
			}
			msgID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get message row id: %w", err)
			}
			rowIDs[msg.UUID] = msgID

			for _, att := range msg.Attachments {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO attachments (message_id, type, filename, url, data)
					 VALUES (?, ?, ?, ?, ?)`,
					msgID, string(att.Kind()), att.Name(),
					nullString(domain.AttachmentURL(att)), att.Payload()); err != nil {
					return fmt.Errorf("failed to insert attachment %s: %w", att.Name(), err)
				}
			}

			if msg.Moderation.Moderated {
				if err := insertModeration(ctx, tx, msgID, msg.Moderation); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// LoadConversation returns the stored conversation for channelID, or an
// empty conversation when none exists. Messages come back in ascending
// timestamp order with reply chains, attachments and moderation state
// reattached.
func (s *SQLiteStore) LoadConversation(ctx context.Context, channelID int64) (*domain.Conversation, error) {
	conv := &domain.Conversation{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		loaded, err := loadConversationTx(ctx, tx, channelID)
		if err != nil {
			return err
		}
		conv = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// LoadConversations rehydrates every stored conversation, keyed by channel
// id. Used at process start.
func (s *SQLiteStore) LoadConversations(ctx context.Context) (map[int64]*domain.Conversation, error) {
	out := make(map[int64]*domain.Conversation)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id FROM conversations`)
		if err != nil {
			return fmt.Errorf("failed to query conversations: %w", err)
		}
		defer rows.Close()

		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return fmt.Errorf("failed to scan conversation id: %w", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate conversations: %w", err)
		}

		for _, id := range ids {
			conv, err := loadConversationTx(ctx, tx, id)
			if err != nil {
				return err
			}
			out[id] = conv
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteConversation removes the conversation row and all its messages,
// including their attachment and moderation rows. Deleting an absent
// conversation is a no-op.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, channelID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := clearMessages(ctx, tx, channelID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM conversations WHERE id = ?`, channelID); err != nil {
			return fmt.Errorf("failed to delete conversation %d: %w", channelID, err)
		}
		return nil
	})
}

// MessageByUUID resolves a single stored message, with its reply chain, by
// its stable identifier. Returns nil when no such message exists.
func (s *SQLiteStore) MessageByUUID(ctx context.Context, uuid string) (*domain.Message, error) {
	var msg *domain.Message
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		id, err := rowIDByUUID(ctx, tx, uuid)
		if err != nil {
			return err
		}
		if id == 0 {
			return nil
		}
		msg, err = resolveReplies(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// loadConversationTx loads one conversation inside an open transaction.
func loadConversationTx(ctx context.Context, tx *sql.Tx, channelID int64) (*domain.Conversation, error) {
	conv := &domain.Conversation{}

	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE id = ?`, channelID).Scan(&id)
	if err == sql.ErrNoRows {
		return conv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation %d: %w", channelID, err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM messages WHERE conversation_id = ? ORDER BY timestamp ASC`, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages for %d: %w", channelID, err)
	}
	defer rows.Close()

	var msgIDs []int64
	for rows.Next() {
		var msgID int64
		if err := rows.Scan(&msgID); err != nil {
			return nil, fmt.Errorf("failed to scan message id: %w", err)
		}
		msgIDs = append(msgIDs, msgID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	for _, msgID := range msgIDs {
		msg, err := resolveReplies(ctx, tx, msgID)
		if err != nil {
			return nil, err
		}
		if msg != nil {
			conv.AddMessage(msg)
		}
	}
	return conv, nil
}

// resolveReplies fetches the message at id and walks its reply_to pointers,
// attaching each ancestor as the previous hop's Reference. The walk is
// iterative and keeps a visited set: a NULL pointer, a lookup miss (broken
// chain) or a revisited id terminates it. The result is a linear ancestor
// chain, not a tree.
func resolveReplies(ctx context.Context, tx *sql.Tx, id int64) (*domain.Message, error) {
	head, next, err := fetchMessage(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if head == nil {
		return nil, nil
	}

	visited := map[int64]bool{id: true}
	cur := head
	for next.Valid {
		if visited[next.Int64] {
			log.Printf("WARN: reply chain revisits message row %d, breaking", next.Int64)
			break
		}
		visited[next.Int64] = true

		parent, parentNext, err := fetchMessage(ctx, tx, next.Int64)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			break
		}
		cur.Reference = parent
		cur = parent
		next = parentNext
	}
	return head, nil
}

// fetchMessage reads one message row with its attachments and moderation
// state. Returns (nil, _, nil) when the row does not exist.
func fetchMessage(ctx context.Context, tx *sql.Tx, id int64) (*domain.Message, sql.NullInt64, error) {
	var (
		author, content, uuid string
		nick                  sql.NullString
		timestamp             int64
		replyTo               sql.NullInt64
	)
	err := tx.QueryRowContext(ctx,
		`SELECT author, nick, content, timestamp, reply_to, uuid FROM messages WHERE id = ?`,
		id).Scan(&author, &nick, &content, &timestamp, &replyTo, &uuid)
	if err == sql.ErrNoRows {
		return nil, sql.NullInt64{}, nil
	}
	if err != nil {
		return nil, sql.NullInt64{}, fmt.Errorf("failed to scan message %d: %w", id, err)
	}

	msg := &domain.Message{
		UUID:      uuid,
		Content:   content,
		Author:    domain.NewPerson(author, nick.String),
		Timestamp: timestamp,
	}

	atts, err := resolveAttachments(ctx, tx, id)
	if err != nil {
		return nil, sql.NullInt64{}, err
	}
	msg.Attachments = atts

	mod, err := resolveModeration(ctx, tx, id)
	if err != nil {
		return nil, sql.NullInt64{}, err
	}
	msg.Moderation = mod

	return msg, replyTo, nil
}

// resolveAttachments reads the attachment rows for a message and dispatches
// on the stored type tag. Unknown tags are logged and skipped; the read
// path tolerates that data loss instead of failing the whole message.
func resolveAttachments(ctx context.Context, tx *sql.Tx, messageID int64) ([]domain.Attachment, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT type, filename, url, data FROM attachments WHERE message_id = ?`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachments for %d: %w", messageID, err)
	}
	defer rows.Close()

	var out []domain.Attachment
	for rows.Next() {
		var (
			kind, filename string
			url            sql.NullString
			data           []byte
		)
		if err := rows.Scan(&kind, &filename, &url, &data); err != nil {
			return nil, fmt.Errorf("failed to scan attachment row: %w", err)
		}
		att, err := domain.DecodeAttachment(domain.AttachmentKind(kind), filename, url.String, data)
		if err != nil {
			log.Printf("WARN: skipping attachment %q of message %d: %v", filename, messageID, err)
			continue
		}
		out = append(out, att)
	}
	return out, rows.Err()
}

// resolveModeration reads the moderation row for a message, or the default
// "not moderated" result when none is stored.
func resolveModeration(ctx context.Context, tx *sql.Tx, messageID int64) (domain.ModerationResult, error) {
	var (
		mod        domain.ModerationResult
		bannedWord sql.NullString
	)
	err := tx.QueryRowContext(ctx,
		`SELECT flagged, moderated, harassment, harassment_threat, sexual, hate, hate_threat,
		        illicit, illicit_violent, self_harm_intent, self_harm_instruction, self_harm,
		        sexual_minors, violence, violence_graphic, banned_word
		 FROM moderations WHERE message_id = ?`, messageID).Scan(
		&mod.Flagged, &mod.Moderated,
		&mod.Categories.Harassment, &mod.Categories.HarassmentThreat,
		&mod.Categories.Sexual, &mod.Categories.Hate, &mod.Categories.HateThreat,
		&mod.Categories.Illicit, &mod.Categories.IllicitViolent,
		&mod.Categories.SelfHarmIntent, &mod.Categories.SelfHarmInstruction,
		&mod.Categories.SelfHarm, &mod.Categories.SexualMinors,
		&mod.Categories.Violence, &mod.Categories.ViolenceGraphic,
		&bannedWord)
	if err == sql.ErrNoRows {
		return domain.ModerationResult{}, nil
	}
	if err != nil {
		return domain.ModerationResult{}, fmt.Errorf("failed to scan moderation for %d: %w", messageID, err)
	}
	mod.Categories.BannedWord = bannedWord.String
	return mod, nil
}

func insertModeration(ctx context.Context, tx *sql.Tx, messageID int64, mod domain.ModerationResult) error {
	c := mod.Categories
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO moderations (message_id, flagged, moderated, harassment, harassment_threat,
		        sexual, hate, hate_threat, illicit, illicit_violent, self_harm_intent,
		        self_harm_instruction, self_harm, sexual_minors, violence, violence_graphic, banned_word)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		messageID, mod.Flagged, mod.Moderated,
		c.Harassment, c.HarassmentThreat, c.Sexual, c.Hate, c.HateThreat,
		c.Illicit, c.IllicitViolent, c.SelfHarmIntent, c.SelfHarmInstruction,
		c.SelfHarm, c.SexualMinors, c.Violence, c.ViolenceGraphic,
		nullString(c.BannedWord)); err != nil {
		return fmt.Errorf("failed to insert moderation for %d: %w", messageID, err)
	}
	return nil
}

// clearMessages deletes a conversation's message rows together with their
// attachment and moderation rows, children first for foreign-key safety.
func clearMessages(ctx context.Context, tx *sql.Tx, channelID int64) error {
	queries := []string{
		`DELETE FROM attachments WHERE message_id IN (SELECT id FROM messages WHERE conversation_id = ?)`,
		`DELETE FROM moderations WHERE message_id IN (SELECT id FROM messages WHERE conversation_id = ?)`,
		`DELETE FROM messages WHERE conversation_id = ?`,
	}
	for _, q := range queries {
		if _, err := tx.ExecContext(ctx, q, channelID); err != nil {
			return fmt.Errorf("failed to clear messages for %d: %w", channelID, err)
		}
	}
	return nil
}

// rowIDByUUID returns the row id of the message with the given uuid, or 0
// when no such message is stored.
func rowIDByUUID(ctx context.Context, tx *sql.Tx, uuid string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM messages WHERE uuid = ?`, uuid).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up message %s: %w", uuid, err)
	}
	return id, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

package store

import (
	"database/sql"
	"time"

	"github.com/coachlingua/leadengine/internal/model"
)

// CreateChatSession records a new chatbot conversation. Creating an existing
// session is a no-op so the handler can call it on every turn.
func (s *Store) CreateChatSession(id, language string) error {
	_, err := s.db.Exec(
		`INSERT INTO chat_sessions (id, language, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		id, language, time.Now(),
	)
	return err
}

// GetChatSession returns a chat session by id, or nil if unknown.
func (s *Store) GetChatSession(id string) (*model.ChatSession, error) {
	var cs model.ChatSession
	var complete int
	var collected model.CollectedData
	err := s.db.QueryRow(
		`SELECT id, language, is_complete, collected_name, collected_email, collected_level, collected_goal, collected_urgency, created_at
		 FROM chat_sessions WHERE id = ?`, id,
	).Scan(&cs.ID, &cs.Language, &complete,
		&collected.Name, &collected.Email, &collected.EnglishLevel, &collected.Goal, &collected.Urgency,
		&cs.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cs.IsComplete = complete != 0
	if cs.IsComplete {
		cs.Collected = &collected
	}
	return &cs, nil
}

// SetChatOutcome stores the completion flag and collected data of a session.
func (s *Store) SetChatOutcome(id string, complete bool, collected *model.CollectedData) error {
	var c model.CollectedData
	if collected != nil {
		c = *collected
	}
	_, err := s.db.Exec(
		`UPDATE chat_sessions
		 SET is_complete = ?, collected_name = ?, collected_email = ?, collected_level = ?, collected_goal = ?, collected_urgency = ?
		 WHERE id = ?`,
		complete, c.Name, c.Email, c.EnglishLevel, c.Goal, c.Urgency, id,
	)
	return err
}

// AppendChatMessage persists one transcript message.
func (s *Store) AppendChatMessage(m model.ChatMessage) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO chat_messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		m.SessionID, m.Role, m.Content, m.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetChatMessages returns a session's transcript in chronological order.
func (s *Store) GetChatMessages(sessionID string) ([]model.ChatMessage, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, role, content, created_at FROM chat_messages WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var messages []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/coachlingua/leadengine/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		discount TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT 'it',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bookings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		sector TEXT NOT NULL DEFAULT '',
		english_level TEXT NOT NULL DEFAULT '',
		age TEXT NOT NULL DEFAULT '',
		preferred_day TEXT NOT NULL DEFAULT '',
		preferred_time TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT 'it',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS corporate_quotes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_name TEXT NOT NULL,
		contact_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		sector TEXT NOT NULL DEFAULT '',
		team_size TEXT NOT NULL DEFAULT '',
		objectives TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT 'it',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS testimonials (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		author TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT '',
		quote TEXT NOT NULL,
		language TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		logo_url TEXT NOT NULL DEFAULT '',
		featured INTEGER NOT NULL DEFAULT 0,
		sort_order INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS chat_sessions (
		id TEXT PRIMARY KEY,
		language TEXT NOT NULL DEFAULT 'it',
		is_complete INTEGER NOT NULL DEFAULT 0,
		collected_name TEXT NOT NULL DEFAULT '',
		collected_email TEXT NOT NULL DEFAULT '',
		collected_level TEXT NOT NULL DEFAULT '',
		collected_goal TEXT NOT NULL DEFAULT '',
		collected_urgency TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES chat_sessions(id)
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertLead stores a captured lead and returns its id.
func (s *Store) InsertLead(l model.Lead) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO leads (name, email, phone, message, discount, type, language, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Name, l.Email, l.Phone, l.Message, l.Discount, l.Type, l.Language, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListLeads returns all leads, newest first.
func (s *Store) ListLeads() ([]model.Lead, error) {
	rows, err := s.db.Query(
		`SELECT id, name, email, phone, message, discount, type, language, created_at
		 FROM leads ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Message, &l.Discount, &l.Type, &l.Language, &l.CreatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// GetLead returns a lead by id.
func (s *Store) GetLead(id int64) (model.Lead, error) {
	var l model.Lead
	err := s.db.QueryRow(
		`SELECT id, name, email, phone, message, discount, type, language, created_at
		 FROM leads WHERE id = ?`, id,
	).Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Message, &l.Discount, &l.Type, &l.Language, &l.CreatedAt)
	return l, err
}

// InsertBooking stores a trial-lesson booking request.
func (s *Store) InsertBooking(b model.Booking) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO bookings (name, email, phone, sector, english_level, age, preferred_day, preferred_time, message, language, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Name, b.Email, b.Phone, b.Sector, b.EnglishLevel, b.Age, b.PreferredDay, b.PreferredTime, b.Message, b.Language, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListBookings returns all bookings, newest first.
func (s *Store) ListBookings() ([]model.Booking, error) {
	rows, err := s.db.Query(
		`SELECT id, name, email, phone, sector, english_level, age, preferred_day, preferred_time, message, language, created_at
		 FROM bookings ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.Name, &b.Email, &b.Phone, &b.Sector, &b.EnglishLevel, &b.Age, &b.PreferredDay, &b.PreferredTime, &b.Message, &b.Language, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// InsertCorporateQuote stores a corporate quote request.
func (s *Store) InsertCorporateQuote(q model.CorporateQuote) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO corporate_quotes (company_name, contact_name, email, phone, sector, team_size, objectives, message, language, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.CompanyName, q.ContactName, q.Email, q.Phone, q.Sector, q.TeamSize, q.Objectives, q.Message, q.Language, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListCorporateQuotes returns all quote requests, newest first.
func (s *Store) ListCorporateQuotes() ([]model.CorporateQuote, error) {
	rows, err := s.db.Query(
		`SELECT id, company_name, contact_name, email, phone, sector, team_size, objectives, message, language, created_at
		 FROM corporate_quotes ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var quotes []model.CorporateQuote
	for rows.Next() {
		var q model.CorporateQuote
		if err := rows.Scan(&q.ID, &q.CompanyName, &q.ContactName, &q.Email, &q.Phone, &q.Sector, &q.TeamSize, &q.Objectives, &q.Message, &q.Language, &q.CreatedAt); err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// LeadCount returns the number of captured leads.
func (s *Store) LeadCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM leads`).Scan(&count)
	return count, err
}

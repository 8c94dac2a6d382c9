package store

import (
	"log/slog"

	"github.com/coachlingua/leadengine/internal/model"
)

// InsertTestimonial stores a testimonial.
func (s *Store) InsertTestimonial(t model.Testimonial) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO testimonials (author, role, quote, language, sort_order) VALUES (?, ?, ?, ?, ?)`,
		t.Author, t.Role, t.Quote, t.Language, t.SortOrder,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListTestimonials returns the testimonials published for a language.
func (s *Store) ListTestimonials(language string) ([]model.Testimonial, error) {
	rows, err := s.db.Query(
		`SELECT id, author, role, quote, language, sort_order
		 FROM testimonials WHERE language = ? ORDER BY sort_order, id`, language,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var testimonials []model.Testimonial
	for rows.Next() {
		var t model.Testimonial
		if err := rows.Scan(&t.ID, &t.Author, &t.Role, &t.Quote, &t.Language, &t.SortOrder); err != nil {
			return nil, err
		}
		testimonials = append(testimonials, t)
	}
	return testimonials, rows.Err()
}

// InsertClient stores a logo-wall entry.
func (s *Store) InsertClient(c model.Client) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO clients (name, category, logo_url, featured, sort_order) VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Category, c.LogoURL, c.Featured, c.SortOrder,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListClients returns logo-wall entries, optionally only featured ones.
func (s *Store) ListClients(featuredOnly bool) ([]model.Client, error) {
	query := `SELECT id, name, category, logo_url, featured, sort_order FROM clients`
	if featuredOnly {
		query += ` WHERE featured = 1`
	}
	query += ` ORDER BY sort_order, id`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var clients []model.Client
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &c.LogoURL, &c.Featured, &c.SortOrder); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

const contentSeedKey = "content_seed_version"
const contentSeedVersion = "1"

// SeedContent loads the default testimonials and clients on first run.
// A changed seed after launch would not be re-applied; bump the version key
// only together with a migration of the existing rows.
func (s *Store) SeedContent() error {
	version, err := s.GetMetadata(contentSeedKey)
	if err != nil {
		return err
	}
	if version == contentSeedVersion {
		return nil
	}

	for _, t := range defaultTestimonials() {
		if _, err := s.InsertTestimonial(t); err != nil {
			return err
		}
	}
	for _, c := range defaultClients() {
		if _, err := s.InsertClient(c); err != nil {
			return err
		}
	}
	if err := s.SetMetadata(contentSeedKey, contentSeedVersion); err != nil {
		return err
	}
	slog.Info("seeded default site content")
	return nil
}

func defaultTestimonials() []model.Testimonial {
	return []model.Testimonial{
		{Author: "Marco B.", Role: "Product Manager", Language: "it", SortOrder: 1,
			Quote: "In quattro mesi sono passato dal temere le call in inglese a condurle io stesso."},
		{Author: "Elena V.", Role: "Export Manager", Language: "it", SortOrder: 2,
			Quote: "Un metodo concreto, costruito sul mio lavoro. Niente esercizi astratti."},
		{Author: "Davide R.", Role: "Ingegnere", Language: "it", SortOrder: 3,
			Quote: "Ho superato il colloquio in inglese per la sede di Londra al primo tentativo."},
		{Author: "Marco B.", Role: "Product Manager", Language: "en", SortOrder: 1,
			Quote: "In four months I went from dreading English calls to leading them myself."},
		{Author: "Elena V.", Role: "Export Manager", Language: "en", SortOrder: 2,
			Quote: "A practical method built around my actual job. No abstract drills."},
		{Author: "Davide R.", Role: "Engineer", Language: "en", SortOrder: 3,
			Quote: "I passed the English interview for the London office on the first try."},
	}
}

func defaultClients() []model.Client {
	return []model.Client{
		{Name: "TechNova", Category: model.ClientCompany, LogoURL: "/logos/technova.svg", Featured: true, SortOrder: 1},
		{Name: "Banca Adriatica", Category: model.ClientCompany, LogoURL: "/logos/adriatica.svg", Featured: true, SortOrder: 2},
		{Name: "Gruppo Meridia", Category: model.ClientCompany, LogoURL: "/logos/meridia.svg", Featured: false, SortOrder: 3},
		{Name: "Il Corriere della Formazione", Category: model.ClientRecognition, LogoURL: "/logos/corriere.svg", Featured: true, SortOrder: 4},
		{Name: "EduAwards 2025", Category: model.ClientRecognition, LogoURL: "/logos/eduawards.svg", Featured: true, SortOrder: 5},
	}
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sankofa-learn/sankofa/internal/domain"
)

// GuardianByChat returns the guardian for a chat, creating one on first
// contact.
func (s *Store) GuardianByChat(ctx context.Context, chatID int64) (*domain.Guardian, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, chat_id, name, language, opted_in, opted_out, created_at, updated_at
		FROM guardians WHERE chat_id = ?`, chatID)

	g := &domain.Guardian{}
	err := row.Scan(&g.ID, &g.ChatID, &g.Name, &g.Language, &g.OptedIn, &g.OptedOut, &g.CreatedAt, &g.UpdatedAt)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load guardian: %w", err)
	}

	now := time.Now().UTC()
	// Language stays empty until the guardian picks one; the flow uses
	// it to tell a finished onboarding from an abandoned one.
	g = &domain.Guardian{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO guardians (id, chat_id, name, language, opted_in, opted_out, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.ChatID, g.Name, g.Language, g.OptedIn, g.OptedOut, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create guardian: %w", err)
	}
	return g, nil
}

// SaveGuardian persists mutations to an existing guardian.
func (s *Store) SaveGuardian(ctx context.Context, g *domain.Guardian) error {
	g.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE guardians SET name = ?, language = ?, opted_in = ?, opted_out = ?, updated_at = ?
		WHERE id = ?`,
		g.Name, g.Language, g.OptedIn, g.OptedOut, g.UpdatedAt, g.ID)
	if err != nil {
		return fmt.Errorf("save guardian: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.NotFoundError{Kind: "guardian", ID: g.ID}
	}
	return nil
}

// HasEducator reports whether a chat already belongs to an educator,
// without creating one. Used to route inbound messages by actor kind.
func (s *Store) HasEducator(ctx context.Context, chatID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM educators WHERE chat_id = ?`, chatID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("probe educator: %w", err)
	}
	return n > 0, nil
}

// EducatorByChat returns the educator for a chat, creating one on first
// contact.
func (s *Store) EducatorByChat(ctx context.Context, chatID int64) (*domain.Educator, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, chat_id, name, school_id, school_name, class_name, opted_in, opted_out, created_at, updated_at
		FROM educators WHERE chat_id = ?`, chatID)

	e := &domain.Educator{}
	err := row.Scan(&e.ID, &e.ChatID, &e.Name, &e.SchoolID, &e.SchoolName, &e.ClassName, &e.OptedIn, &e.OptedOut, &e.CreatedAt, &e.UpdatedAt)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load educator: %w", err)
	}

	now := time.Now().UTC()
	e = &domain.Educator{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO educators (id, chat_id, name, school_id, school_name, class_name, opted_in, opted_out, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ChatID, e.Name, e.SchoolID, e.SchoolName, e.ClassName, e.OptedIn, e.OptedOut, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create educator: %w", err)
	}
	return e, nil
}

// SaveEducator persists mutations to an existing educator.
func (s *Store) SaveEducator(ctx context.Context, e *domain.Educator) error {
	e.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE educators SET name = ?, school_id = ?, school_name = ?, class_name = ?, opted_in = ?, opted_out = ?, updated_at = ?
		WHERE id = ?`,
		e.Name, e.SchoolID, e.SchoolName, e.ClassName, e.OptedIn, e.OptedOut, e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("save educator: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.NotFoundError{Kind: "educator", ID: e.ID}
	}
	return nil
}

// CreateStudent inserts a new student record.
func (s *Store) CreateStudent(ctx context.Context, st *domain.Student) error {
	now := time.Now().UTC()
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	st.CreatedAt = now
	st.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (id, guardian_id, educator_id, name, entry_grade, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.GuardianID, st.EducatorID, st.Name, st.EntryGrade, st.CreatedAt, st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Student loads a student by ID.
func (s *Store) Student(ctx context.Context, id string) (*domain.Student, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, guardian_id, educator_id, name, entry_grade, created_at, updated_at
		FROM students WHERE id = ?`, id)

	st := &domain.Student{}
	err := row.Scan(&st.ID, &st.GuardianID, &st.EducatorID, &st.Name, &st.EntryGrade, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "student", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	return st, nil
}

// StudentsByGuardian lists a guardian's students, oldest first.
func (s *Store) StudentsByGuardian(ctx context.Context, guardianID string) ([]*domain.Student, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guardian_id, educator_id, name, entry_grade, created_at, updated_at
		FROM students WHERE guardian_id = ? ORDER BY created_at`, guardianID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var out []*domain.Student
	for rows.Next() {
		st := &domain.Student{}
		if err := rows.Scan(&st.ID, &st.GuardianID, &st.EducatorID, &st.Name, &st.EntryGrade, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// StudentsByEducator lists an educator's roster, oldest first.
func (s *Store) StudentsByEducator(ctx context.Context, educatorID string) ([]*domain.Student, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guardian_id, educator_id, name, entry_grade, created_at, updated_at
		FROM students WHERE educator_id = ? ORDER BY created_at`, educatorID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var out []*domain.Student
	for rows.Next() {
		st := &domain.Student{}
		if err := rows.Scan(&st.ID, &st.GuardianID, &st.EducatorID, &st.Name, &st.EntryGrade, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// SchoolByCode looks up a school by invitation code.
func (s *Store) SchoolByCode(ctx context.Context, code string) (*domain.School, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, invitation_code FROM schools WHERE invitation_code = ?`, code)

	sc := &domain.School{}
	err := row.Scan(&sc.ID, &sc.Name, &sc.InvitationCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "school", ID: code}
	}
	if err != nil {
		return nil, fmt.Errorf("load school: %w", err)
	}
	return sc, nil
}

// Schools lists all schools for fuzzy name matching during educator
// onboarding.
func (s *Store) Schools(ctx context.Context) ([]*domain.School, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, invitation_code FROM schools ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	defer rows.Close()

	var out []*domain.School
	for rows.Next() {
		sc := &domain.School{}
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.InvitationCode); err != nil {
			return nil, fmt.Errorf("scan school: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// CreateSchool inserts a school (seeding and tests).
func (s *Store) CreateSchool(ctx context.Context, sc *domain.School) error {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schools (id, name, invitation_code) VALUES (?, ?, ?)`,
		sc.ID, sc.Name, sc.InvitationCode)
	if err != nil {
		return fmt.Errorf("create school: %w", err)
	}
	return nil
}

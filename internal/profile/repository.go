package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cvbot_backend/platform/apperr"
)

// Repository persists candidate profiles in Postgres.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Save upserts the candidate row and replaces every sub-section in one
// transaction. The conversation always confirms a complete profile, so a
// full replace is simpler and safer than row-level diffing.
func (r *Repository) Save(ctx context.Context, p *Profile) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin profile save: %w", err)
	}
	defer tx.Rollback(ctx)

	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO candidates (
			id, telegram_user_id, first_name, middle_name, last_name,
			phone_number, email_address, linkedin_profile, city, country,
			photo_ref, career_objective, other_activities
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (telegram_user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			middle_name = EXCLUDED.middle_name,
			last_name = EXCLUDED.last_name,
			phone_number = EXCLUDED.phone_number,
			email_address = EXCLUDED.email_address,
			linkedin_profile = EXCLUDED.linkedin_profile,
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			photo_ref = EXCLUDED.photo_ref,
			career_objective = EXCLUDED.career_objective,
			other_activities = EXCLUDED.other_activities,
			updated_at = now()`,
		p.ID, p.TelegramUserID, p.FirstName, p.MiddleName, p.LastName,
		p.PhoneNumber, p.EmailAddress, p.LinkedInProfile, p.City, p.Country,
		p.PhotoRef, p.CareerObjective, p.OtherActivities,
	)
	if err != nil {
		return fmt.Errorf("upsert candidate: %w", err)
	}

	// The upsert may have kept an existing id. Read it back so child rows
	// attach to the right candidate.
	var candidateID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM candidates WHERE telegram_user_id = $1`,
		p.TelegramUserID,
	).Scan(&candidateID)
	if err != nil {
		return fmt.Errorf("read candidate id: %w", err)
	}
	p.ID = candidateID

	for _, table := range []string{
		"work_experiences", "education_entries", "skills",
		"certifications", "projects", "language_skills",
	} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE candidate_id = $1`, candidateID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, w := range p.WorkExperiences {
		_, err := tx.Exec(ctx, `
			INSERT INTO work_experiences (candidate_id, job_title, company_name, location, description)
			VALUES ($1, $2, $3, $4, $5)`,
			candidateID, w.JobTitle, w.CompanyName, w.Location, w.Description)
		if err != nil {
			return fmt.Errorf("insert work experience: %w", err)
		}
	}
	for _, e := range p.Education {
		_, err := tx.Exec(ctx, `
			INSERT INTO education_entries (candidate_id, degree_name, institution_name, gpa, description, achievements)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			candidateID, e.DegreeName, e.InstitutionName, e.GPA, e.Description, e.Achievements)
		if err != nil {
			return fmt.Errorf("insert education entry: %w", err)
		}
	}
	for _, s := range p.Skills {
		_, err := tx.Exec(ctx, `
			INSERT INTO skills (candidate_id, skill_name, proficiency)
			VALUES ($1, $2, $3)`,
			candidateID, s.SkillName, s.Proficiency)
		if err != nil {
			return fmt.Errorf("insert skill: %w", err)
		}
	}
	for _, c := range p.Certifications {
		_, err := tx.Exec(ctx, `
			INSERT INTO certifications (candidate_id, certificate_name, issuer)
			VALUES ($1, $2, $3)`,
			candidateID, c.CertificateName, c.Issuer)
		if err != nil {
			return fmt.Errorf("insert certification: %w", err)
		}
	}
	for _, pr := range p.Projects {
		_, err := tx.Exec(ctx, `
			INSERT INTO projects (candidate_id, project_title, description, project_link)
			VALUES ($1, $2, $3, $4)`,
			candidateID, pr.ProjectTitle, pr.Description, pr.ProjectLink)
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
	}
	for _, l := range p.Languages {
		_, err := tx.Exec(ctx, `
			INSERT INTO language_skills (candidate_id, language_name, proficiency)
			VALUES ($1, $2, $3)`,
			candidateID, l.LanguageName, l.Proficiency)
		if err != nil {
			return fmt.Errorf("insert language skill: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit profile save: %w", err)
	}
	return nil
}

// GetByTelegramUserID loads a full profile, or apperr.KindNotFound when the
// user has never completed the flow.
func (r *Repository) GetByTelegramUserID(ctx context.Context, userID int64) (*Profile, error) {
	p := &Profile{}
	err := r.db.QueryRow(ctx, `
		SELECT id, telegram_user_id, first_name, middle_name, last_name,
		       phone_number, email_address, linkedin_profile, city, country,
		       photo_ref, career_objective, other_activities, created_at, updated_at
		FROM candidates WHERE telegram_user_id = $1`, userID,
	).Scan(
		&p.ID, &p.TelegramUserID, &p.FirstName, &p.MiddleName, &p.LastName,
		&p.PhoneNumber, &p.EmailAddress, &p.LinkedInProfile, &p.City, &p.Country,
		&p.PhotoRef, &p.CareerObjective, &p.OtherActivities, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query candidate: %w", err)
	}

	if err := r.loadSections(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) loadSections(ctx context.Context, p *Profile) error {
	rows, err := r.db.Query(ctx, `
		SELECT job_title, company_name, location, description
		FROM work_experiences WHERE candidate_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return fmt.Errorf("query work experiences: %w", err)
	}
	p.WorkExperiences, err = pgx.CollectRows(rows, pgx.RowToStructByPos[WorkExperience])
	if err != nil {
		return fmt.Errorf("collect work experiences: %w", err)
	}

	rows, err = r.db.Query(ctx, `
		SELECT degree_name, institution_name, gpa, description, achievements
		FROM education_entries WHERE candidate_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return fmt.Errorf("query education entries: %w", err)
	}
	p.Education, err = pgx.CollectRows(rows, pgx.RowToStructByPos[EducationEntry])
	if err != nil {
		return fmt.Errorf("collect education entries: %w", err)
	}

	rows, err = r.db.Query(ctx, `
		SELECT skill_name, proficiency
		FROM skills WHERE candidate_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return fmt.Errorf("query skills: %w", err)
	}
	p.Skills, err = pgx.CollectRows(rows, pgx.RowToStructByPos[Skill])
	if err != nil {
		return fmt.Errorf("collect skills: %w", err)
	}

	rows, err = r.db.Query(ctx, `
		SELECT certificate_name, issuer
		FROM certifications WHERE candidate_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return fmt.Errorf("query certifications: %w", err)
	}
	p.Certifications, err = pgx.CollectRows(rows, pgx.RowToStructByPos[Certification])
	if err != nil {
		return fmt.Errorf("collect certifications: %w", err)
	}

	rows, err = r.db.Query(ctx, `
		SELECT project_title, description, project_link
		FROM projects WHERE candidate_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return fmt.Errorf("query projects: %w", err)
	}
	p.Projects, err = pgx.CollectRows(rows, pgx.RowToStructByPos[Project])
	if err != nil {
		return fmt.Errorf("collect projects: %w", err)
	}

	rows, err = r.db.Query(ctx, `
		SELECT language_name, proficiency
		FROM language_skills WHERE candidate_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return fmt.Errorf("query language skills: %w", err)
	}
	p.Languages, err = pgx.CollectRows(rows, pgx.RowToStructByPos[LanguageSkill])
	if err != nil {
		return fmt.Errorf("collect language skills: %w", err)
	}
	return nil
}

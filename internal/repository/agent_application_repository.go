package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/primewheels/agent-service/internal/domain"
)

const applicationColumns = `id, name, contact, email, address, job_title, experience, company,
               inspection_experience, fraud_experience, work_hours, expected_salary, status,
               reviewed_by, reviewed_at, rejection_reason, created_at, updated_at`

// ApplicationFilter narrows list and count queries. A nil Status matches
// every application.
type ApplicationFilter struct {
	Status *domain.ApplicationStatus
	Limit  int
	Offset int
}

// AgentApplicationRepository encapsulates agent application persistence.
type AgentApplicationRepository interface {
	Create(ctx context.Context, app *domain.AgentApplication) error
	GetByID(ctx context.Context, id string) (*domain.AgentApplication, error)
	GetByEmail(ctx context.Context, email string) (*domain.AgentApplication, error)
	List(ctx context.Context, filter ApplicationFilter) ([]domain.AgentApplication, error)
	Count(ctx context.Context, filter ApplicationFilter) (int64, error)
	CountByStatus(ctx context.Context) (map[domain.ApplicationStatus]int64, error)
	Transition(ctx context.Context, id string, to domain.ApplicationStatus, reviewerID string, reason *string) (*domain.AgentApplication, error)
}

type agentApplicationRepository struct {
	db DBTX
}

// NewAgentApplicationRepository returns a Postgres-backed implementation.
func NewAgentApplicationRepository(db DBTX) AgentApplicationRepository {
	return &agentApplicationRepository{db: db}
}

func (r *agentApplicationRepository) Create(ctx context.Context, app *domain.AgentApplication) error {
	const query = `
        INSERT INTO agent_applications (name, contact, email, address, job_title, experience, company,
            inspection_experience, fraud_experience, work_hours, expected_salary, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		app.Name,
		app.Contact,
		app.Email,
		app.Address,
		app.JobTitle,
		app.Experience,
		app.Company,
		app.InspectionExperience,
		app.FraudExperience,
		app.WorkHours,
		app.ExpectedSalary,
		app.Status,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *agentApplicationRepository) GetByID(ctx context.Context, id string) (*domain.AgentApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM agent_applications WHERE id=$1`
	return scanApplication(r.db.QueryRow(ctx, query, id))
}

func (r *agentApplicationRepository) GetByEmail(ctx context.Context, email string) (*domain.AgentApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM agent_applications WHERE email=$1`
	return scanApplication(r.db.QueryRow(ctx, query, email))
}

func (r *agentApplicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]domain.AgentApplication, error) {
	where, args := filterClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM agent_applications%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		applicationColumns, where, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.AgentApplication{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *app)
	}
	return result, rows.Err()
}

func (r *agentApplicationRepository) Count(ctx context.Context, filter ApplicationFilter) (int64, error) {
	where, args := filterClause(filter)
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM agent_applications`+where, args...).Scan(&total)
	return total, err
}

func (r *agentApplicationRepository) CountByStatus(ctx context.Context) (map[domain.ApplicationStatus]int64, error) {
	const query = `SELECT status, COUNT(*) FROM agent_applications GROUP BY status`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.ApplicationStatus]int64)
	for rows.Next() {
		var (
			status domain.ApplicationStatus
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// Transition moves a pending application to a terminal status in one
// conditional update. It returns pgx.ErrNoRows when the id is unknown or
// the application is no longer pending.
func (r *agentApplicationRepository) Transition(ctx context.Context, id string, to domain.ApplicationStatus, reviewerID string, reason *string) (*domain.AgentApplication, error) {
	query := `
        UPDATE agent_applications
        SET status=$2, reviewed_by=$3, reviewed_at=NOW(), rejection_reason=$4, updated_at=NOW()
        WHERE id=$1 AND status=$5
        RETURNING ` + applicationColumns
	return scanApplication(r.db.QueryRow(ctx, query, id, to, reviewerID, reason, domain.ApplicationStatusPending))
}

func filterClause(filter ApplicationFilter) (string, []any) {
	if filter.Status == nil {
		return "", nil
	}
	return " WHERE status=$1", []any{*filter.Status}
}

func scanApplication(row pgx.Row) (*domain.AgentApplication, error) {
	var app domain.AgentApplication
	if err := row.Scan(
		&app.ID,
		&app.Name,
		&app.Contact,
		&app.Email,
		&app.Address,
		&app.JobTitle,
		&app.Experience,
		&app.Company,
		&app.InspectionExperience,
		&app.FraudExperience,
		&app.WorkHours,
		&app.ExpectedSalary,
		&app.Status,
		&app.ReviewedBy,
		&app.ReviewedAt,
		&app.RejectionReason,
		&app.CreatedAt,
		&app.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &app, nil
}

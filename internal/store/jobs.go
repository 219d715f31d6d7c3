package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"resumelens/internal/errors"
	"resumelens/internal/types"
)

// Defaults applied to placeholder jobs created before AI extraction runs
const (
	emptyJobCompany  = "New Company"
	emptyJobPosition = "New Position"
)

const jobColumns = `id, user_id, company, position_title, job_url, location,
	salary_range, work_location, employment_type, description, keywords,
	is_active, created_at`

func scanJob(row pgx.Row) (*types.Job, error) {
	var j types.Job
	var keywordsJSON []byte

	err := row.Scan(&j.ID, &j.UserID, &j.Company, &j.PositionTitle, &j.JobURL,
		&j.Location, &j.SalaryRange, &j.WorkLocation, &j.EmploymentType,
		&j.Description, &keywordsJSON, &j.IsActive, &j.CreatedAt)
	if err != nil {
		return nil, err
	}

	if keywordsJSON != nil {
		_ = json.Unmarshal(keywordsJSON, &j.Keywords)
	}
	return &j, nil
}

// CreateJob persists a structured job listing for a user
func (db *DB) CreateJob(ctx context.Context, userID uuid.UUID, job *types.SimplifiedJob) (*types.Job, error) {
	keywordsJSON, err := json.Marshal(job.Keywords)
	if err != nil {
		return nil, errors.NewPersistenceFailure("failed to encode job keywords", err)
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO jobs (user_id, company, position_title, job_url, location,
		                   salary_range, work_location, employment_type, description, keywords)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+jobColumns,
		userID, job.Company, job.PositionTitle, job.JobURL, job.Location,
		job.SalaryRange, job.WorkLocation, job.EmploymentType, job.Description, keywordsJSON)

	created, err := scanJob(row)
	if err != nil {
		return nil, errors.NewPersistenceFailure("failed to create job", err)
	}
	return created, nil
}

// CreateEmptyJob persists a placeholder job the user can fill in later
func (db *DB) CreateEmptyJob(ctx context.Context, userID uuid.UUID) (*types.Job, error) {
	return db.CreateJob(ctx, userID, &types.SimplifiedJob{
		Company:        emptyJobCompany,
		PositionTitle:  emptyJobPosition,
		WorkLocation:   types.WorkLocationInPerson,
		EmploymentType: types.EmploymentFullTime,
		Keywords:       []string{},
	})
}

// GetJob retrieves one of a user's jobs. Returns nil when no such job exists.
func (db *DB) GetJob(ctx context.Context, userID, jobID uuid.UUID) (*types.Job, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND user_id = $2`,
		jobID, userID)

	job, err := scanJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, errors.NewPersistenceFailure("failed to get job", err)
	}
	return job, nil
}

// DeleteJob removes a job row permanently
func (db *DB) DeleteJob(ctx context.Context, userID, jobID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM jobs WHERE id = $1 AND user_id = $2`,
		jobID, userID)
	if err != nil {
		return errors.NewPersistenceFailure("failed to delete job", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFound(fmt.Sprintf("job %s not found", jobID))
	}
	return nil
}

// DeactivateJob soft-deletes a job by clearing its active flag. The row stays
// behind for resumes that still reference it.
func (db *DB) DeactivateJob(ctx context.Context, userID, jobID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE jobs SET is_active = FALSE WHERE id = $1 AND user_id = $2`,
		jobID, userID)
	if err != nil {
		return errors.NewPersistenceFailure("failed to deactivate job", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFound(fmt.Sprintf("job %s not found", jobID))
	}
	return nil
}

// ListJobs returns one page of a user's active jobs, newest first, with
// optional work location, employment type, and keyword filters.
func (db *DB) ListJobs(ctx context.Context, userID uuid.UUID, params types.JobListingParams) (*types.JobListingPage, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 10
	}

	where := []string{"user_id = $1", "is_active = TRUE"}
	args := []any{userID}

	if f := params.Filters; f != nil {
		if f.WorkLocation != "" {
			args = append(args, f.WorkLocation)
			where = append(where, fmt.Sprintf("work_location = $%d", len(args)))
		}
		if f.EmploymentType != "" {
			args = append(args, f.EmploymentType)
			where = append(where, fmt.Sprintf("employment_type = $%d", len(args)))
		}
		if len(f.Keywords) > 0 {
			keywordsJSON, err := json.Marshal(f.Keywords)
			if err != nil {
				return nil, errors.NewPersistenceFailure("failed to encode keyword filter", err)
			}
			args = append(args, keywordsJSON)
			// Match jobs containing any of the requested keywords
			where = append(where, fmt.Sprintf(
				"EXISTS (SELECT 1 FROM jsonb_array_elements_text(keywords) kw WHERE kw.value IN (SELECT value FROM jsonb_array_elements_text($%d::jsonb)))",
				len(args)))
		}
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM jobs WHERE `+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, errors.NewPersistenceFailure("failed to count jobs", err)
	}

	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE `+whereClause+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, errors.NewPersistenceFailure("failed to list jobs", err)
	}
	defer rows.Close()

	jobs := []types.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, errors.NewPersistenceFailure("failed to scan job row", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceFailure("failed to read job rows", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	return &types.JobListingPage{
		Jobs:        jobs,
		TotalCount:  total,
		CurrentPage: page,
		TotalPages:  totalPages,
	}, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"judgegate/internal/common/db"
	"judgegate/internal/submit/model"
	appErr "judgegate/pkg/errors"
)

// Querier is the part of db.Store the repository needs.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) ([]db.Row, error)
}

// SubmissionRepository defines submission lookups.
type SubmissionRepository interface {
	// FindUngraded returns the submission only while it has no grade.
	FindUngraded(ctx context.Context, subID, probID string) (*model.SubmissionRecord, error)
	// FindByID returns the submission regardless of grade, with is_standard.
	FindByID(ctx context.Context, subID string) (*model.SubmissionRecord, error)
}

// MySQLSubmissionRepository implements SubmissionRepository with MySQL.
type MySQLSubmissionRepository struct {
	db Querier
}

// NewSubmissionRepository creates a submission repository.
func NewSubmissionRepository(database Querier) *MySQLSubmissionRepository {
	return &MySQLSubmissionRepository{db: database}
}

const findUngradedSQL = `SELECT sub_id, prob_id, config, detail, updated_at, ptype_id
		FROM submission NATURAL JOIN library_problem
		WHERE sub_id = ? AND prob_id = ? AND grade IS NULL`

const findByIDSQL = `SELECT sub_id, submission.prob_id AS prob_id, config, detail, updated_at, ptype_id, is_standard
		FROM submission, library_problem
		WHERE sub_id = ? AND submission.prob_id = library_problem.prob_id`

// FindUngraded implements SubmissionRepository.
func (r *MySQLSubmissionRepository) FindUngraded(ctx context.Context, subID, probID string) (*model.SubmissionRecord, error) {
	if subID == "" || probID == "" {
		return nil, errors.New("subID and probID are required")
	}
	rows, err := r.db.Query(ctx, findUngradedSQL, subID, probID)
	if err != nil {
		return nil, err
	}
	return firstRecord(rows)
}

// FindByID implements SubmissionRepository.
func (r *MySQLSubmissionRepository) FindByID(ctx context.Context, subID string) (*model.SubmissionRecord, error) {
	if subID == "" {
		return nil, errors.New("subID is required")
	}
	rows, err := r.db.Query(ctx, findByIDSQL, subID)
	if err != nil {
		return nil, err
	}
	return firstRecord(rows)
}

func firstRecord(rows []db.Row) (*model.SubmissionRecord, error) {
	if len(rows) == 0 {
		return nil, appErr.New(appErr.SubmissionNotFound)
	}
	row := rows[0]
	return &model.SubmissionRecord{
		SubID:      text(row["sub_id"]),
		ProbID:     text(row["prob_id"]),
		Config:     nullableText(row["config"]),
		Detail:     nullableText(row["detail"]),
		UpdatedAt:  text(row["updated_at"]),
		PTypeID:    text(row["ptype_id"]),
		IsStandard: text(row["is_standard"]),
	}, nil
}

func text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case time.Time:
		return val.Format(model.UpdatedAtLayout)
	default:
		return fmt.Sprint(val)
	}
}

func nullableText(v any) *string {
	if v == nil {
		return nil
	}
	s := text(v)
	return &s
}

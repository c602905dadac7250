package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iqbalbaharum/hyper-sdk/internal/types"
	"github.com/iqbalbaharum/hyper-sdk/internal/utils"
)

// submissionColumns are the columns a search may filter on.
var submissionColumns = map[string]bool{
	"hash":      true,
	"target":    true,
	"via":       true,
	"ops":       true,
	"timestamp": true,
}

type SubmissionStorage struct {
	client *sql.DB
}

func NewSubmissionStorage(db *sql.DB) *SubmissionStorage {
	return &SubmissionStorage{client: db}
}

// Record implements the sdk journal.
func (s *SubmissionStorage) Record(ctx context.Context, submission *types.Submission) error {
	query := `
			INSERT INTO submissions (hash, target, via, payload, ops, timestamp)
			VALUES (?, ?, ?, ?, ?, ?)
		`

	_, err := s.client.ExecContext(
		ctx,
		query,
		submission.Hash,
		submission.Target,
		submission.Via,
		submission.Payload,
		submission.Ops,
		submission.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	return nil
}

func (s *SubmissionStorage) Search(ctx context.Context, filter types.MySQLFilter) ([]types.Submission, error) {
	for _, q := range filter.Query {
		if !submissionColumns[q.Column] {
			return nil, fmt.Errorf("%w: column %q", ErrInvalidFilter, q.Column)
		}
	}

	query, values, err := utils.BuildSearchQuery(TABLE_NAME_SUBMISSION, "hash, target, via, payload, ops, timestamp", filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	rows, err := s.client.QueryContext(ctx, query, values...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrExecuteQuery, err)
	}
	defer rows.Close()

	submissions := []types.Submission{}
	for rows.Next() {
		var sub types.Submission
		if err := rows.Scan(&sub.Hash, &sub.Target, &sub.Via, &sub.Payload, &sub.Ops, &sub.Timestamp); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrScanData, err)
		}
		submissions = append(submissions, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrScanData, err)
	}

	return submissions, nil
}

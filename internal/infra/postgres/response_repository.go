package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"docrender/internal/domain"
)

const queryTimeout = 5 * time.Second

const responseQuery = `SELECT r.id, t.name, w.name, COALESCE(r.respondent, ''), r.submitted_at
FROM responses r
JOIN templates t ON t.id = r.template_id
JOIN workspaces w ON w.id = t.workspace_id
WHERE r.id = $1`

const answersQuery = `SELECT a.label, a.field_type, COALESCE(a.value, '')
FROM response_answers a
WHERE a.response_id = $1
ORDER BY a.position`

// ResponseRepository reads submitted form responses.
type ResponseRepository struct {
	DB  *DB
	DSN string
}

// FindResponse loads a response and its answers in display order.
func (r *ResponseRepository) FindResponse(ctx context.Context, id string) (domain.FormResponse, error) {
	db, err := r.DB.Get(r.DSN)
	if err != nil {
		return domain.FormResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var resp domain.FormResponse
	err = db.QueryRowContext(ctx, responseQuery, id).
		Scan(&resp.ID, &resp.TemplateName, &resp.WorkspaceName, &resp.Respondent, &resp.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.FormResponse{}, fmt.Errorf("%w: %s", domain.ErrResponseNotFound, id)
	}
	if err != nil {
		return domain.FormResponse{}, fmt.Errorf("query response %s: %w", id, err)
	}

	rows, err := db.QueryContext(ctx, answersQuery, id)
	if err != nil {
		return domain.FormResponse{}, fmt.Errorf("query answers %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.Answer
		var fieldType string
		if err := rows.Scan(&a.Label, &fieldType, &a.Value); err != nil {
			return domain.FormResponse{}, err
		}
		a.Type = domain.AnswerType(fieldType)
		if a.Type == domain.AnswerList {
			a.Values = splitList(a.Value)
		}
		resp.Answers = append(resp.Answers, a)
	}
	if err := rows.Err(); err != nil {
		return domain.FormResponse{}, err
	}
	return resp, nil
}

// List answers are stored newline separated.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, "\n") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

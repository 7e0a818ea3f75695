package queue

import (
	"database/sql"
	"errors"
	"time"
)

// timeLayout is fixed width so stored timestamps order correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const itemColumns = "id, status, company_name, contact_name, phone, email, website, metadata_json, notes, failed_stage, created_at, updated_at, enriched_at, outreached_at, email_sent_at, call_started_at, contacted_at"

const taskColumns = "id, task_type, payload, status, worker_id, result, error_message, created_at, updated_at"

type rowScanner interface{ Scan(dest ...any) error }

func scanItem(scanner rowScanner) (*Item, error) {
	var (
		id            int64
		statusStr     string
		companyName   sql.NullString
		contactName   sql.NullString
		phone         sql.NullString
		email         sql.NullString
		website       sql.NullString
		metadata      sql.NullString
		notes         sql.NullString
		failedStage   sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
		enrichedRaw   sql.NullString
		outreachedRaw sql.NullString
		emailSentRaw  sql.NullString
		callRaw       sql.NullString
		contactedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&companyName,
		&contactName,
		&phone,
		&email,
		&website,
		&metadata,
		&notes,
		&failedStage,
		&createdRaw,
		&updatedRaw,
		&enrichedRaw,
		&outreachedRaw,
		&emailSentRaw,
		&callRaw,
		&contactedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:            id,
		Status:        Status(statusStr),
		CompanyName:   companyName.String,
		ContactName:   contactName.String,
		Phone:         phone.String,
		Email:         email.String,
		Website:       website.String,
		MetadataJSON:  metadata.String,
		Notes:         notes.String,
		FailedStage:   Status(failedStage.String),
		EnrichedAt:    optionalTime(enrichedRaw),
		OutreachedAt:  optionalTime(outreachedRaw),
		EmailSentAt:   optionalTime(emailSentRaw),
		CallStartedAt: optionalTime(callRaw),
		ContactedAt:   optionalTime(contactedRaw),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func scanTask(scanner rowScanner) (*Task, error) {
	var (
		task       Task
		payload    sql.NullString
		statusStr  string
		workerID   sql.NullString
		result     sql.NullString
		errMessage sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&task.ID,
		&task.TaskType,
		&payload,
		&statusStr,
		&workerID,
		&result,
		&errMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	task.Status = TaskStatus(statusStr)
	task.WorkerID = workerID.String
	task.ErrorMessage = errMessage.String
	if payload.Valid && payload.String != "" {
		task.Payload = []byte(payload.String)
	}
	if result.Valid && result.String != "" {
		task.Result = []byte(result.String)
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		task.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		task.UpdatedAt = updated
	}
	return &task, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func optionalTime(raw sql.NullString) *time.Time {
	if !raw.Valid {
		return nil
	}
	parsed, err := parseTimeString(raw.String)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = string(status)
	}
	return args
}

func idArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

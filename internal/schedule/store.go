package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
)

type Appointment struct {
	ID          string
	Title       string
	Description string
	StartsAt    time.Time
	Duration    int
	Status      string
}

func (a Appointment) EndsAt() time.Time {
	return a.StartsAt.Add(time.Duration(a.Duration) * time.Minute)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ListByDate returns all appointments on a calendar day, earliest first.
func (s *Store) ListByDate(ctx context.Context, date time.Time) ([]Appointment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, COALESCE(description, ''), starts_at, duration_minutes, status
		FROM orgdesk.appointments
		WHERE starts_at::date = $1::date
		ORDER BY starts_at
	`, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments by date: %w", err)
	}
	defer rows.Close()

	var appointments []Appointment
	for rows.Next() {
		var appt Appointment
		if err := rows.Scan(&appt.ID, &appt.Title, &appt.Description, &appt.StartsAt, &appt.Duration, &appt.Status); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return appointments, nil
}

// GetByTitle looks up an appointment by case-insensitive substring match.
// Returns nil when nothing matches; ties resolve to the most recently
// created row.
func (s *Store) GetByTitle(ctx context.Context, title string) (*Appointment, error) {
	var appt Appointment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, COALESCE(description, ''), starts_at, duration_minutes, status
		FROM orgdesk.appointments
		WHERE LOWER(title) LIKE '%' || LOWER($1) || '%'
		ORDER BY created_at DESC
		LIMIT 1
	`, title).Scan(&appt.ID, &appt.Title, &appt.Description, &appt.StartsAt, &appt.Duration, &appt.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment by title: %w", err)
	}
	return &appt, nil
}

// FindConflict returns the earliest scheduled appointment overlapping the
// half-open interval [start, end). Touching boundaries do not conflict.
// Returns nil when the slot is free.
func (s *Store) FindConflict(ctx context.Context, start, end time.Time) (*Appointment, error) {
	var appt Appointment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, COALESCE(description, ''), starts_at, duration_minutes, status
		FROM orgdesk.appointments
		WHERE status = $1
		  AND starts_at < $3
		  AND starts_at + (duration_minutes * interval '1 minute') > $2
		ORDER BY starts_at
		LIMIT 1
	`, StatusScheduled, start, end).Scan(&appt.ID, &appt.Title, &appt.Description, &appt.StartsAt, &appt.Duration, &appt.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find conflicting appointment: %w", err)
	}
	return &appt, nil
}

// Create persists a new scheduled appointment and returns it with the
// generated id.
func (s *Store) Create(ctx context.Context, title, description string, startsAt time.Time, duration int) (*Appointment, error) {
	appt := Appointment{
		Title:       title,
		Description: description,
		StartsAt:    startsAt,
		Duration:    duration,
		Status:      StatusScheduled,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO orgdesk.appointments (title, description, starts_at, duration_minutes, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, title, description, startsAt, duration, StatusScheduled).Scan(&appt.ID)
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return &appt, nil
}

// CancelByTitle cancels the newest appointment whose title matches the
// case-insensitive substring. Returns nil when nothing matches.
func (s *Store) CancelByTitle(ctx context.Context, title string) (*Appointment, error) {
	var appt Appointment
	err := s.db.QueryRowContext(ctx, `
		UPDATE orgdesk.appointments
		SET status = $2
		WHERE id = (
			SELECT id FROM orgdesk.appointments
			WHERE LOWER(title) LIKE '%' || LOWER($1) || '%'
			ORDER BY created_at DESC
			LIMIT 1
		)
		RETURNING id, title, COALESCE(description, ''), starts_at, duration_minutes, status
	`, title, StatusCancelled).Scan(&appt.ID, &appt.Title, &appt.Description, &appt.StartsAt, &appt.Duration, &appt.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}
	return &appt, nil
}

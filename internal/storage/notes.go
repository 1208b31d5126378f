package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/butcapp/butcap/internal/common"
	"github.com/butcapp/butcap/internal/model"
	"github.com/butcapp/butcap/internal/service"
)

// ListNotes returns notes matching the filter, newest first. The today
// argument anchors the today/week/month windows.
func (s *SQLiteStorage) ListNotes(ctx context.Context, filter service.NoteFilter, today time.Time) ([]model.Note, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT id, content, note_date, tags, created_at FROM notes`
	var args []any

	day := today.Format("2006-01-02")
	switch filter {
	case service.NotesToday:
		query += ` WHERE date(note_date) = ?`
		args = append(args, day)
	case service.NotesWeek:
		query += ` WHERE date(note_date) > date(?, '-7 days') AND date(note_date) <= ?`
		args = append(args, day, day)
	case service.NotesMonth:
		query += ` WHERE date(note_date) > date(?, '-1 month') AND date(note_date) <= ?`
		args = append(args, day, day)
	case service.NotesAll, "":
	default:
		return nil, fmt.Errorf("unknown note filter %q", filter)
	}
	query += ` ORDER BY note_date DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		var note model.Note
		var tags sql.NullString
		var noteDate, createdAt time.Time
		if err := rows.Scan(&note.ID, &note.Content, &noteDate, &tags, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		note.Date = noteDate.UTC()
		note.CreatedAt = createdAt.UTC()
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &note.Tags); err != nil {
				return nil, fmt.Errorf("failed to decode note tags: %w", err)
			}
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}

	return notes, nil
}

// AddNote inserts a note.
func (s *SQLiteStorage) AddNote(ctx context.Context, note *model.Note) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if note == nil {
		return fmt.Errorf("%w: note", ErrNilParameter)
	}
	if err := validateString(note.ID, "note.ID"); err != nil {
		return err
	}
	if err := validateString(note.Content, "note.Content"); err != nil {
		return err
	}

	var tags any
	if len(note.Tags) > 0 {
		encoded, err := json.Marshal(note.Tags)
		if err != nil {
			return fmt.Errorf("failed to encode note tags: %w", err)
		}
		tags = string(encoded)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, content, note_date, tags) VALUES (?, ?, ?, ?)`,
		note.ID, note.Content, note.Date.UTC(), tags)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}
	return nil
}

// DeleteNote removes a note permanently.
func (s *SQLiteStorage) DeleteNote(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("note %s: %w", id, common.ErrNotFound)
	}
	return nil
}

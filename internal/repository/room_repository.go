package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-scheduler/internal/models"
)

// RoomRepository reads exam rooms.
type RoomRepository struct {
	db *sqlx.DB
	sb squirrel.StatementBuilderType
}

// NewRoomRepository constructs the repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db, sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

// List returns rooms ascending by capacity, limited to orgUnit when it is set.
func (r *RoomRepository) List(ctx context.Context, orgUnit string) ([]models.Room, error) {
	q := r.sb.Select("id", "code", "name", "org_unit", "capacity", "seat_columns", "seat_rows", "group_size").
		From("rooms").
		OrderBy("capacity ASC", "code ASC")
	if orgUnit != "" {
		q = q.Where(squirrel.Eq{"org_unit": orgUnit})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list rooms: %w", err)
	}

	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

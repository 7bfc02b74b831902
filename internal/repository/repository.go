package repository

import (
	"database/sql"

	"github.com/bishwashp/shiftplanner/backend/internal/config"
	"github.com/jackc/pgx/v5/pgtype"
)

type Repository struct {
	cfg     *config.Config
	dbpool  *sql.DB
	typeMap *pgtype.Map
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:     cfg,
		dbpool:  dbpool,
		typeMap: pgtype.NewMap(),
	}
}

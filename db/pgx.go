package db

import (
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PgxType is the PostgreSQL vendor profile backed by the pgx stdlib driver.
// The metadata surface is identical to PostgresType; only the driver differs.
type PgxType struct {
	PostgresType
}

// NewPgxType creates the pgx-backed PostgreSQL profile
func NewPgxType() DbmsType {
	return &PgxType{}
}

func (p *PgxType) Name() string       { return "pgx" }
func (p *PgxType) DriverName() string { return "pgx" }

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AhmedAllulu/articles-backend-sub000/internal/catalog"
)

var ErrUnknownCombination = errors.New("combination not in catalog")

// Router resolves a (category, country) combination to a query scope. Every
// statement executed through a scope carries the combination pinned as its
// first two parameters, so a query written for one partition can never touch
// another partition's rows.
type Router struct {
	pool *pgxpool.Pool
	cat  *catalog.Catalog
}

func NewRouter(pool *pgxpool.Pool, cat *catalog.Catalog) *Router {
	return &Router{pool: pool, cat: cat}
}

// Scope validates the combination against the catalog and returns an executor
// bound to it.
func (r *Router) Scope(comb catalog.Combination) (*Scope, error) {
	if !r.cat.Valid(comb) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCombination, comb.Key())
	}
	return &Scope{pool: r.pool, comb: comb}, nil
}

// Scope executes queries bound to a single combination. SQL passed to a scope
// must reference category as $1 and country_code as $2; caller args start
// at $3.
type Scope struct {
	pool *pgxpool.Pool
	comb catalog.Combination
}

func (s *Scope) args(extra []any) []any {
	return append([]any{s.comb.Category, s.comb.CountryCode}, extra...)
}

func (s *Scope) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return s.pool.Query(ctx, sql, s.args(args)...)
}

func (s *Scope) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return s.pool.QueryRow(ctx, sql, s.args(args)...)
}

func (s *Scope) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return s.pool.Exec(ctx, sql, s.args(args)...)
}

package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"winery/internal/economy"
	"winery/internal/valuation"
)

// Store persists the session state. Writes are upserts keyed by id, so a
// later write always replaces an earlier one.
type Store interface {
	LoadEconomy(ctx context.Context) (EconomyRecord, bool, error)
	SaveEconomy(ctx context.Context, rec EconomyRecord) error
	LoadCompanies(ctx context.Context) ([]*Company, error)
	SaveCompany(ctx context.Context, c *Company) error
	SaveValuation(ctx context.Context, rec ValuationRecord) error
}

type EconomyRecord struct {
	Date  economy.Date  `json:"date"`
	Phase economy.Phase `json:"phase"`
}

type ValuationRecord struct {
	CompanyID    uuid.UUID             `json:"company_id"`
	Week         int                   `json:"week"`
	Phase        economy.Phase         `json:"phase"`
	Price        float64               `json:"price"`
	Book         float64               `json:"book"`
	CreditRating float64               `json:"credit_rating"`
	Floored      bool                  `json:"floored"`
	Adjustment   *valuation.Adjustment `json:"adjustment,omitempty"`
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) LoadEconomy(ctx context.Context) (EconomyRecord, bool, error) {
	var rec EconomyRecord
	var season string
	err := s.db.QueryRow(ctx, `
		SELECT week, season, year, phase
		FROM winery.economy_state
		WHERE id = 1
	`).Scan(&rec.Date.Week, &season, &rec.Date.Year, &rec.Phase)
	if errors.Is(err, pgx.ErrNoRows) {
		return EconomyRecord{}, false, nil
	}
	if err != nil {
		return EconomyRecord{}, false, err
	}
	rec.Date.Season = economy.Season(season)
	if !rec.Date.Valid() || !rec.Phase.Valid() {
		return EconomyRecord{}, false, fmt.Errorf("stored economy state %s/%s is invalid", rec.Date, rec.Phase)
	}
	return rec, true, nil
}

func (s *PGStore) SaveEconomy(ctx context.Context, rec EconomyRecord) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO winery.economy_state (id, week, season, year, phase, updated_at)
		VALUES (1, $1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE
		SET week = $1, season = $2, year = $3, phase = $4, updated_at = now()
	`, rec.Date.Week, string(rec.Date.Season), rec.Date.Year, string(rec.Phase))
	return err
}

func (s *PGStore) LoadCompanies(ctx context.Context) ([]*Company, error) {
	rows, err := s.db.Query(ctx, `
		SELECT state
		FROM winery.companies
		ORDER BY created_at ASC, company_id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Company
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		c := &Company{}
		if err := json.Unmarshal(raw, c); err != nil {
			return nil, fmt.Errorf("decode company state: %w", err)
		}
		if c.Trend == nil {
			c.Trend = valuation.GrowthTrend{}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PGStore) SaveCompany(ctx context.Context, c *Company) error {
	state, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO winery.companies (
			company_id, name, cash_micros, price_micros, book_value_micros,
			shares_units, credit_rating, weeks_negative, state, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (company_id) DO UPDATE
		SET name = $2,
			cash_micros = $3,
			price_micros = $4,
			book_value_micros = $5,
			shares_units = $6,
			credit_rating = $7,
			weeks_negative = $8,
			state = $9,
			updated_at = now()
	`, c.ID, c.Name, EurosToMicros(c.Cash), EurosToMicros(c.Price.Price), EurosToMicros(c.Price.BookValuePerShare),
		SharesToUnits(c.Shares), c.Rating.Final, c.WeeksNegative, state)
	return err
}

func (s *PGStore) SaveValuation(ctx context.Context, rec ValuationRecord) error {
	var detail []byte
	if rec.Adjustment != nil {
		raw, err := json.Marshal(rec.Adjustment)
		if err != nil {
			return err
		}
		detail = raw
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO winery.valuations (
			company_id, week, phase, price_micros, book_value_micros,
			credit_rating, floored, adjustment, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (company_id, week) DO UPDATE
		SET phase = $3,
			price_micros = $4,
			book_value_micros = $5,
			credit_rating = $6,
			floored = $7,
			adjustment = $8
	`, rec.CompanyID, rec.Week, string(rec.Phase), EurosToMicros(rec.Price), EurosToMicros(rec.Book),
		rec.CreditRating, rec.Floored, detail)
	return err
}

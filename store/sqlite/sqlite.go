/*
Package sqlite provides the SQLite-backed implementation of the record store.

PURPOSE:
  Implements engine.Store (cards + rules + buckets + partners + expenses and
  the usage-accumulator queries) using SQLite. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  cards:               Issuer configurations
  cap_buckets:         Shared point ceilings (owned by a card)
  reward_rules:        Reward policy lines (owned by a card, may link a bucket)
  redemption_partners: Transfer programs (owned by a card)
  expenses:            Spend history with settled points and applied rule

CASCADE SEMANTICS:
  Deleting a card cascades to its rules, buckets, and partners via foreign
  keys. Expenses deliberately carry NO foreign key to cards: they survive
  card deletion as orphaned history. Deleting a bucket sets referencing
  rules' bucket to NULL - those rules become uncapped.

DECIMALS:
  Money and point values are stored as TEXT and summed in Go with
  decimal.Decimal, never as floating point in SQL.

WAL MODE:
  Opened with WAL (Write-Ahead Logging): multiple readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/swipe.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := engine.NewService(store, taxonomy.Defaults())

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/swipe-engine/engine"
)

// Store implements engine.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ engine.Store = (*Store)(nil)

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		bank TEXT NOT NULL,
		network TEXT NOT NULL DEFAULT 'Unknown',
		currency TEXT NOT NULL DEFAULT 'points',
		point_value TEXT NOT NULL DEFAULT '0',
		min_spend_per_point TEXT NOT NULL DEFAULT '1',
		billing_day INTEGER NOT NULL DEFAULT 1,
		tier_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cap_buckets (
		id TEXT PRIMARY KEY,
		card_id TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		max_points TEXT NOT NULL,
		period TEXT NOT NULL,
		scope TEXT NOT NULL DEFAULT 'category',
		reset_anchor INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_buckets_card ON cap_buckets(card_id);

	CREATE TABLE IF NOT EXISTS reward_rules (
		id TEXT PRIMARY KEY,
		card_id TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
		category TEXT NOT NULL,
		base_multiplier TEXT NOT NULL,
		bonus_multiplier TEXT NOT NULL,
		min_spend TEXT NOT NULL DEFAULT '0',
		conditions_json TEXT,
		bucket_id TEXT REFERENCES cap_buckets(id) ON DELETE SET NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rules_card ON reward_rules(card_id);
	CREATE INDEX IF NOT EXISTS idx_rules_bucket ON reward_rules(bucket_id)
		WHERE bucket_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS redemption_partners (
		id TEXT PRIMARY KEY,
		card_id TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		transfer_ratio TEXT NOT NULL,
		estimated_value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_partners_card ON redemption_partners(card_id);

	-- No foreign key on card_id: expenses outlive their card as history.
	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		card_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		merchant TEXT NOT NULL,
		category TEXT NOT NULL,
		platform TEXT NOT NULL DEFAULT 'Direct',
		is_online INTEGER,
		date TEXT NOT NULL,
		points_earned TEXT NOT NULL DEFAULT '0',
		applied_rule_id TEXT,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	-- Usage accumulation hot paths
	CREATE INDEX IF NOT EXISTS idx_expenses_card_date ON expenses(card_id, date);
	CREATE INDEX IF NOT EXISTS idx_expenses_rule_date ON expenses(applied_rule_id, date)
		WHERE applied_rule_id IS NOT NULL;
	`
	_, err := s.db.Exec(schema)
	return err
}

// timeLayout is fixed width so the TEXT date columns compare
// lexicographically in chronological order. RFC3339Nano trims trailing
// zeros and would break range queries at second boundaries.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func storageErr(op string, err error) error {
	return &engine.StorageError{Op: op, Err: err}
}

// insertErr maps primary-key violations to the duplicate-id sentinel so
// callers can distinguish a re-used id from an infrastructure failure.
func insertErr(op string, err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) &&
		(se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			se.ExtendedCode == sqlite3.ErrConstraintUnique) {
		return engine.ErrDuplicateID
	}
	return storageErr(op, err)
}

// =============================================================================
// CARD STORE
// =============================================================================

func (s *Store) GetCard(ctx context.Context, id engine.CardID) (*engine.Card, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, bank, network, currency, point_value,
		       min_spend_per_point, billing_day, tier_json
		FROM cards WHERE id = ?`, string(id))

	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.ErrCardNotFound
	}
	if err != nil {
		return nil, storageErr("get_card", err)
	}
	if err := s.loadOwned(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *Store) ListCards(ctx context.Context) ([]*engine.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, bank, network, currency, point_value,
		       min_spend_per_point, billing_day, tier_json
		FROM cards ORDER BY created_at, id`)
	if err != nil {
		return nil, storageErr("list_cards", err)
	}
	defer rows.Close()

	var cards []*engine.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, storageErr("list_cards", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list_cards", err)
	}

	for _, card := range cards {
		if err := s.loadOwned(ctx, card); err != nil {
			return nil, err
		}
	}
	return cards, nil
}

func (s *Store) CreateCard(ctx context.Context, card *engine.Card) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("create_card", err)
	}
	defer tx.Rollback()

	tierJSON, err := marshalMap(card.TierStatus)
	if err != nil {
		return storageErr("create_card", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cards (id, name, bank, network, currency, point_value,
		                   min_spend_per_point, billing_day, tier_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(card.ID), card.Name, card.Bank, defaultStr(card.Network, "Unknown"),
		string(defaultCurrency(card.Currency)), card.PointValue.String(),
		card.SlabDivisor().String(), card.BillingDay, tierJSON,
		time.Now().UTC().Format(timeLayout))
	if err != nil {
		return insertErr("create_card", err)
	}

	// Buckets before rules: rules reference buckets.
	for _, b := range card.Buckets {
		if err := insertBucket(ctx, tx, b); err != nil {
			return err
		}
	}
	for _, r := range card.Rules {
		if err := insertRule(ctx, tx, r); err != nil {
			return err
		}
	}
	for _, p := range card.Partners {
		if err := insertPartner(ctx, tx, p); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("create_card", err)
	}
	return nil
}

func (s *Store) DeleteCard(ctx context.Context, id engine.CardID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, string(id))
	if err != nil {
		return storageErr("delete_card", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrCardNotFound
	}
	return nil
}

func (s *Store) AddRule(ctx context.Context, rule *engine.RewardRule) error {
	if err := s.cardExists(ctx, rule.CardID); err != nil {
		return err
	}
	return insertRule(ctx, s.db, rule)
}

func (s *Store) AddBucket(ctx context.Context, bucket *engine.CapBucket) error {
	if err := s.cardExists(ctx, bucket.CardID); err != nil {
		return err
	}
	return insertBucket(ctx, s.db, bucket)
}

func (s *Store) AddPartner(ctx context.Context, partner *engine.RedemptionPartner) error {
	if err := s.cardExists(ctx, partner.CardID); err != nil {
		return err
	}
	return insertPartner(ctx, s.db, partner)
}

func (s *Store) DeleteBucket(ctx context.Context, id engine.BucketID) error {
	// ON DELETE SET NULL on reward_rules.bucket_id uncaps referencing rules.
	res, err := s.db.ExecContext(ctx, `DELETE FROM cap_buckets WHERE id = ?`, string(id))
	if err != nil {
		return storageErr("delete_bucket", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrBucketNotFound
	}
	return nil
}

func (s *Store) cardExists(ctx context.Context, id engine.CardID) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM cards WHERE id = ?`, string(id)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.ErrCardNotFound
	}
	if err != nil {
		return storageErr("card_exists", err)
	}
	return nil
}

// loadOwned attaches rules, buckets, and partners in insertion (rowid)
// order; rule order is the matcher's tie-break so it must be stable.
func (s *Store) loadOwned(ctx context.Context, card *engine.Card) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, max_points, period, scope, reset_anchor
		FROM cap_buckets WHERE card_id = ? ORDER BY rowid`, string(card.ID))
	if err != nil {
		return storageErr("load_buckets", err)
	}
	for rows.Next() {
		b := &engine.CapBucket{CardID: card.ID}
		var idStr, maxPoints, period, scope string
		if err := rows.Scan(&idStr, &b.Name, &maxPoints, &period, &scope, &b.ResetAnchor); err != nil {
			rows.Close()
			return storageErr("load_buckets", err)
		}
		b.ID = engine.BucketID(idStr)
		b.MaxPoints = mustDecimal(maxPoints)
		b.Period = engine.PeriodType(period)
		b.Scope = engine.BucketScope(scope)
		card.Buckets = append(card.Buckets, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return storageErr("load_buckets", err)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, category, base_multiplier, bonus_multiplier, min_spend,
		       conditions_json, bucket_id
		FROM reward_rules WHERE card_id = ? ORDER BY rowid`, string(card.ID))
	if err != nil {
		return storageErr("load_rules", err)
	}
	for rows.Next() {
		r := &engine.RewardRule{CardID: card.ID}
		var idStr, base, bonus, minSpend string
		var condJSON, bucketID sql.NullString
		if err := rows.Scan(&idStr, &r.Category, &base, &bonus, &minSpend, &condJSON, &bucketID); err != nil {
			rows.Close()
			return storageErr("load_rules", err)
		}
		r.ID = engine.RuleID(idStr)
		r.BaseMultiplier = mustDecimal(base)
		r.BonusMultiplier = mustDecimal(bonus)
		r.MinSpend = mustDecimal(minSpend)
		if condJSON.Valid && condJSON.String != "" {
			if err := json.Unmarshal([]byte(condJSON.String), &r.MatchConditions); err != nil {
				rows.Close()
				return storageErr("load_rules", err)
			}
		}
		if bucketID.Valid {
			r.BucketID = engine.BucketID(bucketID.String)
		}
		card.Rules = append(card.Rules, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return storageErr("load_rules", err)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, name, transfer_ratio, estimated_value
		FROM redemption_partners WHERE card_id = ? ORDER BY rowid`, string(card.ID))
	if err != nil {
		return storageErr("load_partners", err)
	}
	defer rows.Close()
	for rows.Next() {
		p := &engine.RedemptionPartner{CardID: card.ID}
		var idStr, ratio, value string
		if err := rows.Scan(&idStr, &p.Name, &ratio, &value); err != nil {
			return storageErr("load_partners", err)
		}
		p.ID = engine.PartnerID(idStr)
		p.TransferRatio = mustDecimal(ratio)
		p.EstimatedValue = mustDecimal(value)
		card.Partners = append(card.Partners, p)
	}
	return rows.Err()
}

// =============================================================================
// EXPENSE STORE
// =============================================================================

func (s *Store) AppendExpense(ctx context.Context, exp *engine.Expense) error {
	var online sql.NullInt64
	if exp.IsOnline != nil {
		online = sql.NullInt64{Int64: boolToInt(*exp.IsOnline), Valid: true}
	}
	var ruleID sql.NullString
	if exp.AppliedRuleID != "" {
		ruleID = sql.NullString{String: string(exp.AppliedRuleID), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, card_id, amount, merchant, category, platform,
		                      is_online, date, points_earned, applied_rule_id,
		                      notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(exp.ID), string(exp.CardID), exp.Amount.String(), exp.Merchant,
		exp.Category, defaultStr(exp.Platform, "Direct"), online,
		exp.Date.UTC().Format(timeLayout), exp.PointsEarned.String(),
		ruleID, exp.Notes, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return insertErr("append_expense", err)
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, id engine.ExpenseID) (*engine.Expense, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, card_id, amount, merchant, category, platform, is_online,
		       date, points_earned, applied_rule_id, notes
		FROM expenses WHERE id = ?`, string(id))

	exp, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.ErrExpenseNotFound
	}
	if err != nil {
		return nil, storageErr("get_expense", err)
	}
	return exp, nil
}

func (s *Store) UpdateExpense(ctx context.Context, exp *engine.Expense) error {
	var online sql.NullInt64
	if exp.IsOnline != nil {
		online = sql.NullInt64{Int64: boolToInt(*exp.IsOnline), Valid: true}
	}
	var ruleID sql.NullString
	if exp.AppliedRuleID != "" {
		ruleID = sql.NullString{String: string(exp.AppliedRuleID), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET amount = ?, merchant = ?, category = ?, platform = ?, is_online = ?,
		    date = ?, points_earned = ?, applied_rule_id = ?, notes = ?
		WHERE id = ?`,
		exp.Amount.String(), exp.Merchant, exp.Category,
		defaultStr(exp.Platform, "Direct"), online,
		exp.Date.UTC().Format(timeLayout), exp.PointsEarned.String(),
		ruleID, exp.Notes, string(exp.ID))
	if err != nil {
		return storageErr("update_expense", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrExpenseNotFound
	}
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, id engine.ExpenseID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, string(id))
	if err != nil {
		return storageErr("delete_expense", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrExpenseNotFound
	}
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, cardID engine.CardID, p engine.Period) ([]*engine.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, card_id, amount, merchant, category, platform, is_online,
		       date, points_earned, applied_rule_id, notes
		FROM expenses
		WHERE card_id = ? AND date >= ? AND date <= ?
		ORDER BY date, rowid`,
		string(cardID), p.Start.UTC().Format(timeLayout), p.End.UTC().Format(timeLayout))
	if err != nil {
		return nil, storageErr("list_expenses", err)
	}
	defer rows.Close()

	var result []*engine.Expense
	for rows.Next() {
		exp, err := scanExpense(rows)
		if err != nil {
			return nil, storageErr("list_expenses", err)
		}
		result = append(result, exp)
	}
	return result, rows.Err()
}

// =============================================================================
// USAGE ACCUMULATOR
// =============================================================================

// BucketUsage sums settled points attributed (via their applied rule) to the
// bucket within the period. Values are summed in Go to keep decimal
// precision exact.
func (s *Store) BucketUsage(ctx context.Context, bucketID engine.BucketID, p engine.Period) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT points_earned FROM expenses
		WHERE date >= ? AND date <= ?
		  AND applied_rule_id IN (SELECT id FROM reward_rules WHERE bucket_id = ?)`,
		p.Start.UTC().Format(timeLayout), p.End.UTC().Format(timeLayout),
		string(bucketID))
	if err != nil {
		return decimal.Zero, storageErr("bucket_usage", err)
	}
	defer rows.Close()
	return sumPoints(rows, "bucket_usage")
}

// GlobalUsage sums settled points for ALL of the card's expenses in the
// period, regardless of rule.
func (s *Store) GlobalUsage(ctx context.Context, cardID engine.CardID, p engine.Period) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT points_earned FROM expenses
		WHERE card_id = ? AND date >= ? AND date <= ?`,
		string(cardID), p.Start.UTC().Format(timeLayout), p.End.UTC().Format(timeLayout))
	if err != nil {
		return decimal.Zero, storageErr("global_usage", err)
	}
	defer rows.Close()
	return sumPoints(rows, "global_usage")
}

func sumPoints(rows *sql.Rows, op string) (decimal.Decimal, error) {
	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, storageErr(op, err)
		}
		total = total.Add(mustDecimal(raw))
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, storageErr(op, err)
	}
	return total, nil
}

// =============================================================================
// INSERT / SCAN HELPERS
// =============================================================================

// execer lets the insert helpers run inside or outside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertBucket(ctx context.Context, db execer, b *engine.CapBucket) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO cap_buckets (id, card_id, name, max_points, period, scope, reset_anchor)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(b.ID), string(b.CardID), b.Name, b.MaxPoints.String(),
		string(b.Period), string(b.Scope), b.ResetAnchor)
	if err != nil {
		return insertErr("insert_bucket", err)
	}
	return nil
}

func insertRule(ctx context.Context, db execer, r *engine.RewardRule) error {
	var condJSON sql.NullString
	if len(r.MatchConditions) > 0 {
		raw, err := json.Marshal(r.MatchConditions)
		if err != nil {
			return storageErr("insert_rule", err)
		}
		condJSON = sql.NullString{String: string(raw), Valid: true}
	}
	var bucketID sql.NullString
	if r.BucketID != "" {
		bucketID = sql.NullString{String: string(r.BucketID), Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO reward_rules (id, card_id, category, base_multiplier,
		                          bonus_multiplier, min_spend, conditions_json, bucket_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.ID), string(r.CardID), r.Category, r.BaseMultiplier.String(),
		r.BonusMultiplier.String(), r.MinSpend.String(), condJSON, bucketID)
	if err != nil {
		return insertErr("insert_rule", err)
	}
	return nil
}

func insertPartner(ctx context.Context, db execer, p *engine.RedemptionPartner) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO redemption_partners (id, card_id, name, transfer_ratio, estimated_value)
		VALUES (?, ?, ?, ?, ?)`,
		string(p.ID), string(p.CardID), p.Name,
		p.TransferRatio.String(), p.EstimatedValue.String())
	if err != nil {
		return insertErr("insert_partner", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*engine.Card, error) {
	card := &engine.Card{}
	var idStr, currency, pointValue, minSpend string
	var tierJSON sql.NullString
	err := row.Scan(&idStr, &card.Name, &card.Bank, &card.Network, &currency,
		&pointValue, &minSpend, &card.BillingDay, &tierJSON)
	if err != nil {
		return nil, err
	}
	card.ID = engine.CardID(idStr)
	card.Currency = engine.CurrencyType(currency)
	card.PointValue = mustDecimal(pointValue)
	card.MinSpendPerPoint = mustDecimal(minSpend)
	card.TierStatus = map[string]string{}
	if tierJSON.Valid && tierJSON.String != "" {
		if err := json.Unmarshal([]byte(tierJSON.String), &card.TierStatus); err != nil {
			return nil, err
		}
	}
	return card, nil
}

func scanExpense(row rowScanner) (*engine.Expense, error) {
	exp := &engine.Expense{}
	var idStr, cardID, amount, dateStr, points string
	var online sql.NullInt64
	var ruleID, notes sql.NullString
	err := row.Scan(&idStr, &cardID, &amount, &exp.Merchant, &exp.Category,
		&exp.Platform, &online, &dateStr, &points, &ruleID, &notes)
	if err != nil {
		return nil, err
	}
	exp.ID = engine.ExpenseID(idStr)
	exp.CardID = engine.CardID(cardID)
	exp.Amount = mustDecimal(amount)
	exp.PointsEarned = mustDecimal(points)
	if online.Valid {
		v := online.Int64 != 0
		exp.IsOnline = &v
	}
	if ruleID.Valid {
		exp.AppliedRuleID = engine.RuleID(ruleID.String)
	}
	if notes.Valid {
		exp.Notes = notes.String
	}
	exp.Date, err = time.Parse(time.RFC3339Nano, dateStr)
	if err != nil {
		return nil, err
	}
	return exp, nil
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func marshalMap(m map[string]string) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func defaultStr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func defaultCurrency(c engine.CurrencyType) engine.CurrencyType {
	if c == "" {
		return engine.CurrencyPoints
	}
	return c
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

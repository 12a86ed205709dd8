package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"funnel-tracker/internal/models"
)

// invalid_text_representation, raised when an id is not a uuid.
const pqInvalidText = "22P02"

// PostgresStore keeps prospects in the prospects table.
type PostgresStore struct{ db *sql.DB }

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

// OpenPostgres opens a connection pool for dsn and checks it is reachable.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

type column struct {
	name     string
	nullText bool
	field    interface{}
}

// prospectColumns pairs every writable column with a pointer into p, used
// as Scan destination and, through argValue, as query argument.
func prospectColumns(p *models.Prospect) []column {
	return []column{
		{"user_id", false, &p.UserID},
		{"name", false, &p.Name},
		{"business_name", false, &p.BusinessName},
		{"email", true, &p.Email},
		{"phone", true, &p.Phone},
		{"website", true, &p.Website},
		{"status", false, &p.Status},
		{"funnel_type", true, &p.FunnelType},
		{"stage1_name", true, &p.Stage1Name},
		{"stage1_price", false, &p.Stage1Price},
		{"stage1_is_paid", false, &p.Stage1IsPaid},
		{"stage2_name", true, &p.Stage2Name},
		{"stage2_price", false, &p.Stage2Price},
		{"stage2_is_paid", false, &p.Stage2IsPaid},
		{"stage3_name", true, &p.Stage3Name},
		{"stage3_price", false, &p.Stage3Price},
		{"stage3_is_paid", false, &p.Stage3IsPaid},
		{"stage4_name", true, &p.Stage4Name},
		{"stage4_price", false, &p.Stage4Price},
		{"stage4_is_paid", false, &p.Stage4IsPaid},
		{"stage3_enabled", false, &p.Stage3Enabled},
		{"stage4_enabled", false, &p.Stage4Enabled},
		{"current_daily_spend", false, &p.CurrentDailySpend},
		{"current_cpa_stage1", false, &p.CurrentCPAStage1},
		{"current_stage2_rate", false, &p.CurrentStage2Rate},
		{"current_stage3_rate", false, &p.CurrentStage3Rate},
		{"current_stage4_rate", false, &p.CurrentStage4Rate},
		{"current_conversion_rate", false, &p.CurrentConversionRate},
		{"high_ticket_price", false, &p.HighTicketPrice},
		{"projected_daily_spend", false, &p.ProjectedDailySpend},
		{"projected_cpa_stage1", false, &p.ProjectedCPAStage1},
		{"projected_stage2_rate", false, &p.ProjectedStage2Rate},
		{"projected_stage3_rate", false, &p.ProjectedStage3Rate},
		{"projected_stage4_rate", false, &p.ProjectedStage4Rate},
		{"projected_conversion_rate", false, &p.ProjectedConversionRate},
		{"projected_high_ticket_price", false, &p.ProjectedHighTicketPrice},
		{"scaling_increment_percent", false, &p.ScalingIncrementPercent},
		{"scaling_frequency_days", false, &p.ScalingFrequencyDays},
	}
}

func selectList() string {
	cols := []string{"id"}
	for _, c := range prospectColumns(&models.Prospect{}) {
		if c.nullText {
			cols = append(cols, fmt.Sprintf("COALESCE(%s, '')", c.name))
			continue
		}
		cols = append(cols, c.name)
	}
	cols = append(cols, "created_at", "updated_at")
	return strings.Join(cols, ", ")
}

func scanDest(p *models.Prospect) []interface{} {
	dest := []interface{}{&p.ID}
	for _, c := range prospectColumns(p) {
		dest = append(dest, c.field)
	}
	return append(dest, &p.CreatedAt, &p.UpdatedAt)
}

func (s *PostgresStore) Create(ctx context.Context, p models.Prospect) (models.Prospect, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	cols := prospectColumns(&p)
	names := []string{"id"}
	placeholders := []string{"$1"}
	args := []interface{}{p.ID}
	for i, c := range cols {
		names = append(names, c.name)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		args = append(args, argValue(c.field))
	}

	q := fmt.Sprintf(`INSERT INTO prospects (%s, created_at, updated_at)
		VALUES (%s, NOW(), NOW())
		RETURNING created_at, updated_at`,
		strings.Join(names, ", "), strings.Join(placeholders, ", "))

	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return models.Prospect{}, fmt.Errorf("create prospect: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (models.Prospect, error) {
	var p models.Prospect
	q := `SELECT ` + selectList() + ` FROM prospects WHERE id = $1`
	err := s.db.QueryRowContext(ctx, q, id).Scan(scanDest(&p)...)
	if err != nil {
		if isMissing(err) {
			return models.Prospect{}, ErrNotFound
		}
		return models.Prospect{}, fmt.Errorf("get prospect: %w", err)
	}
	return p, nil
}

// Update rewrites every funnel and contact column. The owner and creation
// time are kept from the stored row.
func (s *PostgresStore) Update(ctx context.Context, p models.Prospect) (models.Prospect, error) {
	sets := []string{}
	args := []interface{}{p.ID}
	for _, c := range prospectColumns(&p) {
		if c.name == "user_id" {
			continue
		}
		args = append(args, argValue(c.field))
		sets = append(sets, fmt.Sprintf("%s = $%d", c.name, len(args)))
	}
	sets = append(sets, "updated_at = NOW()")

	q := fmt.Sprintf(`UPDATE prospects SET %s WHERE id = $1 RETURNING user_id, created_at, updated_at`,
		strings.Join(sets, ", "))

	err := s.db.QueryRowContext(ctx, q, args...).Scan(&p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isMissing(err) {
			return models.Prospect{}, ErrNotFound
		}
		return models.Prospect{}, fmt.Errorf("update prospect: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM prospects WHERE id = $1`, id)
	if err != nil {
		if isMissing(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete prospect: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete prospect: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Search(ctx context.Context, f SearchFilter) ([]models.Prospect, error) {
	q := `SELECT ` + selectList() + ` FROM prospects WHERE 1=1`
	args := []interface{}{}

	if f.UserID != "" {
		args = append(args, f.UserID)
		q += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		args = append(args, "%"+likeEscaper.Replace(query)+"%")
		q += fmt.Sprintf(" AND (name ILIKE $%d OR business_name ILIKE $%d)", len(args), len(args))
	}
	if status := f.status(); status != "" {
		args = append(args, status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	q += " ORDER BY created_at DESC, id ASC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search prospects: %w", err)
	}
	defer rows.Close()

	out := make([]models.Prospect, 0)
	for rows.Next() {
		var p models.Prospect
		if err := rows.Scan(scanDest(&p)...); err != nil {
			return nil, fmt.Errorf("scan prospect: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search prospects: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// argValue dereferences a column pointer; unset optional values become NULL.
func argValue(field interface{}) interface{} {
	switch v := field.(type) {
	case *string:
		return *v
	case *models.ProspectStatus:
		return string(*v)
	case **float64:
		if *v == nil {
			return nil
		}
		return **v
	case **bool:
		if *v == nil {
			return nil
		}
		return **v
	case **int:
		if *v == nil {
			return nil
		}
		return int64(**v)
	}
	return field
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func isMissing(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidText
}

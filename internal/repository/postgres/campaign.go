package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/database"
	apperrors "github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/errors"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/domain"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/repository"
)

const campaignColumns = `id, title, description, type, code, discount_percent,
	   discount_amount, package_price, min_purchase_amount, start_date,
	   end_date, is_active, created_at, updated_at`

// CampaignRepository implements repository.CampaignRepository using PostgreSQL.
type CampaignRepository struct {
	db repository.DB
}

// NewCampaignRepository creates a PostgreSQL-backed campaign repository.
func NewCampaignRepository(db repository.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create inserts a campaign and its scoping associations in one transaction.
func (r *CampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create campaign: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO campaigns (
			id, title, description, type, code, discount_percent,
			discount_amount, package_price, min_purchase_amount,
			start_date, end_date, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = tx.Exec(ctx, query,
		c.ID,
		c.Title,
		c.Description,
		c.Type,
		nullableCode(c.Code),
		c.DiscountPercent,
		c.DiscountAmount,
		c.PackagePrice,
		c.MinPurchaseAmount,
		c.StartDate,
		c.EndDate,
		c.IsActive,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("campaign", "code", c.Code)
		}
		return fmt.Errorf("insert campaign: %w", err)
	}

	if err := insertAssociations(ctx, tx, c); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create campaign: %w", err)
	}

	return nil
}

// GetByID retrieves a campaign by its ID, associations included.
func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE id = $1`, campaignColumns)

	c, err := r.scanCampaign(ctx, query, id)
	if err != nil {
		return nil, err
	}

	if err := r.loadAssociations(ctx, []*domain.Campaign{c}); err != nil {
		return nil, err
	}

	return c, nil
}

// GetByCode retrieves a campaign by its normalized coupon code.
func (r *CampaignRepository) GetByCode(ctx context.Context, code string) (c *domain.Campaign, err error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE code = $1`, campaignColumns)

	ctx, end := database.TraceQuery(ctx, "GetCampaignByCode", query)
	defer func() { end(err) }()

	c, err = r.scanCampaign(ctx, query, domain.NormalizeCode(code))
	if err != nil {
		return nil, err
	}

	if err := r.loadAssociations(ctx, []*domain.Campaign{c}); err != nil {
		return nil, err
	}

	return c, nil
}

// List returns campaigns matching the filter with the total count.
// Associations are not loaded; listings only need the headline fields.
func (r *CampaignRepository) List(ctx context.Context, filter repository.CampaignFilter) ([]*domain.Campaign, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIndex))
		args = append(args, filter.Type)
		argIndex++
	}

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *filter.IsActive)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM campaigns
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		campaignColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var (
		campaigns  []*domain.Campaign
		totalCount int
	)

	for rows.Next() {
		c, err := scanCampaignRow(rows, &totalCount)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate campaign rows: %w", err)
	}

	if campaigns == nil {
		campaigns = []*domain.Campaign{}
	}

	return campaigns, totalCount, nil
}

// ListLive returns campaigns whose window contains now and that are
// active, ordered so the best-ranked candidate comes first.
func (r *CampaignRepository) ListLive(ctx context.Context, now time.Time) (campaigns []*domain.Campaign, err error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM campaigns
		WHERE is_active = TRUE
		  AND start_date <= $1
		  AND end_date >= $1
		ORDER BY min_purchase_amount DESC, discount_percent DESC`,
		campaignColumns,
	)

	ctx, end := database.TraceQuery(ctx, "ListLiveCampaigns", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list live campaigns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaignRow(rows, nil)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate live campaign rows: %w", err)
	}

	if err := r.loadAssociations(ctx, campaigns); err != nil {
		return nil, err
	}

	if campaigns == nil {
		campaigns = []*domain.Campaign{}
	}

	return campaigns, nil
}

// Update rewrites a campaign. Scoping associations are fully replaced,
// not merged: all existing rows are cleared, then the new set inserted,
// inside one transaction.
func (r *CampaignRepository) Update(ctx context.Context, c *domain.Campaign) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update campaign: %w", err)
	}
	defer tx.Rollback(ctx)

	c.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE campaigns
		SET title = $1, description = $2, type = $3, code = $4,
		    discount_percent = $5, discount_amount = $6, package_price = $7,
		    min_purchase_amount = $8, start_date = $9, end_date = $10,
		    is_active = $11, updated_at = $12
		WHERE id = $13`

	ct, err := tx.Exec(ctx, query,
		c.Title,
		c.Description,
		c.Type,
		nullableCode(c.Code),
		c.DiscountPercent,
		c.DiscountAmount,
		c.PackagePrice,
		c.MinPurchaseAmount,
		c.StartDate,
		c.EndDate,
		c.IsActive,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("campaign", "code", c.Code)
		}
		return fmt.Errorf("update campaign: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("campaign", c.ID)
	}

	for _, table := range []string{"campaign_categories", "campaign_products", "campaign_package_products"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE campaign_id = $1", table), c.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := insertAssociations(ctx, tx, c); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update campaign: %w", err)
	}

	return nil
}

// Delete removes a campaign. Association rows cascade at the schema level.
func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("campaign", id)
	}

	return nil
}

// CategoryNames resolves category IDs to names, preserving no particular order.
func (r *CampaignRepository) CategoryNames(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}

	rows, err := r.db.Query(ctx, `SELECT name FROM categories WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query category names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category names: %w", err)
	}

	if names == nil {
		names = []string{}
	}

	return names, nil
}

// insertAssociations writes the campaign's scoping rows inside tx.
func insertAssociations(ctx context.Context, tx pgx.Tx, c *domain.Campaign) error {
	for _, categoryID := range c.CategoryIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO campaign_categories (campaign_id, category_id) VALUES ($1, $2)`,
			c.ID, categoryID,
		)
		if err != nil {
			return fmt.Errorf("insert campaign category: %w", err)
		}
	}

	for _, productID := range c.ProductIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO campaign_products (campaign_id, product_id) VALUES ($1, $2)`,
			c.ID, productID,
		)
		if err != nil {
			return fmt.Errorf("insert campaign product: %w", err)
		}
	}

	for _, pp := range c.PackageProducts {
		_, err := tx.Exec(ctx,
			`INSERT INTO campaign_package_products (campaign_id, product_id, quantity) VALUES ($1, $2, $3)`,
			c.ID, pp.ProductID, pp.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert campaign package product: %w", err)
		}
	}

	return nil
}

// loadAssociations populates scoping fields for the given campaigns with
// one query per association table, avoiding per-campaign lookups.
func (r *CampaignRepository) loadAssociations(ctx context.Context, campaigns []*domain.Campaign) error {
	if len(campaigns) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Campaign, len(campaigns))
	ids := make([]string, 0, len(campaigns))
	for _, c := range campaigns {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	rows, err := r.db.Query(ctx,
		`SELECT campaign_id, category_id FROM campaign_categories WHERE campaign_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("query campaign categories: %w", err)
	}
	for rows.Next() {
		var campaignID, categoryID string
		if err := rows.Scan(&campaignID, &categoryID); err != nil {
			rows.Close()
			return fmt.Errorf("scan campaign category: %w", err)
		}
		if c, ok := byID[campaignID]; ok {
			c.CategoryIDs = append(c.CategoryIDs, categoryID)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate campaign categories: %w", err)
	}

	rows, err = r.db.Query(ctx,
		`SELECT campaign_id, product_id FROM campaign_products WHERE campaign_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("query campaign products: %w", err)
	}
	for rows.Next() {
		var campaignID, productID string
		if err := rows.Scan(&campaignID, &productID); err != nil {
			rows.Close()
			return fmt.Errorf("scan campaign product: %w", err)
		}
		if c, ok := byID[campaignID]; ok {
			c.ProductIDs = append(c.ProductIDs, productID)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate campaign products: %w", err)
	}

	rows, err = r.db.Query(ctx,
		`SELECT campaign_id, product_id, quantity FROM campaign_package_products WHERE campaign_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("query campaign package products: %w", err)
	}
	for rows.Next() {
		var (
			campaignID string
			pp         domain.PackageProduct
		)
		if err := rows.Scan(&campaignID, &pp.ProductID, &pp.Quantity); err != nil {
			rows.Close()
			return fmt.Errorf("scan campaign package product: %w", err)
		}
		if c, ok := byID[campaignID]; ok {
			c.PackageProducts = append(c.PackageProducts, pp)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate campaign package products: %w", err)
	}

	return nil
}

// scanCampaign executes a query expected to return a single campaign row.
func (r *CampaignRepository) scanCampaign(ctx context.Context, query string, args ...any) (*domain.Campaign, error) {
	var (
		c    domain.Campaign
		code *string
	)

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.Type,
		&code,
		&c.DiscountPercent,
		&c.DiscountAmount,
		&c.PackagePrice,
		&c.MinPurchaseAmount,
		&c.StartDate,
		&c.EndDate,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan campaign: %w", err)
	}

	if code != nil {
		c.Code = *code
	}

	return &c, nil
}

// scanCampaignRow scans one row from a multi-row campaign query. When
// totalCount is non-nil the query is expected to carry a trailing
// count(*) OVER() column.
func scanCampaignRow(rows pgx.Rows, totalCount *int) (*domain.Campaign, error) {
	var (
		c    domain.Campaign
		code *string
	)

	dest := []any{
		&c.ID,
		&c.Title,
		&c.Description,
		&c.Type,
		&code,
		&c.DiscountPercent,
		&c.DiscountAmount,
		&c.PackagePrice,
		&c.MinPurchaseAmount,
		&c.StartDate,
		&c.EndDate,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
	if totalCount != nil {
		dest = append(dest, totalCount)
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan campaign row: %w", err)
	}

	if code != nil {
		c.Code = *code
	}

	return &c, nil
}

// nullableCode maps an empty code to NULL so the partial unique index on
// campaigns.code only guards real coupon codes.
func nullableCode(code string) *string {
	if code == "" {
		return nil
	}
	normalized := domain.NormalizeCode(code)
	return &normalized
}

// isUniqueViolation checks for a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

package directory

import (
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/agriconnect/admin-backend/internal/models"
	"github.com/agriconnect/admin-backend/internal/organizations"
	"github.com/agriconnect/admin-backend/internal/users"
)

// MaxPageSize caps list endpoints. MaxSearchLimit caps user search.
const (
	MaxPageSize    = 100
	MaxSearchLimit = 50
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Sortable columns per list. Anything else falls back to created_at.
var (
	organizationSorts = map[string]string{
		"created_at": "o.created_at",
		"name":       "o.name",
		"slug":       "o.slug",
		"status":     "o.status",
		"type":       "o.organization_type",
	}
	userSorts = map[string]string{
		"created_at": "created_at",
		"email":      "email",
		"full_name":  "full_name",
		"status":     "status",
		"kyc_status": "kyc_status",
	}
)

// OrganizationFilter narrows the organization list.
type OrganizationFilter struct {
	Query  string                    `form:"query"`
	Status models.OrganizationStatus `form:"status"`
	Type   models.OrganizationType   `form:"type"`
	Sort   string                    `form:"sort"`
	Order  string                    `form:"order"`
	Limit  uint64                    `form:"limit"`
	Offset uint64                    `form:"offset"`
}

// UserFilter narrows the user list.
type UserFilter struct {
	Query     string            `form:"query"`
	Status    models.UserStatus `form:"status"`
	KYCStatus models.KYCStatus  `form:"kyc_status"`
	Banned    *bool             `form:"banned"`
	Sort      string            `form:"sort"`
	Order     string            `form:"order"`
	Limit     uint64            `form:"limit"`
	Offset    uint64            `form:"offset"`
}

// likePattern escapes LIKE wildcards in q and wraps it for a substring match.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(q)) + "%"
}

func orderBy(sorts map[string]string, sort, order, fallback string) string {
	col, ok := sorts[sort]
	if !ok {
		col = fallback
	}
	dir := "DESC"
	if strings.EqualFold(order, "asc") {
		dir = "ASC"
	}
	return col + " " + dir
}

func organizationWhere(b sq.SelectBuilder, f OrganizationFilter) sq.SelectBuilder {
	if q := strings.TrimSpace(f.Query); q != "" {
		p := likePattern(q)
		b = b.Where(sq.Or{sq.ILike{"o.name": p}, sq.ILike{"o.slug": p}, sq.ILike{"o.contact_email": p}})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"o.status": string(f.Status)})
	}
	if f.Type != "" {
		b = b.Where(sq.Eq{"o.organization_type": string(f.Type)})
	}
	return b
}

// OrganizationsQuery selects one page of organizations matching f.
func OrganizationsQuery(f OrganizationFilter) (string, []interface{}, error) {
	b := organizationWhere(psql.Select(organizations.Columns).From("organizations o"), f)
	return b.OrderBy(orderBy(organizationSorts, f.Sort, f.Order, "o.created_at"), "o.id").
		Limit(f.Limit).Offset(f.Offset).ToSql()
}

// CountOrganizationsQuery counts every organization matching f.
func CountOrganizationsQuery(f OrganizationFilter) (string, []interface{}, error) {
	return organizationWhere(psql.Select("COUNT(*)").From("organizations o"), f).ToSql()
}

func userWhere(b sq.SelectBuilder, f UserFilter) sq.SelectBuilder {
	if q := strings.TrimSpace(f.Query); q != "" {
		b = b.Where(userMatch(q))
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.KYCStatus != "" {
		b = b.Where(sq.Eq{"kyc_status": string(f.KYCStatus)})
	}
	if f.Banned != nil {
		b = b.Where(sq.Eq{"banned": *f.Banned})
	}
	return b
}

func userMatch(q string) sq.Or {
	p := likePattern(q)
	return sq.Or{sq.ILike{"email": p}, sq.ILike{"full_name": p}, sq.ILike{"phone_number": p}}
}

// UsersQuery selects one page of users matching f.
func UsersQuery(f UserFilter) (string, []interface{}, error) {
	b := userWhere(psql.Select(users.Columns).From("users"), f)
	return b.OrderBy(orderBy(userSorts, f.Sort, f.Order, "created_at"), "id").
		Limit(f.Limit).Offset(f.Offset).ToSql()
}

// CountUsersQuery counts every user matching f.
func CountUsersQuery(f UserFilter) (string, []interface{}, error) {
	return userWhere(psql.Select("COUNT(*)").From("users"), f).ToSql()
}

// SearchUsersQuery finds up to limit users whose email, name or phone contains q.
func SearchUsersQuery(q string, limit uint64) (string, []interface{}, error) {
	return psql.Select(users.Columns).From("users").
		Where(userMatch(q)).
		OrderBy("full_name ASC", "id").
		Limit(limit).ToSql()
}

package seed

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/roach88/storefront/internal/account"
	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/store"
)

// DefaultAdminPassword is the well-known password of the seeded admin
// account. Deployments are expected to override it.
const DefaultAdminPassword = "admin123"

// Options controls Initialize.
type Options struct {
	// Catalog is seeded when the categories table is empty. Nil means the
	// embedded default catalog.
	Catalog *Catalog

	// AdminPassword is the password of the seeded admin. Empty means
	// DefaultAdminPassword.
	AdminPassword string

	// Hasher hashes AdminPassword. Nil means bcrypt at the default cost.
	Hasher *account.Hasher

	// Logger receives seeding events. Nil means the store's logger.
	Logger *slog.Logger
}

// Report says what Initialize wrote.
type Report struct {
	Categories int  `json:"categories"`
	Products   int  `json:"products"`
	Admin      bool `json:"admin"`
}

// Seeded reports whether anything was written.
func (r Report) Seeded() bool {
	return r.Categories > 0 || r.Products > 0 || r.Admin
}

// Initialize seeds an empty database. The catalog is written only when there
// are no categories, the admin only when there are no users, so calling it
// on every start is safe. Rows that already exist are skipped silently.
//
// Everything happens in one transaction.
func Initialize(ctx context.Context, st *store.Store, opts Options) (Report, error) {
	cat := opts.Catalog
	if cat == nil {
		var err error
		if cat, err = Load(); err != nil {
			return Report{}, err
		}
	}
	password := opts.AdminPassword
	if password == "" {
		password = DefaultAdminPassword
	}
	hasher := opts.Hasher
	if hasher == nil {
		hasher = account.NewHasher(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = st.Logger()
	}

	var report Report
	err := st.InTx(ctx, func(tx *sql.Tx) error {
		empty, err := isEmpty(ctx, tx, "categories")
		if err != nil {
			return err
		}
		if empty {
			if err := seedCatalog(ctx, tx, cat, &report); err != nil {
				return err
			}
		}

		empty, err = isEmpty(ctx, tx, "users")
		if err != nil {
			return err
		}
		if empty {
			hash, err := hasher.Hash(password)
			if err != nil {
				return domain.NewStorageError("hash admin password", err)
			}
			res, err := tx.ExecContext(ctx, `
				INSERT INTO users (username, password_hash, role)
				VALUES (?, ?, ?)
				ON CONFLICT (username) DO NOTHING
			`, domain.ProtectedUsername, hash, string(domain.RoleAdmin))
			if err != nil {
				return domain.NewStorageError("seed admin", err)
			}
			n, _ := res.RowsAffected()
			report.Admin = n > 0
		}
		return nil
	})
	if err != nil {
		logger.Error("seeding failed", "error", err)
		return Report{}, err
	}

	if report.Seeded() {
		logger.Info("database seeded",
			"categories", report.Categories,
			"products", report.Products,
			"admin", report.Admin,
		)
	} else {
		logger.Debug("database already seeded")
	}
	return report, nil
}

func seedCatalog(ctx context.Context, tx *sql.Tx, cat *Catalog, report *Report) error {
	for _, c := range cat.Categories {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO categories (name) VALUES (?)
			ON CONFLICT (name) DO NOTHING
		`, c.Name)
		if err != nil {
			return domain.NewStorageError("seed category", err)
		}
		n, _ := res.RowsAffected()
		report.Categories += int(n)
	}

	ids := make(map[string]int64, len(cat.Categories))
	for _, c := range cat.Categories {
		var id int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, c.Name).Scan(&id); err != nil {
			return domain.NewStorageError("resolve seed category", err)
		}
		ids[c.Name] = id
	}

	for _, p := range cat.Products {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO products (name, price, image, category_id)
			VALUES (?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, p.Name, p.Price, domain.ResolveImage(p.Image), ids[p.Category])
		if err != nil {
			return domain.NewStorageError("seed product", err)
		}
		n, _ := res.RowsAffected()
		report.Products += int(n)
	}
	return nil
}

func isEmpty(ctx context.Context, tx *sql.Tx, table string) (bool, error) {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return false, domain.NewStorageError("count "+table, err)
	}
	return n == 0, nil
}

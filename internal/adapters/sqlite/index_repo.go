// Package sqlite persists the scanned index so read-only consumers can
// query the tree without walking the filesystem. The cache is advisory:
// every refresh replaces it wholesale in one transaction, and mutating
// operations never read from it.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nelsonlove/jd/internal/scanner"
)

// ErrEmpty is returned by Load when the cache has never been refreshed.
var ErrEmpty = errors.New("index cache is empty")

const metaRefreshedAt = "refreshed_at"

// IndexRepository stores and retrieves index snapshots.
type IndexRepository struct {
	db *sql.DB
}

// NewIndexRepository creates a new SQLite index repository.
func NewIndexRepository(db *sql.DB) *IndexRepository {
	return &IndexRepository{db: db}
}

// Save replaces the cached index with a snapshot in one transaction.
func (r *IndexRepository) Save(ctx context.Context, snap *scanner.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"broken_symlinks", "orphans", "ids", "categories", "areas", "meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES ('root', ?), (?, ?)",
		snap.Root, metaRefreshedAt, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("failed to write meta: %w", err)
	}

	for _, area := range snap.Areas {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO areas (start_num, end_num, name, path) VALUES (?, ?, ?, ?)",
			area.Start, area.End, area.Name, area.Path,
		); err != nil {
			return fmt.Errorf("failed to insert area %s: %w", area.Name, err)
		}
		for _, o := range area.Orphans {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO orphans (path, owner) VALUES (?, ?)", o, area.Path,
			); err != nil {
				return fmt.Errorf("failed to insert orphan: %w", err)
			}
		}
		for _, cat := range area.Categories {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO categories (number, area_start, name, path) VALUES (?, ?, ?, ?)",
				cat.Number, area.Start, cat.Name, cat.Path,
			); err != nil {
				return fmt.Errorf("failed to insert category %02d: %w", cat.Number, err)
			}
			for _, o := range cat.Orphans {
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO orphans (path, owner) VALUES (?, ?)", o, cat.Path,
				); err != nil {
					return fmt.Errorf("failed to insert orphan: %w", err)
				}
			}
			for _, id := range cat.IDs {
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO ids (ref, category, name, path, is_file, is_symlink, mismatched) VALUES (?, ?, ?, ?, ?, ?, ?)",
					id.Ref, cat.Number, id.Name, id.Path, id.IsFile, id.IsSymlink, id.Mismatched,
				); err != nil {
					return fmt.Errorf("failed to insert id %s: %w", id.Ref, err)
				}
			}
		}
	}

	for _, o := range snap.Orphans {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO orphans (path, owner) VALUES (?, '')", o,
		); err != nil {
			return fmt.Errorf("failed to insert orphan: %w", err)
		}
	}
	for _, u := range snap.Unreachable {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO broken_symlinks (path) VALUES (?)", u,
		); err != nil {
			return fmt.Errorf("failed to insert broken symlink: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index: %w", err)
	}
	return nil
}

// Load rebuilds the last saved snapshot. ErrEmpty means no refresh has
// ever run.
func (r *IndexRepository) Load(ctx context.Context) (*scanner.Snapshot, error) {
	snap := &scanner.Snapshot{}
	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM meta WHERE key = 'root'",
	).Scan(&snap.Root)
	if err == sql.ErrNoRows {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read meta: %w", err)
	}

	orphans, err := r.loadOrphans(ctx)
	if err != nil {
		return nil, err
	}
	snap.Orphans = orphans[""]

	areas, err := r.db.QueryContext(ctx,
		"SELECT start_num, end_num, name, path FROM areas ORDER BY start_num",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query areas: %w", err)
	}
	defer areas.Close()

	for areas.Next() {
		var area scanner.AreaNode
		if err := areas.Scan(&area.Start, &area.End, &area.Name, &area.Path); err != nil {
			return nil, fmt.Errorf("failed to scan area: %w", err)
		}
		area.Orphans = orphans[area.Path]
		if area.Categories, err = r.loadCategories(ctx, area.Start, orphans); err != nil {
			return nil, err
		}
		snap.Areas = append(snap.Areas, area)
	}
	if err := areas.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate areas: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, "SELECT path FROM broken_symlinks ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failed to query broken symlinks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan broken symlink: %w", err)
		}
		snap.Unreachable = append(snap.Unreachable, path)
	}
	return snap, rows.Err()
}

func (r *IndexRepository) loadCategories(ctx context.Context, areaStart int, orphans map[string][]string) ([]scanner.CategoryNode, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT number, name, path FROM categories WHERE area_start = ? ORDER BY number",
		areaStart,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var cats []scanner.CategoryNode
	for rows.Next() {
		var cat scanner.CategoryNode
		if err := rows.Scan(&cat.Number, &cat.Name, &cat.Path); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cat.Orphans = orphans[cat.Path]
		if cat.IDs, err = r.loadIDs(ctx, cat.Number); err != nil {
			return nil, err
		}
		cats = append(cats, cat)
	}
	return cats, rows.Err()
}

func (r *IndexRepository) loadIDs(ctx context.Context, catNum int) ([]scanner.IDNode, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT ref, name, path, is_file, is_symlink, mismatched FROM ids WHERE category = ? ORDER BY ref",
		catNum,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	var ids []scanner.IDNode
	for rows.Next() {
		var id scanner.IDNode
		if err := rows.Scan(&id.Ref, &id.Name, &id.Path, &id.IsFile, &id.IsSymlink, &id.Mismatched); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// loadOrphans maps container path (empty for the root) to orphan paths.
func (r *IndexRepository) loadOrphans(ctx context.Context) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT path, owner FROM orphans ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failed to query orphans: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var path, owner string
		if err := rows.Scan(&path, &owner); err != nil {
			return nil, fmt.Errorf("failed to scan orphan: %w", err)
		}
		out[owner] = append(out[owner], path)
	}
	return out, rows.Err()
}

// Clear empties the cache.
func (r *IndexRepository) Clear(ctx context.Context) error {
	for _, table := range []string{"broken_symlinks", "orphans", "ids", "categories", "areas", "meta"} {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// RefreshedAt returns when the cache was last rebuilt.
func (r *IndexRepository) RefreshedAt(ctx context.Context) (time.Time, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM meta WHERE key = ?", metaRefreshedAt,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, ErrEmpty
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read refresh time: %w", err)
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse refresh time: %w", err)
	}
	return ts, nil
}

// Package catalog implements the persistent typed graph of libraries,
// items, relations, external ids, and extra fields (§4.A).
package catalog

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"nexamediaserver/internal/apperrors"
)

// Filter narrows a MetadataItem query; zero values are ignored.
type Filter struct {
	LibrarySectionID uint64
	Types            []MetadataType
	TitleContains    string
	Genre            string
	Tag              string
}

// Order picks the sort dimension for a List call.
type Order struct {
	Field string // "sortTitle", "year", "createdAt", "originallyAvailableAt"
	Desc  bool
}

// Page selects either offset pagination or opaque-cursor pagination (§4.A:
// "pagination by offset or by opaque cursor"). Cursor wins when set.
type Page struct {
	Limit  int
	Offset int
	Cursor string
}

// PageResult carries the page of items plus the cursor for the next page.
type PageResult struct {
	Items      []*MetadataItem
	NextCursor string
	Total      int64
}

// ItemRepository is the queryable read / create / update / soft-delete
// surface over MetadataItem described in §4.A.
type ItemRepository interface {
	Create(ctx context.Context, item *MetadataItem) error
	BulkInsert(ctx context.Context, items []*MetadataItem) ([]uint64, error)
	GetByID(ctx context.Context, id uint64) (*MetadataItem, error)
	GetByUUID(ctx context.Context, id string) (*MetadataItem, error)
	Update(ctx context.Context, id uint64, mutate func(*MetadataItem) error) (*MetadataItem, error)
	SoftDelete(ctx context.Context, id uint64) error
	List(ctx context.Context, f Filter, order Order, page Page) (PageResult, error)
}

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository constructs the default gorm-backed ItemRepository.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *MetadataItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return translateWriteErr(err)
	}
	return nil
}

// BulkInsert performs a single transaction inserting items plus their child
// collections, returning newly assigned keys, per §4.A's scan-throughput
// bulk insert. BulkInsert itself does not retry; the scan pipeline's
// persist stage writes each unit with Create instead, retrying it once.
func (r *itemRepository) BulkInsert(ctx context.Context, items []*MetadataItem) ([]uint64, error) {
	ids := make([]uint64, 0, len(items))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if err := tx.Create(item).Error; err != nil {
				return translateWriteErr(err)
			}
			ids = append(ids, item.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id uint64) (*MetadataItem, error) {
	var item MetadataItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Newf(apperrors.NotFound, "metadata item %d not found", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "fetching metadata item")
	}
	return &item, nil
}

func (r *itemRepository) GetByUUID(ctx context.Context, id string) (*MetadataItem, error) {
	var item MetadataItem
	err := r.db.WithContext(ctx).First(&item, "uuid = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Newf(apperrors.NotFound, "metadata item %s not found", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "fetching metadata item")
	}
	return &item, nil
}

// Update loads the item, applies mutate (which must respect locked fields
// itself — callers that need lock enforcement use agents.ApplyHints
// instead), and writes it back inside a transaction. A second call with the
// same patch leaves the item unchanged between calls (idempotence, §8).
func (r *itemRepository) Update(ctx context.Context, id uint64, mutate func(*MetadataItem) error) (*MetadataItem, error) {
	var result *MetadataItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item MetadataItem
		if err := tx.First(&item, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Newf(apperrors.NotFound, "metadata item %d not found", id)
			}
			return apperrors.Wrap(apperrors.Internal, err, "loading metadata item")
		}
		if err := mutate(&item); err != nil {
			return err
		}
		item.SortTitle = GenerateSortName(item.Title, item.Language)
		if err := tx.Save(&item).Error; err != nil {
			return translateWriteErr(err)
		}
		result = &item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SoftDelete rewrites the delete to an update of the deletion timestamp,
// per §4.A's interceptor semantics; GORM does this natively for any model
// carrying gorm.DeletedAt, which MetadataItem embeds via SoftDeletable.
func (r *itemRepository) SoftDelete(ctx context.Context, id uint64) error {
	err := r.db.WithContext(ctx).Delete(&MetadataItem{}, "id = ?", id).Error
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, err, "soft-deleting metadata item")
	}
	return nil
}

func (r *itemRepository) List(ctx context.Context, f Filter, order Order, page Page) (PageResult, error) {
	q := r.db.WithContext(ctx).Model(&MetadataItem{})
	q = applyFilter(q, f)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return PageResult{}, apperrors.Wrap(apperrors.Internal, err, "counting metadata items")
	}

	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}

	offset := page.Offset
	if page.Cursor != "" {
		decoded, err := decodeCursor(page.Cursor)
		if err != nil {
			return PageResult{}, apperrors.Wrap(apperrors.InvalidArgument, err, "invalid cursor")
		}
		offset = decoded
	}

	q = q.Order(orderClause(order, r.db.Dialector.Name() != "postgres")).Limit(limit + 1).Offset(offset)

	var items []*MetadataItem
	if err := q.Find(&items).Error; err != nil {
		return PageResult{}, apperrors.Wrap(apperrors.Internal, err, "listing metadata items")
	}

	result := PageResult{Total: total}
	if len(items) > limit {
		items = items[:limit]
		result.NextCursor = encodeCursor(offset + limit)
	}
	result.Items = items
	return result, nil
}

func applyFilter(q *gorm.DB, f Filter) *gorm.DB {
	if f.LibrarySectionID != 0 {
		q = q.Where("library_section_id = ?", f.LibrarySectionID)
	}
	if len(f.Types) > 0 {
		q = q.Where("type IN ?", f.Types)
	}
	if f.TitleContains != "" {
		q = q.Where("title LIKE ?", "%"+f.TitleContains+"%")
	}
	if f.Genre != "" {
		q = q.Where("genres LIKE ?", "%\""+f.Genre+"\"%")
	}
	if f.Tag != "" {
		q = q.Where("tags LIKE ?", "%\""+f.Tag+"\"%")
	}
	return q
}

// orderClause builds the ORDER BY for o. sort_title uses the NATURALSORT
// collation only when natural is set (sqlite, where Open registers it).
func orderClause(o Order, natural bool) string {
	field := o.Field
	switch field {
	case "", "sortTitle":
		field = "sort_title"
	case "year":
		field = "year"
	case "createdAt":
		field = "created_at"
	case "originallyAvailableAt":
		field = "originally_available_at"
	default:
		field = "sort_title"
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	if field == "sort_title" && natural {
		return fmt.Sprintf("%s COLLATE NATURALSORT %s", field, dir)
	}
	return fmt.Sprintf("%s %s", field, dir)
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func decodeCursor(cursor string) (int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(raw))
}

// translateWriteErr maps driver-level constraint failures onto the typed
// Conflict/Internal error kinds per §4.A's failure semantics: constraint
// violations (duplicate path, duplicate external id) are Conflict;
// foreign-key violations during cascade are Internal.
func translateWriteErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique"), strings.Contains(msg, "duplicate"):
		return apperrors.Wrap(apperrors.Conflict, err, "unique constraint violated")
	case strings.Contains(msg, "foreign key"), strings.Contains(msg, "constraint failed"):
		return apperrors.Wrap(apperrors.Internal, err, "referential integrity violation")
	default:
		return apperrors.Wrap(apperrors.Internal, err, "write failed")
	}
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"VinylShop/core/catalog"
	"VinylShop/model"

	"gorm.io/gorm"
)

// AlbumRepository 定义专辑相关的数据库操作接口
type AlbumRepository interface {
	// CreateAlbum 创建新专辑, filling album.ID
	CreateAlbum(ctx context.Context, album *model.Album) error

	// GetAlbumByID returns nil, nil when no album has the id.
	GetAlbumByID(ctx context.Context, id uint64) (*model.Album, error)

	// ListAlbums returns the whole catalog ordered by id.
	ListAlbums(ctx context.Context) ([]model.Album, error)

	// SearchAlbums returns albums whose title contains query (case-sensitive).
	SearchAlbums(ctx context.Context, query string) ([]model.Album, error)

	// UpdateAlbum 更新专辑信息
	UpdateAlbum(ctx context.Context, album *model.Album) error

	// UpdateCoverPath stores the object key of an uploaded cover.
	UpdateCoverPath(ctx context.Context, id uint64, coverPath string) error

	// DeleteAlbum 删除专辑
	DeleteAlbum(ctx context.Context, id uint64) error

	// DeleteAll removes every album and returns how many rows went away.
	DeleteAll(ctx context.Context) (int64, error)
}

// GormAlbumRepository GORM 实现的专辑仓库
type GormAlbumRepository struct {
	db *gorm.DB
}

// NewGormAlbumRepository 创建新的专辑仓库实例
func NewGormAlbumRepository(db *gorm.DB) *GormAlbumRepository {
	return &GormAlbumRepository{db: db}
}

// CreateAlbum 创建新专辑
func (r *GormAlbumRepository) CreateAlbum(ctx context.Context, album *model.Album) error {
	if err := r.db.WithContext(ctx).Create(album).Error; err != nil {
		return fmt.Errorf("failed to create album %q: %w", album.Title, err)
	}
	return nil
}

// GetAlbumByID 根据ID获取专辑信息
func (r *GormAlbumRepository) GetAlbumByID(ctx context.Context, id uint64) (*model.Album, error) {
	album := &model.Album{}
	err := r.db.WithContext(ctx).First(album, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get album %d: %w", id, err)
	}
	return album, nil
}

// ListAlbums 获取全部专辑
func (r *GormAlbumRepository) ListAlbums(ctx context.Context) ([]model.Album, error) {
	albums := make([]model.Album, 0)
	if err := r.db.WithContext(ctx).Order("id").Find(&albums).Error; err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	return albums, nil
}

// SearchAlbums narrows rows with LIKE, whose case rules depend on the database collation,
// then applies the exact substring filter in Go.
func (r *GormAlbumRepository) SearchAlbums(ctx context.Context, query string) ([]model.Album, error) {
	if query == "" {
		return r.ListAlbums(ctx)
	}

	albums := make([]model.Album, 0)
	pattern := "%" + escapeLike(query) + "%"
	err := r.db.WithContext(ctx).
		Where("title LIKE ? ESCAPE '!'", pattern).
		Order("id").
		Find(&albums).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search albums for %q: %w", query, err)
	}
	return catalog.Filter(albums, query), nil
}

// UpdateAlbum 更新专辑信息, every column except created_at.
func (r *GormAlbumRepository) UpdateAlbum(ctx context.Context, album *model.Album) error {
	result := r.db.WithContext(ctx).
		Model(album).
		Select("*").
		Omit("id", "created_at").
		Updates(album)
	if result.Error != nil {
		return fmt.Errorf("failed to update album %d: %w", album.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlbumNotFound
	}
	return nil
}

// UpdateCoverPath 更新专辑封面，不触发校验钩子
func (r *GormAlbumRepository) UpdateCoverPath(ctx context.Context, id uint64, coverPath string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Album{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"cover_path": coverPath,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update cover of album %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlbumNotFound
	}
	return nil
}

// DeleteAlbum 删除专辑
func (r *GormAlbumRepository) DeleteAlbum(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Delete(&model.Album{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete album %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlbumNotFound
	}
	return nil
}

// DeleteAll 清空专辑表
func (r *GormAlbumRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.Album{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete all albums: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// '!' escapes LIKE wildcards; a backslash literal is not portable to MySQL.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

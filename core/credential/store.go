// Package credential validates and persists users and albums and authenticates users.
package credential

import (
	"context"
	"errors"
	"fmt"

	"VinylShop/db"
	"VinylShop/logger"
	"VinylShop/model"
	"VinylShop/repository"
)

// EntityKind names a table DeleteAll can clear.
type EntityKind string

const (
	EntityAlbum EntityKind = "album"
	EntityUser  EntityKind = "user"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnknownEntity      = errors.New("unknown entity kind")
	ErrMissingID          = errors.New("record has no id")
	ErrNotReady           = errors.New("store not ready")
)

// Store is the CredentialStore: every write goes through model validation and waits for the
// database handle to be ready.
type Store struct {
	db     *db.Store
	users  repository.UserRepository
	albums repository.AlbumRepository
}

// New wires a Store from explicit repositories.
func New(store *db.Store, users repository.UserRepository, albums repository.AlbumRepository) *Store {
	return &Store{db: store, users: users, albums: albums}
}

// NewGorm wires a Store with the GORM repositories of store.
func NewGorm(store *db.Store) *Store {
	return New(store,
		repository.NewGormUserRepository(store.DB),
		repository.NewGormAlbumRepository(store.DB),
	)
}

// Ping fails with ErrNotReady until the schema is synced, then checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	select {
	case <-s.db.Ready():
	default:
		return ErrNotReady
	}
	if err := s.db.ReadyErr(); err != nil {
		return err
	}
	return s.db.Ping(ctx)
}

// WaitReady blocks until the schema is synced or ctx is done. Read paths call it before
// going to the repositories directly.
func (s *Store) WaitReady(ctx context.Context) error {
	return s.db.WaitReady(ctx)
}

// Users exposes the user repository for read paths.
func (s *Store) Users() repository.UserRepository { return s.users }

// Albums exposes the album repository for read paths.
func (s *Store) Albums() repository.AlbumRepository { return s.albums }

// CreateUser validates u, hashes its password and persists it.
// Validation failures are returned as *model.ValidationError before the database is touched.
func (s *Store) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.db.WaitReady(ctx); err != nil {
		return nil, fmt.Errorf("store not ready: %w", err)
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	logger.Info("[Credential] 用户已创建", logger.Uint64("userId", u.ID), logger.String("email", u.Email))
	return u, nil
}

// UpdateUser validates and saves u; a non-empty u.Password replaces the stored hash.
func (s *Store) UpdateUser(ctx context.Context, u *model.User) (*model.User, error) {
	if u.ID == 0 {
		return nil, ErrMissingID
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.db.WaitReady(ctx); err != nil {
		return nil, fmt.Errorf("store not ready: %w", err)
	}
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate reports whether plaintext matches the user's stored hash.
// A mismatch is (false, nil); only a record without a hash is an error.
func (s *Store) Authenticate(u *model.User, plaintext string) (bool, error) {
	if u == nil {
		return false, errors.New("authenticate: nil user")
	}
	return u.Authenticate(plaintext)
}

// Login looks the user up by email and checks the password.
func (s *Store) Login(ctx context.Context, email, password string) (*model.User, error) {
	if err := s.db.WaitReady(ctx); err != nil {
		return nil, fmt.Errorf("store not ready: %w", err)
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.Authenticate(u, password)
	if err != nil {
		logger.Warn("[Credential] 用户没有密码哈希", logger.Uint64("userId", u.ID), logger.ErrorField(err))
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// CreateAlbum applies the artist default, validates and persists a.
func (s *Store) CreateAlbum(ctx context.Context, a *model.Album) (*model.Album, error) {
	a.ApplyDefaults()
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.db.WaitReady(ctx); err != nil {
		return nil, fmt.Errorf("store not ready: %w", err)
	}
	if err := s.albums.CreateAlbum(ctx, a); err != nil {
		return nil, err
	}

	logger.Info("[Credential] 专辑已创建", logger.Uint64("albumId", a.ID), logger.String("title", a.Title))
	return a, nil
}

// UpdateAlbum validates and saves a.
func (s *Store) UpdateAlbum(ctx context.Context, a *model.Album) (*model.Album, error) {
	if a.ID == 0 {
		return nil, ErrMissingID
	}
	a.ApplyDefaults()
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.db.WaitReady(ctx); err != nil {
		return nil, fmt.Errorf("store not ready: %w", err)
	}
	if err := s.albums.UpdateAlbum(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAll removes every record of kind. cascade would also clear dependent records,
// but neither users nor albums have dependents yet.
func (s *Store) DeleteAll(ctx context.Context, kind EntityKind, cascade bool) error {
	if err := s.db.WaitReady(ctx); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}

	var (
		n   int64
		err error
	)
	switch kind {
	case EntityAlbum:
		n, err = s.albums.DeleteAll(ctx)
	case EntityUser:
		n, err = s.users.DeleteAll(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEntity, kind)
	}
	if err != nil {
		return err
	}

	logger.Info("[Credential] 已清空数据",
		logger.String("kind", string(kind)),
		logger.Bool("cascade", cascade),
		logger.Int64("rows", n))
	return nil
}

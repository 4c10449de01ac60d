package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shestoi/GoBigTech/cart/internal/repository"
)

// Repository реализует SnapshotRepository поверх файла на диске
// Аналог localStorage витрины: один файл - один слот корзины
type Repository struct {
	path string
}

// NewRepository создаёт файловый репозиторий
// Каталог для файла создаётся при первой записи
func NewRepository(path string) *Repository {
	return &Repository{path: path}
}

// Load читает снимок из файла
// Возвращает ErrNotFound, если файла ещё нет
func (r *Repository) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	return data, nil
}

// Save записывает снимок во временный файл и атомарно переименовывает его
// Читатель видит либо старый снимок, либо новый, но не половину записи
func (r *Repository) Save(ctx context.Context, snapshot []byte) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // после успешного Rename файла уже нет

	if _, err := tmp.Write(snapshot); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}

// Ping проверяет, что каталог снимка доступен
func (r *Repository) Ping(ctx context.Context) error {
	info, err := os.Stat(filepath.Dir(r.path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // каталог будет создан при первой записи
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(r.path))
	}
	return nil
}

package memory

import (
	"context"
	"sync"

	"github.com/shestoi/GoBigTech/cart/internal/repository"
)

// MemoryRepository реализует SnapshotRepository используя in-memory хранилище
// Снимок живёт только до перезапуска процесса
// Используется для разработки и тестирования
type MemoryRepository struct {
	mu       sync.RWMutex
	snapshot []byte
	saves    int
}

// NewMemoryRepository создаёт новый in-memory репозиторий
// Если initial == nil, снимок считается отсутствующим
func NewMemoryRepository(initial []byte) *MemoryRepository {
	r := &MemoryRepository{}
	if initial != nil {
		r.snapshot = append([]byte(nil), initial...)
	}
	return r
}

// Load возвращает копию сохранённого снимка
// Защищён мьютексом для безопасного доступа из разных горутин
func (r *MemoryRepository) Load(ctx context.Context) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.snapshot == nil {
		return nil, repository.ErrNotFound
	}

	return append([]byte(nil), r.snapshot...), nil
}

// Save заменяет снимок целиком
func (r *MemoryRepository) Save(ctx context.Context, snapshot []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snapshot = append([]byte{}, snapshot...)
	r.saves++
	return nil
}

// Saves возвращает количество выполненных записей
func (r *MemoryRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}

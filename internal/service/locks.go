package service

import "sync"

// productLocks сериализует операции над одним товаром
// Запись удаляется, когда её больше никто не держит и не ждёт
type productLocks struct {
	mu    sync.Mutex
	locks map[int64]*productLock
}

type productLock struct {
	mu   sync.Mutex
	refs int
}

func newProductLocks() *productLocks {
	return &productLocks{locks: make(map[int64]*productLock)}
}

// lock захватывает блокировку товара и возвращает функцию освобождения
func (l *productLocks) lock(productID int64) func() {
	l.mu.Lock()
	pl, ok := l.locks[productID]
	if !ok {
		pl = &productLock{}
		l.locks[productID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()

	return func() {
		pl.mu.Unlock()

		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, productID)
		}
		l.mu.Unlock()
	}
}

// size возвращает количество активных записей (для тестов)
func (l *productLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

package ledger

import "sync"

// userLocks выдаёт мьютекс на каждого пользователя — точка сериализации
// для find-or-create, раз у хранилища нет ограничения уникальности.
type userLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{m: make(map[string]*sync.Mutex)}
}

func (u *userLocks) forUser(userID string) *sync.Mutex {
	u.mu.Lock()
	defer u.mu.Unlock()
	if mu, ok := u.m[userID]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	u.m[userID] = mu
	return mu
}

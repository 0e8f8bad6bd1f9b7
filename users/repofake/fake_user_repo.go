package fakeuserrepo

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/cleanflow/go-client-session/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users       map[string]*users.User
	emailIds    map[string]string // email to user id
	usernameIds map[string]string // username to user id
	cpfIds      map[string]string // cpf to user id
	lock        sync.RWMutex
}

func NewFakeUserRepo() users.Repo {
	return &FakeUserRepo{
		users:       make(map[string]*users.User),
		emailIds:    make(map[string]string),
		usernameIds: make(map[string]string),
		cpfIds:      make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	ur.users[user.ID] = user
	ur.emailIds[user.Email] = user.ID
	if user.Username != "" {
		ur.usernameIds[user.Username] = user.ID
	}
	if user.CPF != "" {
		ur.cpfIds[user.CPF] = user.ID
	}
	return nil
}

func (ur *FakeUserRepo) Delete(email string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	userID, ok := ur.emailIds[email]
	if !ok {
		return errors.New("not found")
	}
	delete(ur.emailIds, email)

	user, ok := ur.users[userID]
	if !ok {
		return nil
	}

	delete(ur.usernameIds, user.Username)
	delete(ur.cpfIds, user.CPF)
	delete(ur.users, userID)
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if _, ok := ur.emailIds[email]; !ok {
		return nil, errors.New("not found")
	}
	return ur.users[ur.emailIds[email]], nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if _, ok := ur.users[id]; !ok {
		return nil, errors.New("not found")
	}
	return ur.users[id], nil
}

func (ur *FakeUserRepo) GetByUsername(username string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if _, ok := ur.usernameIds[username]; !ok {
		return nil, errors.New("not found")
	}
	return ur.users[ur.usernameIds[username]], nil
}

func (ur *FakeUserRepo) GetByCPF(cpf string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if _, ok := ur.cpfIds[cpf]; !ok {
		return nil, errors.New("not found")
	}
	return ur.users[ur.cpfIds[cpf]], nil
}

func (ur *FakeUserRepo) SetActive(email string, active bool) error {
	user, err := ur.GetByEmail(email)
	if err != nil {
		return err
	}
	ur.lock.Lock()
	defer ur.lock.Unlock()
	user.Active = active
	return nil
}

package fileutils

import (
	"encoding/json"
	"errors"

	"github.com/mrnavastar/mclaunch/util"
	"github.com/zalando/go-keyring"
)

var ErrNoAccount = errors.New("no saved account")

// AccountStore keeps the signed-in account in the system keyring.
type AccountStore struct {
	Service string
	User    string
}

func NewAccountStore() *AccountStore {
	return &AccountStore{Service: "mclaunch", User: "account"}
}

func (s *AccountStore) Save(session util.AuthSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return keyring.Set(s.Service, s.User, string(data))
}

func (s *AccountStore) Load() (util.AuthSession, error) {
	data, err := keyring.Get(s.Service, s.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return util.AuthSession{}, ErrNoAccount
	}
	if err != nil {
		return util.AuthSession{}, err
	}

	var session util.AuthSession
	if err1 := json.Unmarshal([]byte(data), &session); err1 != nil {
		return util.AuthSession{}, err1
	}
	return session, nil
}

// Clear forgets the saved account. Clearing an empty store is not an error.
func (s *AccountStore) Clear() error {
	err := keyring.Delete(s.Service, s.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

package users

type Repo interface {
	Upsert(user *User) error
	Delete(email string) error
	GetByEmail(email string) (*User, error)
	GetByID(ID string) (*User, error)
	GetByUsername(username string) (*User, error)
	GetByCPF(cpf string) (*User, error)
	SetActive(email string, active bool) error
}

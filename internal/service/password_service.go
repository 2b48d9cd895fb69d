package service

type PasswordService interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

package utils

import "golang.org/x/crypto/bcrypt"

// PasswordCost is the bcrypt work factor used for new hashes. Tests lower it.
var PasswordCost = bcrypt.DefaultCost

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	return string(bytes), err
}

// CheckPasswordHash compares a plain password with a stored hash. The salt is
// read from the hash itself.
func CheckPasswordHash(password, hashedPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

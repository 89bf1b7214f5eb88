package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength 与注册接口的 binding 规则保持一致
	MinPasswordLength = 8
	// bcrypt 只处理前 72 字节
	maxPasswordBytes = 72

	defaultBcryptCost = bcrypt.DefaultCost
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d bytes", maxPasswordBytes)
	ErrPasswordMismatch = errors.New("password does not match")
)

// NormalizePassword 去掉首尾空白。注册、登录和管理员种子都要经过这里，
// 否则带空格的环境变量会生成一个永远登录不上的哈希。
func NormalizePassword(password string) string {
	return strings.TrimSpace(password)
}

// HashPassword 校验并哈希明文密码
func HashPassword(password string) (string, error) {
	password = NormalizePassword(password)
	if len([]rune(password)) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), defaultBcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword 验证候选密码，不匹配时返回 ErrPasswordMismatch
func VerifyPassword(hash, candidate string) error {
	if strings.TrimSpace(hash) == "" {
		return errors.New("stored password hash is empty")
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(NormalizePassword(candidate)))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

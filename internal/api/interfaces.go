package api

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/evercare/companion/pkg/entity"
)

type JWTServiceI interface {
	GenerateToken(account *entity.Account) (string, error)
	ParseToken(tokenString string) (*JWTClaims, error)
}

type JWTClaims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
	Phone     string `json:"phone"`
}

package jwttoken

import (
	id "classreg/pkg/domain"
	dErrors "classreg/pkg/domain-errors"
	authmw "classreg/pkg/platform/middleware/auth"
)

// JWTServiceAdapter lets the auth middleware validate tokens without
// importing this package.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	account, err := id.ParseAccountID(claims.Subject)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	return &authmw.JWTClaims{
		Account: account,
		JTI:     claims.ID,
	}, nil
}

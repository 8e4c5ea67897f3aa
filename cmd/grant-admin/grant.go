package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/myrewards/loyalty-system/internal/core/ports"
)

const grantedBy = "grant-admin"

func grant(ctx context.Context, credentials ports.CredentialRepository, claims ports.ClaimRepository, email string, admin bool) error {
	cred, err := credentials.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	if err := claims.SetAdmin(ctx, cred.UserID, admin, grantedBy); err != nil {
		return fmt.Errorf("set admin claim: %w", err)
	}
	return nil
}

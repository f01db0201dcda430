package planning

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/piquetdestream/piquet/internal/stream"
)

// RegisterUser creates or replaces a user. Only admins may do so, except for
// the very first user which bootstraps an empty store.
func (e *Engine) RegisterUser(ctx context.Context, p stream.Principal, u *stream.User) error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("%w: user id cannot be empty", stream.ErrValidation)
	}

	users, err := e.repo.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	if len(users) > 0 && !p.Has(stream.RoleAdmin) {
		return fmt.Errorf("%w: admin role required", stream.ErrPermissionDenied)
	}

	if err := e.repo.SaveUser(ctx, u); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}

	e.logger.Info("user registered",
		zap.String("user_id", u.ID),
		zap.Strings("roles", roleNames(u.Roles)),
		zap.String("actor", p.UserID),
	)
	return nil
}

// SetUserRoles replaces a user's roles. Admin only.
func (e *Engine) SetUserRoles(ctx context.Context, p stream.Principal, id string, roles []stream.Role) (*stream.User, error) {
	if !p.Has(stream.RoleAdmin) {
		return nil, fmt.Errorf("%w: admin role required", stream.ErrPermissionDenied)
	}

	u, err := e.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", id, stream.ErrNotFound)
	}
	u.Roles = roles
	if err := e.repo.SaveUser(ctx, u); err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}

	e.logger.Info("user roles set",
		zap.String("user_id", id),
		zap.Strings("roles", roleNames(roles)),
		zap.String("actor", p.UserID),
	)
	return u, nil
}

// ListUsers returns every known user.
func (e *Engine) ListUsers(ctx context.Context, p stream.Principal) ([]*stream.User, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	users, err := e.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Principal resolves the principal acting as userID using the roles stored
// for that user. Unknown users resolve to ErrNotFound.
func (e *Engine) Principal(ctx context.Context, userID string) (stream.Principal, error) {
	if userID == "" {
		return stream.Principal{}, nil
	}
	u, err := e.repo.GetUser(ctx, userID)
	if err != nil {
		return stream.Principal{}, fmt.Errorf("getting user: %w", err)
	}
	if u == nil {
		return stream.Principal{}, fmt.Errorf("user %s: %w", userID, stream.ErrNotFound)
	}
	return stream.Principal{UserID: u.ID, Roles: u.Roles}, nil
}

func roleNames(roles []stream.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

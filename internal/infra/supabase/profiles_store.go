package supabase

import (
	"context"
	"fmt"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
)

func (c *Client) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProfile")
	defer span.End()

	path := fmt.Sprintf("profiles?id=%s&limit=1", eq(userID))
	var rows []domain.Profile
	if err := c.getRows(ctx, "profiles", path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: userID}
	}
	return &rows[0], nil
}

package content

import (
	"context"
)

// getUserQuota reports the caller's current usage and limit. Anonymous
// callers get a zero-usage report rather than an error so clients can render
// the quota widget before sign-in.
func (s *Service) getUserQuota(ctx context.Context, req Request) (any, error) {
	if _, err := decodePayload[emptyPayload](req.Payload); err != nil {
		return nil, err
	}
	return s.quota.Status(ctx, req.UserID)
}

package sync

import "context"

// PushPayments is a named job but performs no remote work yet; payment
// status is derived by the invoice pull. Kept as an extension point.
func (s *Service) PushPayments(ctx context.Context) (PushResult, error) {
	h, err := s.log.Start(ctx, TypePushPayments)
	if err != nil {
		return PushResult{}, err
	}
	if err := s.log.Complete(ctx, h, 0); err != nil {
		return PushResult{}, err
	}
	return PushResult{}, nil
}

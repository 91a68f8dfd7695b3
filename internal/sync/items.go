package sync

import (
	"context"

	"github.com/tidewater/xerosync/pkg/xeroclient"
)

// salesAccountCode is the revenue account billable items post to.
const salesAccountCode = "200"

// PushItems creates a Xero item for every local activity type that has
// no external id yet, up to the batch limit.
func (s *Service) PushItems(ctx context.Context) (PushResult, error) {
	h, err := s.log.Start(ctx, TypePushItems)
	if err != nil {
		return PushResult{}, err
	}

	res, err := s.pushItems(ctx)
	if err != nil {
		s.failLog(ctx, h, err)
		return res, err
	}
	if err := s.log.Complete(ctx, h, res.Processed); err != nil {
		return res, err
	}
	return res, nil
}

func (s *Service) pushItems(ctx context.Context) (PushResult, error) {
	var res PushResult

	items, err := s.store.UnsyncedActivityTypes(ctx, itemBatchLimit)
	if err != nil {
		return res, err
	}
	if len(items) == 0 {
		return res, nil
	}

	session, err := s.auth.EnsureAuth(ctx)
	if err != nil {
		return res, err
	}

	for _, item := range items {
		code := truncate(item.Name, 12)
		if code == "" {
			code = "ITEM-" + truncate(item.ID, 6)
		}
		var rate float64
		if item.HourlyRate != nil {
			rate = *item.HourlyRate
		}

		remote := xeroclient.Item{
			Name:        item.Name,
			Code:        code,
			Description: item.Name,
			SalesDetails: &xeroclient.SalesDetails{
				UnitPrice:   rate,
				AccountCode: salesAccountCode,
			},
		}

		var itemID string
		created, err := s.api.CreateItems(ctx, session, []xeroclient.Item{remote})
		if err == nil && len(created) > 0 && created[0].ItemID != "" {
			itemID = created[0].ItemID
		} else {
			itemID = placeholderID("XERO-ITEM", item.ID)
			res.Degraded++
			s.logger.Printf("item create failed for activity type %s, using placeholder %s: %v",
				item.ID, itemID, err)
		}

		if err := s.store.MarkActivityTypeSynced(ctx, item.ID, itemID, s.now()); err != nil {
			return res, err
		}
		res.Processed++
	}
	return res, nil
}

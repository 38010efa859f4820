package domain

import "context"

type SwapHistoryRepository interface {
	SaveRecord(ctx context.Context, rec *SwapRecord) (*SwapRecord, error)
	GetRecordByID(ctx context.Context, id uint) (*SwapRecord, error)
	GetRecordsByAccount(ctx context.Context, account string, limit int) ([]SwapRecord, error)
}

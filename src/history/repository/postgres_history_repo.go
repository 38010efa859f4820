package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spreadfi/spread/src/history/domain"
	"github.com/spreadfi/spread/src/logger"
	"gorm.io/gorm"
)

var _ domain.SwapHistoryRepository = (*SwapHistoryRepo)(nil)

type SwapRecord struct {
	gorm.Model

	Status       string          `json:"status" gorm:"index"`
	Account      string          `json:"account" gorm:"index"`
	FromNetwork  string          `json:"from_network"`
	ToNetwork    string          `json:"to_network"`
	FromToken    string          `json:"from_token"`
	ToToken      string          `json:"to_token"`
	AmountIn     decimal.Decimal `json:"amount_in"`
	AmountOut    decimal.Decimal `json:"amount_out"`
	Strategy     string          `json:"strategy"`
	TxHash       string          `json:"tx_hash"`
	BridgeTxHash string          `json:"bridge_tx_hash"`
	Attempts     int             `json:"attempts"`
	FailReason   string          `json:"fail_reason"`
}

type SwapHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSwapHistoryRepo(db *gorm.DB, log *logger.Logger) *SwapHistoryRepo {
	if err := db.AutoMigrate(&SwapRecord{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	return &SwapHistoryRepo{db: db, log: log}
}

func (r *SwapHistoryRepo) SaveRecord(ctx context.Context, rec *domain.SwapRecord) (*domain.SwapRecord, error) {
	model := SwapRecord{
		Status:       string(rec.Status),
		Account:      rec.Account,
		FromNetwork:  rec.FromNetwork,
		ToNetwork:    rec.ToNetwork,
		FromToken:    rec.FromToken,
		ToToken:      rec.ToToken,
		AmountIn:     rec.AmountIn,
		AmountOut:    rec.AmountOut,
		Strategy:     rec.Strategy,
		TxHash:       rec.TxHash,
		BridgeTxHash: rec.BridgeTxHash,
		Attempts:     rec.Attempts,
		FailReason:   rec.FailReason,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	return r.GetRecordByID(ctx, model.ID)
}

func (r *SwapHistoryRepo) GetRecordByID(ctx context.Context, id uint) (*domain.SwapRecord, error) {
	var m SwapRecord
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomainRecord(&m), nil
}

func (r *SwapHistoryRepo) GetRecordsByAccount(ctx context.Context, account string, limit int) ([]domain.SwapRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var models []SwapRecord
	if err := r.db.WithContext(ctx).
		Where("account = ?", account).
		Order("created_at desc").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	recs := make([]domain.SwapRecord, 0, len(models))
	for i := range models {
		recs = append(recs, *r.toDomainRecord(&models[i]))
	}
	return recs, nil
}

func (r *SwapHistoryRepo) toDomainRecord(m *SwapRecord) *domain.SwapRecord {
	return &domain.SwapRecord{
		ID:           m.ID,
		CreatedAt:    m.CreatedAt,
		Status:       domain.SwapStatus(m.Status),
		Account:      m.Account,
		FromNetwork:  m.FromNetwork,
		ToNetwork:    m.ToNetwork,
		FromToken:    m.FromToken,
		ToToken:      m.ToToken,
		AmountIn:     m.AmountIn,
		AmountOut:    m.AmountOut,
		Strategy:     m.Strategy,
		TxHash:       m.TxHash,
		BridgeTxHash: m.BridgeTxHash,
		Attempts:     m.Attempts,
		FailReason:   m.FailReason,
	}
}

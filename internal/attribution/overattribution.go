package attribution

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// overAttributionTolerance allows platforms a 10% margin over actual sales
// before they are flagged, absorbing ordinary counting artifacts.
const overAttributionTolerance = 1.1

// OverAttributionReport compares platform-claimed conversions against
// settled transactions.
type OverAttributionReport struct {
	IsOverAttributed bool    `json:"is_over_attributed"`
	ActualSales      int     `json:"actual_sales"`
	PlatformClaimed  float64 `json:"platform_claimed"`
	Discrepancy      float64 `json:"discrepancy"`
}

// OverAttributionDetector checks whether ad platforms claim more
// conversions than the settled transactions can support. Failures are soft:
// the zero report is returned and attribution continues.
type OverAttributionDetector struct {
	txns  repository.TransactionSource
	spend repository.SpendFeed
	log   *zap.Logger
}

// NewOverAttributionDetector creates a new over-attribution detector
func NewOverAttributionDetector(txns repository.TransactionSource, spend repository.SpendFeed, log *zap.Logger) *OverAttributionDetector {
	return &OverAttributionDetector{
		txns:  txns,
		spend: spend,
		log:   log,
	}
}

// Detect counts settled transactions in [from, to] and sums the conversions
// platforms claim over the same range, including purchase-type actions in
// nested action arrays.
func (d *OverAttributionDetector) Detect(ctx context.Context, userID string, from, to time.Time) OverAttributionReport {
	transactions, err := d.txns.ListTransactions(ctx, userID, domain.SettledKinds, from, to)
	if err != nil {
		d.log.Warn("Over-attribution check failed, continuing without signal",
			zap.String("user_id", userID),
			zap.Error(err))
		return OverAttributionReport{}
	}

	records, err := d.spend.ListSpendRecords(ctx, userID, from, to)
	if err != nil {
		d.log.Warn("Spend feed unavailable, continuing without signal",
			zap.String("user_id", userID),
			zap.Error(err))
		return OverAttributionReport{}
	}

	actual := len(transactions)

	claimed := 0.0
	for _, rec := range records {
		claimed += rec.Conversions
		for _, action := range rec.Actions {
			if isPurchaseAction(action.ActionType) {
				claimed += action.Value
			}
		}
	}

	return OverAttributionReport{
		IsOverAttributed: claimed > float64(actual)*overAttributionTolerance,
		ActualSales:      actual,
		PlatformClaimed:  claimed,
		Discrepancy:      claimed - float64(actual),
	}
}

func isPurchaseAction(actionType string) bool {
	normalized := strings.ToLower(actionType)
	return normalized == "purchase" ||
		normalized == "omni_purchase" ||
		strings.HasSuffix(normalized, "_purchase") ||
		strings.Contains(normalized, "offsite_conversion")
}

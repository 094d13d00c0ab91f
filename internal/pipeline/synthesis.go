package pipeline

import (
	"fmt"

	"github.com/neural-roots/freshline/internal/model"
)

// preservationBonus credits the selected transport tier back against the
// expected weather loss.
var preservationBonus = map[model.DeliveryMode]float64{
	model.ModeStandard:     0,
	model.ModeRefrigerated: 3,
	model.ModeColdChain:    5,
}

// Synthesize folds the four stage outputs into a final assessment with
// prioritized action items.
func Synthesize(freshness model.FreshnessResult, market model.MarketResult, logistics model.LogisticsResult, weather model.WeatherResult) model.SynthesisResult {
	bonus := preservationBonus[logistics.Mode]
	final := clamp(freshness.Score-weather.EstimatedLoss+bonus, 0, 100)

	return model.SynthesisResult{
		FinalScore:        round2(final),
		FinalLevel:        model.LevelForScore(final),
		BaseScore:         freshness.Score,
		WeatherLoss:       weather.EstimatedLoss,
		PreservationBonus: bonus,
		ActionItems:       actionItems(market, logistics, weather),
		Recommendations:   mergeNotes(freshness.Notes, market.Notes, logistics.Notes, weather.Notes),
	}
}

// actionItems derives operator actions from the stage outputs. Rule order is
// fixed so the list is stable for identical inputs: weather escalations first,
// then transport gaps, then pricing extremes, then routine confirmations.
func actionItems(market model.MarketResult, logistics model.LogisticsResult, weather model.WeatherResult) []model.ActionItem {
	var items []model.ActionItem

	switch weather.RiskLevel {
	case model.RiskCritical:
		items = append(items, model.ActionItem{
			Priority: "urgent",
			Action:   "reschedule_or_protect",
			Detail:   "Critical weather risk on route; delay shipment or apply maximum preservation",
		})
	case model.RiskHigh:
		items = append(items, model.ActionItem{
			Priority: "urgent",
			Action:   "upgrade_protection",
			Detail:   "High weather risk; use insulated or refrigerated transport",
		})
	}

	if !logistics.Feasible {
		items = append(items, model.ActionItem{
			Priority: "high",
			Action:   "arrange_transport",
			Detail:   fmt.Sprintf("No eligible carrier found for %s delivery; source transport manually", logistics.Mode),
		})
	}

	switch market.Strategy {
	case StrategyPremium:
		items = append(items, model.ActionItem{
			Priority: "high",
			Action:   "capture_premium",
			Detail:   fmt.Sprintf("Conditions support premium pricing at %.2f per kg; list promptly", market.RecommendedPrice),
		})
	case StrategyClearance:
		items = append(items, model.ActionItem{
			Priority: "high",
			Action:   "clear_stock",
			Detail:   fmt.Sprintf("Clearance pricing at %.2f per kg; move stock before further decline", market.RecommendedPrice),
		})
	}

	if logistics.Feasible {
		items = append(items, model.ActionItem{
			Priority: "normal",
			Action:   "confirm_delivery",
			Detail:   fmt.Sprintf("Confirm %s delivery, estimated %.1fh and cost %.2f", logistics.Mode, logistics.EstimatedHours, logistics.EstimatedCost),
		})
	}
	items = append(items, model.ActionItem{
		Priority: "normal",
		Action:   "set_market_price",
		Detail:   fmt.Sprintf("Set listing price to %.2f per kg (%s)", market.RecommendedPrice, market.Strategy),
	})

	return items
}

// mergeNotes concatenates the note lists, dropping duplicates while keeping
// first-occurrence order.
func mergeNotes(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, note := range list {
			if _, ok := seen[note]; ok {
				continue
			}
			seen[note] = struct{}{}
			out = append(out, note)
		}
	}
	return out
}

package formulas

import "math"

// SharpeFromPrices calculates an annualized Sharpe ratio directly from a
// price series, assuming daily data.
//
// Sharpe Ratio Formula:
//
//	Sharpe = (Annualized Return - Risk-free Rate) / Annualized Volatility
//
// Args:
//
//	prices: Array of prices (daily, adjusted close)
//	riskFreeRate: Annual risk-free rate in percent (e.g. 2.0 for 2%)
//
// Returns:
//
//	Sharpe ratio, or 0 if there is insufficient data or zero volatility.
func SharpeFromPrices(prices []float64, riskFreeRate float64) float64 {
	if len(prices) < 2 || prices[0] == 0 {
		return 0
	}

	returns := DailyReturns(prices)
	volatility := AnnualizedVolatility(returns) * 100
	if volatility == 0 {
		return 0
	}

	years := float64(len(returns)) / TradingDaysPerYear
	if years == 0 {
		return 0
	}

	totalGrowth := prices[len(prices)-1] / prices[0]
	if totalGrowth <= 0 {
		return 0
	}

	annualized := (math.Pow(totalGrowth, 1/years) - 1) * 100
	return Sanitize((annualized - riskFreeRate) / volatility)
}

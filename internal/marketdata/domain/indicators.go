package domain

import (
	"fmt"
	"math"
	"time"
)

// IndicatorType 技术指标类型
type IndicatorType string

const (
	IndicatorSMA        IndicatorType = "sma"
	IndicatorEMA        IndicatorType = "ema"
	IndicatorRSI        IndicatorType = "rsi"
	IndicatorMACD       IndicatorType = "macd"
	IndicatorBollinger  IndicatorType = "bollinger"
	IndicatorStochastic IndicatorType = "stochastic"
	IndicatorVolatility IndicatorType = "volatility"
)

// ParseIndicatorType 解析指标类型
func ParseIndicatorType(s string) (IndicatorType, error) {
	switch IndicatorType(s) {
	case IndicatorSMA, IndicatorEMA, IndicatorRSI, IndicatorMACD,
		IndicatorBollinger, IndicatorStochastic, IndicatorVolatility:
		return IndicatorType(s), nil
	default:
		return "", ErrInvalidIndicator
	}
}

// IndicatorSeries 指标计算结果，timestamps 与 values 尾部对齐
type IndicatorSeries struct {
	Name       string      `json:"name"`
	Values     []float64   `json:"values"`
	Timestamps []time.Time `json:"timestamps"`
}

// MACDResult MACD 三线结果
type MACDResult struct {
	MACD      []float64 `json:"macd"`
	Signal    []float64 `json:"signal"`
	Histogram []float64 `json:"histogram"`
}

// BollingerResult 布林带三线结果
type BollingerResult struct {
	Upper  []float64 `json:"upper"`
	Middle []float64 `json:"middle"`
	Lower  []float64 `json:"lower"`
}

// StochasticResult 随机指标 %K/%D 结果
type StochasticResult struct {
	K []float64 `json:"k"`
	D []float64 `json:"d"`
}

// SMA 简单移动平均，结果长度为 len(values)-period+1
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	sma := make([]float64, 0, len(values)-period+1)
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-period+1 : i+1] {
			sum += v
		}
		sma = append(sma, sum/float64(period))
	}
	return sma
}

// EMA 指数移动平均，首个值以前 period 个数据的 SMA 作为种子
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	multiplier := 2.0 / float64(period+1)

	sum := 0.0
	for _, v := range values[:period] {
		sum += v
	}

	ema := make([]float64, 0, len(values)-period+1)
	ema = append(ema, sum/float64(period))

	for i := period; i < len(values); i++ {
		prev := ema[len(ema)-1]
		ema = append(ema, (values[i]-prev)*multiplier+prev)
	}
	return ema
}

// RSI 相对强弱指数，Wilder 平滑，平均跌幅为零时取 100
func RSI(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period+1 {
		return nil
	}

	gains := make([]float64, 0, len(prices)-1)
	losses := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	rsi := make([]float64, 0, len(gains)-period+1)
	rsi = append(rsi, rsiValue(avgGain, avgLoss))

	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		rsi = append(rsi, rsiValue(avgGain, avgLoss))
	}
	return rsi
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD 指数平滑异同平均线，快慢线 EMA 尾部对齐后作差
func MACD(prices []float64, fastPeriod, slowPeriod, signalPeriod int) MACDResult {
	fastEMA := EMA(prices, fastPeriod)
	slowEMA := EMA(prices, slowPeriod)

	if len(fastEMA) == 0 || len(slowEMA) == 0 {
		return MACDResult{}
	}

	startIndex := slowPeriod - fastPeriod
	macd := make([]float64, 0, len(slowEMA))
	for i := 0; i < len(slowEMA); i++ {
		macd = append(macd, fastEMA[i+startIndex]-slowEMA[i])
	}

	signal := EMA(macd, signalPeriod)

	histogram := make([]float64, 0, len(signal))
	signalStart := len(macd) - len(signal)
	for i := 0; i < len(signal); i++ {
		histogram = append(histogram, macd[i+signalStart]-signal[i])
	}

	return MACDResult{MACD: macd, Signal: signal, Histogram: histogram}
}

// Bollinger 布林带，中轨为 SMA，上下轨为中轨加减 k 倍标准差
func Bollinger(prices []float64, period int, stdDevs float64) BollingerResult {
	middle := SMA(prices, period)
	if len(middle) == 0 {
		return BollingerResult{}
	}

	upper := make([]float64, 0, len(middle))
	lower := make([]float64, 0, len(middle))
	for i := period - 1; i < len(prices); i++ {
		mean := middle[i-period+1]
		variance := 0.0
		for _, p := range prices[i-period+1 : i+1] {
			variance += (p - mean) * (p - mean)
		}
		stdDev := math.Sqrt(variance / float64(period))
		upper = append(upper, mean+stdDevs*stdDev)
		lower = append(lower, mean-stdDevs*stdDev)
	}

	return BollingerResult{Upper: upper, Middle: middle, Lower: lower}
}

// Stochastic 随机指标，窗口内最高价等于最低价时 %K 取 50
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) StochasticResult {
	if kPeriod <= 0 || len(highs) < kPeriod || len(lows) < kPeriod || len(closes) < kPeriod {
		return StochasticResult{}
	}

	k := make([]float64, 0, len(closes)-kPeriod+1)
	for i := kPeriod - 1; i < len(closes); i++ {
		highestHigh := highs[i-kPeriod+1]
		lowestLow := lows[i-kPeriod+1]
		for _, h := range highs[i-kPeriod+1 : i+1] {
			if h > highestHigh {
				highestHigh = h
			}
		}
		for _, l := range lows[i-kPeriod+1 : i+1] {
			if l < lowestLow {
				lowestLow = l
			}
		}

		if highestHigh == lowestLow {
			k = append(k, 50)
		} else {
			k = append(k, (closes[i]-lowestLow)/(highestHigh-lowestLow)*100)
		}
	}

	return StochasticResult{K: k, D: SMA(k, dPeriod)}
}

// Volatility 年化历史波动率，基于对数收益率的滚动标准差
func Volatility(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period+1 {
		return nil
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}

	volatility := make([]float64, 0, len(returns)-period+1)
	for i := period - 1; i < len(returns); i++ {
		window := returns[i-period+1 : i+1]
		mean := 0.0
		for _, r := range window {
			mean += r
		}
		mean /= float64(period)

		variance := 0.0
		for _, r := range window {
			variance += (r - mean) * (r - mean)
		}
		// 按 252 个交易日年化
		volatility = append(volatility, math.Sqrt(variance/float64(period))*math.Sqrt(252))
	}
	return volatility
}

// IndicatorName 指标展示名称
func IndicatorName(indicatorType IndicatorType, period int) string {
	switch indicatorType {
	case IndicatorSMA:
		return fmt.Sprintf("SMA(%d)", period)
	case IndicatorEMA:
		return fmt.Sprintf("EMA(%d)", period)
	case IndicatorRSI:
		return fmt.Sprintf("RSI(%d)", period)
	case IndicatorMACD:
		return "MACD"
	case IndicatorBollinger:
		return fmt.Sprintf("Bollinger Bands(%d)", period)
	case IndicatorStochastic:
		return fmt.Sprintf("Stochastic(%d)", period)
	case IndicatorVolatility:
		return fmt.Sprintf("Volatility(%d)", period)
	default:
		return string(indicatorType)
	}
}

package analyzer

// analysisPrompt asks for a numbered report whose headings line up with the
// extractors in extract.go. Changing a heading name usually means changing
// the keyword that extractor looks for.
const analysisPrompt = `You are a professional technical analyst. Study the attached trading chart and write a technical analysis report.

Answer under these numbered headings:

1. **Overall Recommendation**: BUY, SELL or HOLD (use STRONG BUY / STRONG SELL only for high conviction setups).
2. **Confidence Level**: HIGH, MEDIUM or LOW.
3. **Trend Direction**: BULLISH, BEARISH or SIDEWAYS.
4. **Support Levels**: key support prices, one bullet per level.
5. **Resistance Levels**: key resistance prices, one bullet per level.
6. **RSI Analysis**: approximate value, signal (OVERBOUGHT, OVERSOLD or NEUTRAL) and a short reading.
7. **MACD Analysis**: signal (BULLISH, BEARISH or NEUTRAL), any crossover and a short reading.
8. **Fibonacci Retracement Levels**: which of 0%, 23.6%, 38.2%, 50%, 61.8%, 78.6% and 100% are acting as support or resistance.
9. **Key Observations**: patterns, candlestick formations and notable features, one bullet each.
10. **Risk Factors**: what could invalidate the trade, one bullet each.
11. **Entry Points**: suggested entry prices, one bullet each.
12. **Exit Points**: take-profit and stop-loss prices, one bullet each.
13. **Summary**: two or three sentences.

Quote prices wherever the chart shows them. When an indicator is not drawn on the chart, infer it from price action and say so.`

package sentiment

// Term weights. Magnitudes follow a -4..4 valence scale.
var defaultLexicon = map[string]float64{
	// positive
	"bullish":       2.9,
	"bull":          1.8,
	"surge":         2.2,
	"rally":         2.1,
	"gain":          1.8,
	"rise":          1.4,
	"breakthrough":  2.3,
	"moon":          2.4,
	"pump":          1.7,
	"green":         1.0,
	"soar":          2.5,
	"boom":          2.0,
	"high":          0.9,
	"growth":        1.7,
	"increase":      1.2,
	"profit":        2.0,
	"profitable":    2.2,
	"record":        1.1,
	"all-time-high": 2.6,
	"ath":           2.4,
	"adoption":      1.6,
	"upgrade":       1.5,
	"partnership":   1.6,
	"integration":   1.2,
	"approve":       1.9,
	"approval":      1.9,
	"win":           2.2,
	"good":          1.9,
	"great":         3.1,
	"best":          3.2,
	"strong":        2.0,
	"optimistic":    2.3,
	"recover":       1.7,
	"recovery":      1.7,
	"rebound":       1.6,
	"outperform":    2.0,
	"buy":           0.9,
	"launch":        0.9,
	"success":       2.7,
	"hodl":          1.2,
	"wagmi":         2.0,
	"gem":           1.8,

	// negative
	"bearish":       -2.9,
	"bear":          -1.6,
	"crash":         -2.7,
	"drop":          -1.6,
	"fall":          -1.5,
	"decline":       -1.6,
	"concern":       -1.4,
	"dump":          -2.0,
	"red":           -0.9,
	"plunge":        -2.6,
	"collapse":      -2.9,
	"fear":          -2.2,
	"loss":          -2.1,
	"lose":          -2.0,
	"decrease":      -1.2,
	"risk":          -1.1,
	"warning":       -1.5,
	"warn":          -1.4,
	"ban":           -2.0,
	"hack":          -2.6,
	"exploit":       -2.3,
	"scam":          -3.0,
	"fraud":         -3.0,
	"rug":           -2.8,
	"rugpull":       -3.1,
	"investigation": -1.3,
	"lawsuit":       -1.8,
	"sue":           -1.8,
	"liquidation":   -2.0,
	"liquidate":     -2.0,
	"sell-off":      -2.1,
	"selloff":       -2.1,
	"slump":         -2.0,
	"tumble":        -2.1,
	"weak":          -1.8,
	"bad":           -2.5,
	"worst":         -3.1,
	"panic":         -2.6,
	"bankrupt":      -3.0,
	"bankruptcy":    -3.0,
	"delist":        -2.0,
	"ngmi":          -2.0,
	"rekt":          -2.6,
}

var defaultIntensifiers = map[string]float64{
	"very":      1.3,
	"extremely": 1.5,
	"hugely":    1.4,
	"massively": 1.4,
	"really":    1.2,
	"super":     1.3,
	"hard":      1.3,
	"sharply":   1.4,
	"slightly":  0.6,
	"somewhat":  0.7,
	"barely":    0.5,
}

package features

import (
	"fmt"

	"StockPulse/internal/domain/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Config holds indicator lookbacks.
type Config struct {
	Windows        []int `yaml:"windows"`
	RSIPeriod      int   `yaml:"rsi_period"`
	RSIMAPeriod    int   `yaml:"rsi_ma_period"`
	MomentumPeriod int   `yaml:"momentum_period"`
	ChannelPeriod  int   `yaml:"channel_period"`
}

// DefaultConfig returns windows 3/5/10/15, RSI 14, RSI MA 10, momentum 10 and channel 20.
func DefaultConfig() Config {
	return Config{
		Windows:        []int{3, 5, 10, 15},
		RSIPeriod:      14,
		RSIMAPeriod:    10,
		MomentumPeriod: 10,
		ChannelPeriod:  20,
	}
}

// Validate checks that every lookback is usable.
func (c Config) Validate() error {
	if len(c.Windows) == 0 {
		return fmt.Errorf("features: at least one window is required")
	}
	for _, w := range c.Windows {
		if w < 2 {
			return fmt.Errorf("features: window %d must be >= 2", w)
		}
	}
	if c.RSIPeriod < 1 || c.RSIMAPeriod < 1 || c.MomentumPeriod < 1 || c.ChannelPeriod < 1 {
		return fmt.Errorf("features: periods must be positive")
	}
	return nil
}

type windowCols struct {
	w                                            int
	returns, volatility, ma, volumeMA, high, low int
}

// Engine derives indicator rows from price bars. It holds no mutable state.
type Engine struct {
	cfg    Config
	schema *models.Schema
	win    []windowCols

	open, high, low, volume                     int
	rsi, rsiMA, hlRatio, coRatio                int
	priceMomentum, volumeMomentum               int
	upperChannel, lowerChannel, channelPosition int
	warmup                                      int
}

// NewEngine builds an engine and its feature schema.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg}
	var cols []string
	add := func(name string) int {
		cols = append(cols, name)
		return len(cols) - 1
	}

	e.open, e.high, e.low, e.volume = add("open"), add("high"), add("low"), add("volume")
	for _, w := range cfg.Windows {
		e.win = append(e.win, windowCols{
			w:          w,
			returns:    add(fmt.Sprintf("returns_%d", w)),
			volatility: add(fmt.Sprintf("volatility_%d", w)),
			ma:         add(fmt.Sprintf("ma_%d", w)),
			volumeMA:   add(fmt.Sprintf("volume_ma_%d", w)),
			high:       add(fmt.Sprintf("high_%d", w)),
			low:        add(fmt.Sprintf("low_%d", w)),
		})
	}
	e.rsi = add("rsi")
	e.rsiMA = add("rsi_ma")
	e.hlRatio = add("hl_ratio")
	e.coRatio = add("co_ratio")
	e.priceMomentum = add("price_momentum")
	e.volumeMomentum = add("volume_momentum")
	e.upperChannel = add("upper_channel")
	e.lowerChannel = add("lower_channel")
	e.channelPosition = add("channel_position")
	e.schema = models.NewSchema(cols)

	// first index at which every column can be defined
	first := cfg.RSIPeriod + cfg.RSIMAPeriod - 1
	for _, w := range cfg.Windows {
		first = max(first, 2*w-1)
	}
	first = max(first, cfg.MomentumPeriod, cfg.ChannelPeriod-1)
	e.warmup = first + 1
	return e, nil
}

// MustEngine builds an engine with the default configuration.
func MustEngine() *Engine {
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Engine) Schema() *models.Schema { return e.schema }

// Warmup is the number of bars consumed before the first complete row.
func (e *Engine) Warmup() int { return e.warmup }

// Derive returns only rows whose every feature is defined. It never imputes.
func (e *Engine) Derive(bars []models.PriceBar) []models.FeatureRow {
	all := e.Compute(bars)
	out := make([]models.FeatureRow, 0, max(len(all)-e.warmup+1, 0))
	for _, r := range all {
		if r.Complete() {
			out = append(out, r)
		}
	}
	return out
}

// Compute returns one row per bar with undefined values left unset.
// Row i uses only bars at indices <= i.
func (e *Engine) Compute(bars []models.PriceBar) []models.FeatureRow {
	n := len(bars)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	vols := make([]float64, n)
	for i, b := range bars {
		closes[i], highs[i], lows[i], vols[i] = b.Close, b.High, b.Low, b.Volume
	}

	rows := make([]models.FeatureRow, n)
	for i, b := range bars {
		vals := make([]models.Value, e.schema.Len())
		vals[e.open] = models.Some(b.Open)
		vals[e.high] = models.Some(b.High)
		vals[e.low] = models.Some(b.Low)
		vals[e.volume] = models.Some(b.Volume)
		if b.Low != 0 {
			vals[e.hlRatio] = models.Some(b.High / b.Low)
		}
		if b.Open != 0 {
			vals[e.coRatio] = models.Some(b.Close / b.Open)
		}
		rows[i] = models.FeatureRow{PriceBar: b, Schema: e.schema, Values: vals}
	}

	for _, wc := range e.win {
		w := wc.w
		returns := make([]models.Value, n)
		for i := w; i < n; i++ {
			if closes[i-w] != 0 {
				returns[i] = models.Some(closes[i]/closes[i-w] - 1)
			}
		}
		for i := 0; i < n; i++ {
			vals := rows[i].Values
			vals[wc.returns] = returns[i]
			if i < w-1 {
				continue
			}
			lo := i - w + 1
			vals[wc.ma] = models.Some(stat.Mean(closes[lo:i+1], nil))
			vals[wc.volumeMA] = models.Some(stat.Mean(vols[lo:i+1], nil))
			vals[wc.high] = models.Some(floats.Max(highs[lo : i+1]))
			vals[wc.low] = models.Some(floats.Min(lows[lo : i+1]))
			if sd, ok := trailingStdDev(returns[lo : i+1]); ok {
				vals[wc.volatility] = models.Some(sd)
			}
		}
	}

	rsi := e.rsiSeries(closes)
	p, q := e.cfg.RSIMAPeriod, e.cfg.MomentumPeriod
	for i := 0; i < n; i++ {
		vals := rows[i].Values
		vals[e.rsi] = rsi[i]
		if i >= p-1 {
			if m, ok := meanDefined(rsi[i-p+1 : i+1]); ok {
				vals[e.rsiMA] = models.Some(m)
			}
		}
		if i >= q {
			vals[e.priceMomentum] = models.Some(closes[i] - closes[i-q])
			vals[e.volumeMomentum] = models.Some(vols[i] - vols[i-q])
		}
	}

	c := e.cfg.ChannelPeriod
	for i := c - 1; i < n; i++ {
		vals := rows[i].Values
		upper := floats.Max(highs[i-c+1 : i+1])
		lower := floats.Min(lows[i-c+1 : i+1])
		vals[e.upperChannel] = models.Some(upper)
		vals[e.lowerChannel] = models.Some(lower)
		if width := upper - lower; width != 0 {
			vals[e.channelPosition] = models.Some((closes[i] - lower) / width)
		}
	}
	return rows
}

// ComputeLast returns the row for the final bar using only the trailing warmup window.
// An empty series yields a row with every feature undefined.
func (e *Engine) ComputeLast(bars []models.PriceBar) models.FeatureRow {
	if len(bars) == 0 {
		return models.FeatureRow{Schema: e.schema, Values: make([]models.Value, e.schema.Len())}
	}
	tail := bars
	if len(tail) > e.warmup {
		tail = tail[len(tail)-e.warmup:]
	}
	rows := e.Compute(tail)
	return rows[len(rows)-1]
}

// rsiSeries uses simple means of gains and losses over the trailing period.
// A window with no losses yields exactly 100.
func (e *Engine) rsiSeries(closes []float64) []models.Value {
	n := len(closes)
	p := e.cfg.RSIPeriod
	out := make([]models.Value, n)
	for i := p; i < n; i++ {
		var gain, loss float64
		for j := i - p + 1; j <= i; j++ {
			d := closes[j] - closes[j-1]
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		gain /= float64(p)
		loss /= float64(p)
		if loss == 0 {
			out[i] = models.Some(100)
			continue
		}
		out[i] = models.Some(100 - 100/(1+gain/loss))
	}
	return out
}

// trailingStdDev is the sample standard deviation, defined only when every value is.
func trailingStdDev(vals []models.Value) (float64, bool) {
	xs := make([]float64, len(vals))
	for i, v := range vals {
		if !v.Defined {
			return 0, false
		}
		xs[i] = v.V
	}
	return stat.StdDev(xs, nil), true
}

func meanDefined(vals []models.Value) (float64, bool) {
	xs := make([]float64, len(vals))
	for i, v := range vals {
		if !v.Defined {
			return 0, false
		}
		xs[i] = v.V
	}
	return stat.Mean(xs, nil), true
}

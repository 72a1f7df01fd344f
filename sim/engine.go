package sim

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantforge/backtest/internal/id"
	"github.com/quantforge/backtest/market"
)

// Engine replays a validated bar series against one SignalSource and one
// RiskManager. It is single-threaded and fully deterministic given (bars,
// source, risk manager, config); it never observes state outside itself, so
// any number of engines can run concurrently over the same shared series.
type Engine struct {
	bars market.Series
	src  SignalSource
	rm   RiskManager
	cfg  Config
	log  zerolog.Logger

	cash    float64
	pos     *Position
	trades  []Trade
	equity  []EquityPoint
	lastATR float64

	declined int
}

// Result is the complete record of one simulation run.
type Result struct {
	InitialEquity float64
	FinalEquity   float64
	Trades        []Trade
	Equity        []EquityPoint

	// Declined counts Enter signals rejected by the risk manager.
	Declined int
}

func NewEngine(bars market.Series, src SignalSource, rm RiskManager, cfg Config) *Engine {
	return &Engine{
		bars: bars,
		src:  src,
		rm:   rm,
		cfg:  cfg,
		log:  zerolog.Nop(),
	}
}

// SetLogger installs a logger for declined trades and run-level events.
func (e *Engine) SetLogger(l zerolog.Logger) { e.log = l }

// State reports the engine's current position state.
func (e *Engine) State() State {
	if e.pos == nil {
		return StateFlat
	}
	if e.pos.Side == Long {
		return StateLong
	}
	return StateShort
}

// Run executes the simulation over the full bar series.
//
// Per-bar order, with no look-ahead:
//  1. stop/target check against the bar's high/low
//  2. trailing stop and trailing take-profit updates via the risk manager
//  3. signal evaluation (exit, then entry while flat)
//  4. equity curve point at the bar close
//
// Any position still open after the last bar is force-closed at that bar's
// close with reason EndOfData. Malformed input fails the run immediately.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	if err := e.bars.Validate(); err != nil {
		return Result{}, err
	}

	e.cash = e.cfg.InitialEquity
	e.pos = nil
	e.trades = nil
	e.equity = make([]EquityPoint, 0, len(e.bars))
	e.lastATR = 0
	e.declined = 0

	for i, bar := range e.bars {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		if e.pos != nil {
			if px, reason, hit := e.checkExit(bar); hit {
				e.closePosition(bar.Time, px, reason)
			}
		}

		if e.pos != nil {
			e.trailStop(bar)
			e.trailTarget(bar)
		}

		sig := e.src.Evaluate(bar, e.bars[:i], e.State())
		if sig.ATR > 0 {
			e.lastATR = sig.ATR
		}

		switch {
		case sig.Action == Exit && e.pos != nil:
			px := e.cfg.fillPrice(bar.Close, e.pos.Side == Short)
			e.closePosition(bar.Time, px, ReasonSignalExit)
		case sig.Action == Enter && e.pos == nil:
			e.tryOpen(bar, sig)
		}

		e.equity = append(e.equity, EquityPoint{Time: bar.Time, Equity: e.markedEquity(bar.Close)})
	}

	if e.pos != nil {
		last := e.bars[len(e.bars)-1]
		px := e.cfg.fillPrice(last.Close, e.pos.Side == Short)
		e.closePosition(last.Time, px, ReasonEndOfData)
		e.equity[len(e.equity)-1].Equity = e.cash
	}

	final := e.cfg.InitialEquity
	if n := len(e.equity); n > 0 {
		final = e.equity[n-1].Equity
	}

	return Result{
		InitialEquity: e.cfg.InitialEquity,
		FinalEquity:   final,
		Trades:        e.trades,
		Equity:        e.equity,
		Declined:      e.declined,
	}, nil
}

// checkExit models stop/target hits within a bar. When both levels fall
// inside the bar's range the stop is assumed to trigger first; this is a
// fixed, conservative policy, not a guess about intrabar path.
func (e *Engine) checkExit(bar market.Bar) (px float64, reason ExitReason, hit bool) {
	p := e.pos

	var stopHit, targetHit bool
	switch p.Side {
	case Long:
		stopHit = p.Stop > 0 && bar.Low <= p.Stop
		targetHit = p.Target > 0 && bar.High >= p.Target
	case Short:
		stopHit = p.Stop > 0 && bar.High >= p.Stop
		targetHit = p.Target > 0 && bar.Low <= p.Target
	}

	if stopHit {
		reason = ReasonStopLoss
		if p.Trailed {
			reason = ReasonTrailingStop
		}
		return e.cfg.fillPrice(p.Stop, p.Side == Short), reason, true
	}
	if targetHit {
		reason = ReasonTakeProfit
		if p.TrailedTarget {
			reason = ReasonTrailingTake
		}
		return e.cfg.fillPrice(p.Target, p.Side == Short), reason, true
	}
	return 0, "", false
}

// trailStop asks the risk manager for a new stop and records whether the
// stop actually ratcheted. The manager's contract is monotonic; the engine
// still guards against a loosened stop so a misbehaving implementation can
// never widen risk. A position with no stop yet may acquire its first one.
// Trailing uses the ATR from the previous bar's signal.
func (e *Engine) trailStop(bar market.Bar) {
	p := e.pos
	ns := e.rm.UpdateTrailingStop(*p, bar, e.lastATR)
	if ns == p.Stop || ns <= 0 {
		return
	}
	tightens := p.Stop == 0 ||
		(p.Side == Long && ns > p.Stop) ||
		(p.Side == Short && ns < p.Stop)
	if !tightens {
		return
	}
	p.Stop = ns
	p.Trailed = true
}

// trailTarget is the take-profit mirror of trailStop: the target may only
// ratchet toward the current price, never away from it.
func (e *Engine) trailTarget(bar market.Bar) {
	p := e.pos
	nt := e.rm.UpdateTrailingTarget(*p, bar, e.lastATR)
	if nt == p.Target || nt <= 0 {
		return
	}
	tightens := p.Target == 0 ||
		(p.Side == Long && nt < p.Target) ||
		(p.Side == Short && nt > p.Target)
	if !tightens {
		return
	}
	p.Target = nt
	p.TrailedTarget = true
}

func (e *Engine) tryOpen(bar market.Bar, sig Signal) {
	side := sig.Side
	if side != Long && side != Short {
		side = Long
	}

	atr := sig.ATR
	if atr <= 0 {
		atr = e.lastATR
	}

	fill := e.cfg.fillPrice(bar.Close, side == Long)

	stop, target, err := e.rm.InitialStops(fill, side, atr)
	if err != nil {
		e.decline(bar.Time, err)
		return
	}
	units, err := e.rm.SizePosition(e.markedEquity(bar.Close), fill, stop, atr)
	if err != nil {
		e.decline(bar.Time, err)
		return
	}

	fees := e.cfg.commission(fill, units)
	e.cash -= fees

	e.pos = &Position{
		Side:       side,
		Units:      units,
		EntryPrice: fill,
		EntryTime:  bar.Time,
		Stop:       stop,
		Target:     target,
		entryFees:  fees,
	}
}

func (e *Engine) decline(t time.Time, err error) {
	e.declined++
	e.log.Debug().Time("bar", t).Err(err).Msg("entry declined by risk manager")
}

func (e *Engine) closePosition(t time.Time, px float64, reason ExitReason) {
	p := e.pos
	e.pos = nil

	gross := float64(p.Side) * (px - p.EntryPrice) * p.Units
	exitFees := e.cfg.commission(px, p.Units)
	e.cash += gross - exitFees

	e.trades = append(e.trades, Trade{
		ID:         id.New(),
		Side:       p.Side,
		Units:      p.Units,
		EntryPrice: p.EntryPrice,
		ExitPrice:  px,
		EntryTime:  p.EntryTime,
		ExitTime:   t,
		GrossPnL:   gross,
		Fees:       p.entryFees + exitFees,
		NetPnL:     gross - p.entryFees - exitFees,
		Reason:     reason,
	})
}

// markedEquity is cash plus mark-to-market of the open position at price.
func (e *Engine) markedEquity(price float64) float64 {
	if e.pos == nil {
		return e.cash
	}
	return e.cash + e.pos.markToMarket(price)
}

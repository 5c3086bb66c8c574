// Package console renders bot activity and status to the terminal. It is the
// headless stand-in for an operator dashboard: it subscribes to the event bus
// for an activity feed and periodically prints a status table.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"aurumbot/internal/domain"
	"aurumbot/internal/engine"
	"aurumbot/internal/events"
	"aurumbot/internal/ports"
)

const defaultStatusPeriod = 15 * time.Second

// Presenter prints the activity feed and a periodic status table.
type Presenter struct {
	controller *engine.Controller
	bus        *events.Bus
	out        io.Writer
	period     time.Duration
	history    ports.TradeRepository
	symbol     string

	mu       sync.Mutex
	lastView map[string]interface{}

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Option configures the presenter.
type Option func(*Presenter)

// WithOutput redirects output, e.g. to a buffer in tests.
func WithOutput(w io.Writer) Option {
	return func(p *Presenter) { p.out = w }
}

// WithStatusPeriod changes how often the status table prints.
func WithStatusPeriod(d time.Duration) Option {
	return func(p *Presenter) { p.period = d }
}

// WithHistory adds day-count and running-profit rows from the trade history.
func WithHistory(repo ports.TradeRepository, symbol string) Option {
	return func(p *Presenter) {
		p.history = repo
		p.symbol = symbol
	}
}

// New creates a presenter. Call Start to begin rendering.
func New(controller *engine.Controller, bus *events.Bus, opts ...Option) *Presenter {
	p := &Presenter{
		controller: controller,
		bus:        bus,
		out:        os.Stdout,
		period:     defaultStatusPeriod,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins consuming events and printing. Runs until Stop.
func (p *Presenter) Start(ctx context.Context) {
	ch := p.bus.Subscribe(128)
	go p.run(ctx, ch)
}

// Stop halts rendering and waits for the render goroutine to exit.
func (p *Presenter) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.doneCh
}

func (p *Presenter) run(ctx context.Context, ch <-chan events.Event) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			p.handle(ctx, ev)
		case <-ticker.C:
			p.printStatus(ctx)
		}
	}
}

func (p *Presenter) handle(ctx context.Context, ev events.Event) {
	switch ev.Kind {
	case events.KindCycle:
		// Cycles are frequent; keep the latest view for the status table
		// instead of printing each one.
		p.mu.Lock()
		p.lastView = ev.Fields
		p.mu.Unlock()
	case events.KindModeChanged:
		fmt.Fprintf(p.out, "%s  %s\n", ev.At.Format("15:04:05"), text.FgHiCyan.Sprint(ev.Message))
		p.printStatus(ctx)
	case events.KindError:
		fmt.Fprintf(p.out, "%s  %s %v\n", ev.At.Format("15:04:05"), text.FgHiRed.Sprint(ev.Message), ev.Fields)
	default:
		fmt.Fprintf(p.out, "%s  [%s] %s %v\n", ev.At.Format("15:04:05"), ev.Kind, ev.Message, ev.Fields)
	}
}

// printStatus renders the status table from the controller state and the
// last market view.
func (p *Presenter) printStatus(ctx context.Context) {
	status := p.controller.Status(ctx)
	p.mu.Lock()
	view := p.lastView
	p.mu.Unlock()

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Mode", colorMode(status.Mode)},
		{"Since", status.Since.Format("15:04:05")},
		{"Open positions", status.OpenCount},
		{"Wins / Losses", fmt.Sprintf("%d / %d", status.Counters.Wins, status.Counters.Losses)},
		{"Win rate", fmt.Sprintf("%.1f%%", status.Counters.WinRate())},
	})
	if status.LastTrade != nil {
		t.AppendRow(table.Row{"Last trade", fmt.Sprintf("%s %+.2f USD (%s)",
			status.LastTrade.Result(), status.LastTrade.ProfitUSD, status.LastTrade.Reason)})
	}
	if !status.LastCycleAt.IsZero() {
		t.AppendRow(table.Row{"Last cycle", status.LastCycleAt.Format("15:04:05")})
	}
	t.AppendRows(p.historyRows(ctx))
	for _, key := range []string{"bid", "ask", "spread", "close", "rsi", "atr", "trend", "higher", "news", "news_event"} {
		if v, ok := view[key]; ok {
			t.AppendRow(table.Row{key, formatViewValue(key, v)})
		}
	}
	t.Render()
}

// historyRows queries the durable trade history for the status table. Query
// failures just drop the rows; status rendering is best effort.
func (p *Presenter) historyRows(ctx context.Context) []table.Row {
	if p.history == nil {
		return nil
	}
	var rows []table.Row
	if n, err := p.history.CountTodayBySymbol(ctx, p.symbol); err == nil {
		rows = append(rows, table.Row{"Trades today", n})
	}
	if total, err := p.history.TotalProfitBySymbol(ctx, p.symbol); err == nil {
		rows = append(rows, table.Row{"Total profit", fmt.Sprintf("%+.2f USD", total)})
	}
	return rows
}

func colorMode(mode domain.Mode) string {
	switch mode {
	case domain.ModeStopped:
		return text.FgHiRed.Sprint(mode)
	case domain.ModeMonitoring:
		return text.FgHiYellow.Sprint(mode)
	default:
		return text.FgHiGreen.Sprint(mode)
	}
}

func formatViewValue(key string, v interface{}) string {
	if f, ok := v.(float64); ok {
		switch key {
		case "bid", "ask", "close":
			return fmt.Sprintf("%.2f", f)
		default:
			return fmt.Sprintf("%.1f", f)
		}
	}
	return fmt.Sprintf("%v", v)
}

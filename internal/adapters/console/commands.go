package console

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"aurumbot/internal/domain"
	"aurumbot/internal/engine"
	"aurumbot/internal/ports"
	"aurumbot/internal/position"
	"aurumbot/internal/settings"
)

// CommandLoop reads operator commands line by line and drives the mode
// controller. It returns when the input closes or the operator quits.
func CommandLoop(ctx context.Context, in io.Reader, out io.Writer, ctrl *engine.Controller, positions *position.Manager, store *settings.Store, classifier ports.Classifier, modelPath string, logger ports.Logger) {
	fmt.Fprintln(out, "commands: monitor | trend | scalp | sniper | stop | close | set <key> <value> | reload | status | quit")

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if parts := strings.Fields(line); len(parts) == 3 && strings.EqualFold(parts[0], "set") {
			if err := applySetting(ctx, store, parts[1], parts[2]); err != nil {
				fmt.Fprintf(out, "set failed: %v\n", err)
			} else {
				fmt.Fprintf(out, "%s = %s\n", parts[1], parts[2])
			}
			continue
		}
		cmd := strings.ToLower(line)
		switch cmd {
		case "":
		case "monitor":
			toggle(ctx, out, ctrl, domain.ModeMonitoring)
		case "trend":
			toggle(ctx, out, ctrl, domain.ModeTrendFollowing)
		case "scalp":
			toggle(ctx, out, ctrl, domain.ModeScalping)
		case "sniper":
			toggle(ctx, out, ctrl, domain.ModeSniper)
		case "stop":
			ctrl.Stop(ctx)
			fmt.Fprintln(out, "stopped")
		case "close":
			if err := positions.CloseAll(ctx, domain.CloseReasonManual, "operator close"); err != nil {
				fmt.Fprintf(out, "close failed: %v\n", err)
			} else {
				fmt.Fprintln(out, "all positions closed")
			}
		case "reload":
			if classifier == nil {
				fmt.Fprintln(out, "no classifier configured")
				break
			}
			if err := classifier.Reload(ctx, modelPath); err != nil {
				fmt.Fprintf(out, "model reload failed: %v\n", err)
			} else {
				fmt.Fprintln(out, "model reloaded")
			}
		case "status":
			s := ctrl.Status(ctx)
			fmt.Fprintf(out, "mode=%s open=%d wins=%d losses=%d winrate=%.1f%%\n",
				s.Mode, s.OpenCount, s.Counters.Wins, s.Counters.Losses, s.Counters.WinRate())
		case "quit", "exit":
			return
		default:
			fmt.Fprintf(out, "unknown command %q\n", cmd)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error(ctx, err, "command input failed")
	}
}

// applySetting updates one settings field by its JSON key, e.g.
// "set stop_loss_pips 25". The store rejects values that fail validation.
func applySetting(ctx context.Context, store *settings.Store, key, raw string) error {
	current := store.Get()
	data, err := json.Marshal(current)
	if err != nil {
		return err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return fmt.Errorf("unknown setting %q", key)
	}

	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		doc[key] = json.RawMessage(raw)
	} else {
		doc[key] = json.RawMessage(strconv.Quote(raw))
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var next domain.TradeSettings
	if err := json.Unmarshal(merged, &next); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return store.Update(ctx, next)
}

func toggle(ctx context.Context, out io.Writer, ctrl *engine.Controller, mode domain.Mode) {
	if err := ctrl.Toggle(ctx, mode); err != nil {
		fmt.Fprintf(out, "cannot enter %s: %v\n", mode, err)
		return
	}
	fmt.Fprintf(out, "mode: %s\n", ctrl.Mode())
}

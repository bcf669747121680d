// Package data loads historical sold-listing exports into trade comps. The
// exports come from marketplace APIs whose field names drifted over the
// years, so parsing is deliberately lenient: recognized spellings are tried
// in order and malformed items are skipped rather than failing the file.
package data

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerengine/quant-backend/pkg/types"
)

// Loader reads sold-listing JSON into trade comps.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a comp loader.
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadFile reads one sold-listing export from disk.
func (l *Loader) LoadFile(path string) ([]types.TradeComp, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("data: opening %s: %w", path, err)
	}
	defer f.Close()
	comps, err := l.Load(f)
	if err != nil {
		return nil, fmt.Errorf("data: parsing %s: %w", path, err)
	}
	return comps, nil
}

// Load parses a sold-listing export. The root may be a bare item array or an
// object wrapping the array under items, sold, search_results, or item.
// Items missing a usable price or date are skipped. Comps come back sorted
// by date ascending.
func (l *Loader) Load(r io.Reader) ([]types.TradeComp, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}

	items, err := extractItems(raw)
	if err != nil {
		return nil, err
	}

	comps := make([]types.TradeComp, 0, len(items))
	skipped := 0
	for _, item := range items {
		price, ok := extractPrice(item)
		if !ok {
			skipped++
			continue
		}
		date, ok := extractDate(item)
		if !ok {
			skipped++
			continue
		}
		comps = append(comps, types.TradeComp{Date: date, Price: price})
	}
	if skipped > 0 {
		l.logger.Debug("skipped malformed sold listings",
			zap.Int("skipped", skipped),
			zap.Int("kept", len(comps)),
		)
	}

	sort.Slice(comps, func(i, j int) bool { return comps[i].Date.Before(comps[j].Date) })
	return comps, nil
}

// itemListKeys are the wrapper keys tried, in order, when the root is an
// object rather than a bare array.
var itemListKeys = []string{"items", "sold", "search_results", "item"}

func extractItems(raw []byte) ([]map[string]json.RawMessage, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("export is neither an item array nor an object: %w", err)
	}
	for _, key := range itemListKeys {
		inner, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &items); err != nil {
			return nil, fmt.Errorf("field %q is not an item array: %w", key, err)
		}
		return items, nil
	}
	return nil, fmt.Errorf("no item array found under any of %v", itemListKeys)
}

// extractPrice tries price, then currentPrice, then price.value. Each may be
// a JSON number, a numeric string, or (for price) an object with a value
// field. Non-positive prices are rejected.
func extractPrice(item map[string]json.RawMessage) (float64, bool) {
	for _, key := range []string{"price", "currentPrice"} {
		raw, ok := item[key]
		if !ok {
			continue
		}
		if v, ok := scalarFloat(raw); ok && v > 0 {
			return v, true
		}
		var nested struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &nested); err == nil && nested.Value != nil {
			if v, ok := scalarFloat(nested.Value); ok && v > 0 {
				return v, true
			}
		}
	}
	return 0, false
}

var dateKeys = []string{"soldDate", "endTime", "item_end_date", "ended_at"}

// dateLayouts are tried in order for string timestamps.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func extractDate(item map[string]json.RawMessage) (time.Time, bool) {
	for _, key := range dateKeys {
		raw, ok := item[key]
		if !ok {
			continue
		}
		if ts, ok := parseTimestamp(raw); ok {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
		return time.Time{}, false
	}

	// Numeric timestamps: epoch milliseconds above 1e10, else epoch seconds.
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		if n > 1e10 {
			return time.UnixMilli(int64(n)).UTC(), true
		}
		return time.Unix(int64(n), 0).UTC(), true
	}
	return time.Time{}, false
}

func scalarFloat(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/predictsim/core/internal/model"
)

const timeLayout = time.RFC3339Nano

// CSVStore persists each entity kind to its own CSV file under a base
// directory, appending on every Save call and re-reading the whole
// file on every Load call — adequate for the backtest data sizes this
// simulator targets.
type CSVStore struct {
	baseDir string
}

// NewCSVStore constructs a CSV-backed store rooted at baseDir,
// creating it if it does not already exist.
func NewCSVStore(baseDir string) (*CSVStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create base dir: %w", err)
	}
	return &CSVStore{baseDir: baseDir}, nil
}

func (s *CSVStore) path(name string) string {
	return filepath.Join(s.baseDir, name+".csv")
}

func (s *CSVStore) appendRows(name string, header []string, rows [][]string) error {
	path := s.path(name)
	writeHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		writeHeader = true
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store: open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (s *CSVStore) readRows(name string) ([][]string, error) {
	path := s.path(name)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}

func (s *CSVStore) SaveSnapshots(snaps []model.MarketSnapshot) error {
	rows := make([][]string, 0, len(snaps))
	for _, snap := range snaps {
		rows = append(rows, []string{
			snap.MarketID, string(snap.Platform), snap.Timestamp.Format(timeLayout), snap.Question,
			f64(snap.YesPrice), f64(snap.NoPrice), f64(snap.Volume24h), f64(snap.Liquidity), string(snap.Status),
		})
	}
	return s.appendRows("snapshots", []string{"market_id", "platform", "timestamp", "question", "yes_price", "no_price", "volume_24h", "liquidity", "status"}, rows)
}

func (s *CSVStore) LoadSnapshots(marketID string, start, end time.Time) ([]model.MarketSnapshot, error) {
	records, err := s.readRows("snapshots")
	if err != nil {
		return nil, err
	}
	var out []model.MarketSnapshot
	for _, rec := range records {
		if len(rec) < 9 || rec[0] != marketID {
			continue
		}
		ts, err := time.Parse(timeLayout, rec[2])
		if err != nil || !inWindow(ts, start, end) {
			continue
		}
		out = append(out, model.MarketSnapshot{
			MarketID: rec[0], Platform: model.Platform(rec[1]), Timestamp: ts, Question: rec[3],
			YesPrice: pf(rec[4]), NoPrice: pf(rec[5]), Volume24h: pf(rec[6]), Liquidity: pf(rec[7]),
			Status: model.MarketStatus(rec[8]),
		})
	}
	return out, nil
}

func (s *CSVStore) SaveOrderBooks(books []model.OrderBookSnapshot) error {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, []string{
			b.MarketID, string(b.Platform), b.Timestamp.Format(timeLayout),
			encodeLevels(b.Bids), encodeLevels(b.Asks),
		})
	}
	return s.appendRows("order_books", []string{"market_id", "platform", "timestamp", "bids", "asks"}, rows)
}

func (s *CSVStore) LoadOrderBooks(marketID string, start, end time.Time) ([]model.OrderBookSnapshot, error) {
	records, err := s.readRows("order_books")
	if err != nil {
		return nil, err
	}
	var out []model.OrderBookSnapshot
	for _, rec := range records {
		if len(rec) < 5 || rec[0] != marketID {
			continue
		}
		ts, err := time.Parse(timeLayout, rec[2])
		if err != nil || !inWindow(ts, start, end) {
			continue
		}
		out = append(out, model.OrderBookSnapshot{
			MarketID: rec[0], Platform: model.Platform(rec[1]), Timestamp: ts,
			Bids: decodeLevels(rec[3]), Asks: decodeLevels(rec[4]),
		})
	}
	return out, nil
}

func (s *CSVStore) SaveTrades(trades []model.TradeEvent) error {
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []string{
			t.TradeID, t.MarketID, string(t.Platform), t.Timestamp.Format(timeLayout),
			string(t.Side), f64(t.Price), f64(t.Size), strconv.FormatBool(t.IsTaker), f64(t.Fees),
		})
	}
	return s.appendRows("trades", []string{"trade_id", "market_id", "platform", "timestamp", "side", "price", "size", "is_taker", "fees"}, rows)
}

func (s *CSVStore) LoadTrades(marketID string, start, end time.Time) ([]model.TradeEvent, error) {
	records, err := s.readRows("trades")
	if err != nil {
		return nil, err
	}
	var out []model.TradeEvent
	for _, rec := range records {
		if len(rec) < 9 || rec[1] != marketID {
			continue
		}
		ts, err := time.Parse(timeLayout, rec[3])
		if err != nil || !inWindow(ts, start, end) {
			continue
		}
		isTaker, _ := strconv.ParseBool(rec[7])
		out = append(out, model.TradeEvent{
			TradeID: rec[0], MarketID: rec[1], Platform: model.Platform(rec[2]), Timestamp: ts,
			Side: model.OrderSide(rec[4]), Price: pf(rec[5]), Size: pf(rec[6]), IsTaker: isTaker, Fees: pf(rec[8]),
		})
	}
	return out, nil
}

func (s *CSVStore) SaveResolutions(resolutions []model.MarketResolution) error {
	rows := make([][]string, 0, len(resolutions))
	for _, r := range resolutions {
		rows = append(rows, []string{
			r.MarketID, string(r.Platform), r.Timestamp.Format(timeLayout), string(r.Outcome), r.Question,
		})
	}
	return s.appendRows("resolutions", []string{"market_id", "platform", "timestamp", "outcome", "question"}, rows)
}

func (s *CSVStore) LoadResolutions(marketID string, start, end time.Time) ([]model.MarketResolution, error) {
	records, err := s.readRows("resolutions")
	if err != nil {
		return nil, err
	}
	var out []model.MarketResolution
	for _, rec := range records {
		if len(rec) < 5 || rec[0] != marketID {
			continue
		}
		ts, err := time.Parse(timeLayout, rec[2])
		if err != nil || !inWindow(ts, start, end) {
			continue
		}
		out = append(out, model.MarketResolution{
			MarketID: rec[0], Platform: model.Platform(rec[1]), Timestamp: ts,
			Outcome: model.ResolutionOutcome(rec[3]), Question: rec[4],
		})
	}
	return out, nil
}

func f64(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
func pf(s string) float64  { v, _ := strconv.ParseFloat(s, 64); return v }

func encodeLevels(levels []model.OrderBookLevel) string {
	out := ""
	for i, l := range levels {
		if i > 0 {
			out += ";"
		}
		out += f64(l.Price) + ":" + f64(l.Size) + ":" + strconv.Itoa(l.OrderCount)
	}
	return out
}

func decodeLevels(encoded string) []model.OrderBookLevel {
	if encoded == "" {
		return nil
	}
	var out []model.OrderBookLevel
	start := 0
	for i := 0; i <= len(encoded); i++ {
		if i == len(encoded) || encoded[i] == ';' {
			if i > start {
				out = append(out, parseLevel(encoded[start:i]))
			}
			start = i + 1
		}
	}
	return out
}

func parseLevel(tok string) model.OrderBookLevel {
	var price, size float64
	var count int
	parts := [3]string{}
	idx := 0
	start := 0
	for i := 0; i <= len(tok) && idx < 3; i++ {
		if i == len(tok) || tok[i] == ':' {
			parts[idx] = tok[start:i]
			idx++
			start = i + 1
		}
	}
	price = pf(parts[0])
	size = pf(parts[1])
	count, _ = strconv.Atoi(parts[2])
	return model.OrderBookLevel{Price: price, Size: size, OrderCount: count}
}

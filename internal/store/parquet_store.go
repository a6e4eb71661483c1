package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/predictsim/core/internal/model"
)

// ParquetStore persists each entity kind to its own columnar Parquet
// file under a base directory, using Snappy-compressed row groups.
// Saves append by rewriting the full file (Parquet has no append
// writer), which is acceptable for the batch-oriented write pattern
// historical backtests use: data is written once before a run starts.
type ParquetStore struct {
	baseDir string
}

// NewParquetStore constructs a Parquet-backed store rooted at baseDir.
func NewParquetStore(baseDir string) (*ParquetStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create base dir: %w", err)
	}
	return &ParquetStore{baseDir: baseDir}, nil
}

func (s *ParquetStore) path(name string) string {
	return filepath.Join(s.baseDir, name+".parquet")
}

type snapshotRow struct {
	MarketID  string  `parquet:"name=market_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Platform  string  `parquet:"name=platform, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp int64   `parquet:"name=timestamp, type=INT64"`
	Question  string  `parquet:"name=question, type=BYTE_ARRAY, convertedtype=UTF8"`
	YesPrice  float64 `parquet:"name=yes_price, type=DOUBLE"`
	NoPrice   float64 `parquet:"name=no_price, type=DOUBLE"`
	Volume24h float64 `parquet:"name=volume_24h, type=DOUBLE"`
	Liquidity float64 `parquet:"name=liquidity, type=DOUBLE"`
	Status    string  `parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func (s *ParquetStore) SaveSnapshots(snaps []model.MarketSnapshot) error {
	var rows []snapshotRow
	if err := readParquet(s.path("snapshots"), new(snapshotRow), &rows); err != nil {
		return err
	}
	for _, snap := range snaps {
		rows = append(rows, snapshotRow{
			MarketID: snap.MarketID, Platform: string(snap.Platform), Timestamp: snap.Timestamp.UnixNano(),
			Question: snap.Question, YesPrice: snap.YesPrice, NoPrice: snap.NoPrice,
			Volume24h: snap.Volume24h, Liquidity: snap.Liquidity, Status: string(snap.Status),
		})
	}
	return writeParquet(s.path("snapshots"), new(snapshotRow), rows)
}

func (s *ParquetStore) LoadSnapshots(marketID string, start, end time.Time) ([]model.MarketSnapshot, error) {
	var rows []snapshotRow
	if err := readParquet(s.path("snapshots"), new(snapshotRow), &rows); err != nil {
		return nil, err
	}
	var out []model.MarketSnapshot
	for _, r := range rows {
		if r.MarketID != marketID {
			continue
		}
		ts := time.Unix(0, r.Timestamp).UTC()
		if !inWindow(ts, start, end) {
			continue
		}
		out = append(out, model.MarketSnapshot{
			MarketID: r.MarketID, Platform: model.Platform(r.Platform), Timestamp: ts, Question: r.Question,
			YesPrice: r.YesPrice, NoPrice: r.NoPrice, Volume24h: r.Volume24h, Liquidity: r.Liquidity,
			Status: model.MarketStatus(r.Status),
		})
	}
	return out, nil
}

type tradeRow struct {
	TradeID   string  `parquet:"name=trade_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	MarketID  string  `parquet:"name=market_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Platform  string  `parquet:"name=platform, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp int64   `parquet:"name=timestamp, type=INT64"`
	Side      string  `parquet:"name=side, type=BYTE_ARRAY, convertedtype=UTF8"`
	Price     float64 `parquet:"name=price, type=DOUBLE"`
	Size      float64 `parquet:"name=size, type=DOUBLE"`
	IsTaker   bool    `parquet:"name=is_taker, type=BOOLEAN"`
	Fees      float64 `parquet:"name=fees, type=DOUBLE"`
}

func (s *ParquetStore) SaveTrades(trades []model.TradeEvent) error {
	var rows []tradeRow
	if err := readParquet(s.path("trades"), new(tradeRow), &rows); err != nil {
		return err
	}
	for _, t := range trades {
		rows = append(rows, tradeRow{
			TradeID: t.TradeID, MarketID: t.MarketID, Platform: string(t.Platform), Timestamp: t.Timestamp.UnixNano(),
			Side: string(t.Side), Price: t.Price, Size: t.Size, IsTaker: t.IsTaker, Fees: t.Fees,
		})
	}
	return writeParquet(s.path("trades"), new(tradeRow), rows)
}

func (s *ParquetStore) LoadTrades(marketID string, start, end time.Time) ([]model.TradeEvent, error) {
	var rows []tradeRow
	if err := readParquet(s.path("trades"), new(tradeRow), &rows); err != nil {
		return nil, err
	}
	var out []model.TradeEvent
	for _, r := range rows {
		if r.MarketID != marketID {
			continue
		}
		ts := time.Unix(0, r.Timestamp).UTC()
		if !inWindow(ts, start, end) {
			continue
		}
		out = append(out, model.TradeEvent{
			TradeID: r.TradeID, MarketID: r.MarketID, Platform: model.Platform(r.Platform), Timestamp: ts,
			Side: model.OrderSide(r.Side), Price: r.Price, Size: r.Size, IsTaker: r.IsTaker, Fees: r.Fees,
		})
	}
	return out, nil
}

type resolutionRow struct {
	MarketID  string `parquet:"name=market_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Platform  string `parquet:"name=platform, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp int64  `parquet:"name=timestamp, type=INT64"`
	Outcome   string `parquet:"name=outcome, type=BYTE_ARRAY, convertedtype=UTF8"`
	Question  string `parquet:"name=question, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func (s *ParquetStore) SaveResolutions(resolutions []model.MarketResolution) error {
	var rows []resolutionRow
	if err := readParquet(s.path("resolutions"), new(resolutionRow), &rows); err != nil {
		return err
	}
	for _, r := range resolutions {
		rows = append(rows, resolutionRow{
			MarketID: r.MarketID, Platform: string(r.Platform), Timestamp: r.Timestamp.UnixNano(),
			Outcome: string(r.Outcome), Question: r.Question,
		})
	}
	return writeParquet(s.path("resolutions"), new(resolutionRow), rows)
}

func (s *ParquetStore) LoadResolutions(marketID string, start, end time.Time) ([]model.MarketResolution, error) {
	var rows []resolutionRow
	if err := readParquet(s.path("resolutions"), new(resolutionRow), &rows); err != nil {
		return nil, err
	}
	var out []model.MarketResolution
	for _, r := range rows {
		if r.MarketID != marketID {
			continue
		}
		ts := time.Unix(0, r.Timestamp).UTC()
		if !inWindow(ts, start, end) {
			continue
		}
		out = append(out, model.MarketResolution{
			MarketID: r.MarketID, Platform: model.Platform(r.Platform), Timestamp: ts,
			Outcome: model.ResolutionOutcome(r.Outcome), Question: r.Question,
		})
	}
	return out, nil
}

// Order books are not given a Parquet row type: their nested
// bid/ask level lists do not map onto a flat columnar schema without
// a repeated/group schema this package does not otherwise need, so
// ParquetStore falls back to an embedded CSVStore for that one entity.
func (s *ParquetStore) ensureCSVFallback() (*CSVStore, error) {
	return NewCSVStore(s.baseDir)
}

func (s *ParquetStore) SaveOrderBooks(books []model.OrderBookSnapshot) error {
	cs, err := s.ensureCSVFallback()
	if err != nil {
		return err
	}
	return cs.SaveOrderBooks(books)
}

func (s *ParquetStore) LoadOrderBooks(marketID string, start, end time.Time) ([]model.OrderBookSnapshot, error) {
	cs, err := s.ensureCSVFallback()
	if err != nil {
		return nil, err
	}
	return cs.LoadOrderBooks(marketID, start, end)
}

func writeParquet(path string, obj interface{}, rows interface{}) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("store: open parquet writer %s: %w", path, err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, obj, 4)
	if err != nil {
		return fmt.Errorf("store: new parquet writer: %w", err)
	}
	pw.RowGroupSize = 64 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	if err := writeRows(pw, rows); err != nil {
		return err
	}
	return pw.WriteStop()
}

func writeRows(pw *writer.ParquetWriter, rows interface{}) error {
	switch typed := rows.(type) {
	case []snapshotRow:
		for _, r := range typed {
			if err := pw.Write(r); err != nil {
				return err
			}
		}
	case []tradeRow:
		for _, r := range typed {
			if err := pw.Write(r); err != nil {
				return err
			}
		}
	case []resolutionRow:
		for _, r := range typed {
			if err := pw.Write(r); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("store: unsupported parquet row slice type %T", rows)
	}
	return nil
}

func readParquet(path string, obj interface{}, out interface{}) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return fmt.Errorf("store: open parquet reader %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, obj, 4)
	if err != nil {
		return fmt.Errorf("store: new parquet reader: %w", err)
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	switch dst := out.(type) {
	case *[]snapshotRow:
		rows := make([]snapshotRow, num)
		if err := pr.Read(&rows); err != nil {
			return err
		}
		*dst = rows
	case *[]tradeRow:
		rows := make([]tradeRow, num)
		if err := pr.Read(&rows); err != nil {
			return err
		}
		*dst = rows
	case *[]resolutionRow:
		rows := make([]resolutionRow, num)
		if err := pr.Read(&rows); err != nil {
			return err
		}
		*dst = rows
	default:
		return fmt.Errorf("store: unsupported parquet row slice type %T", out)
	}
	return nil
}

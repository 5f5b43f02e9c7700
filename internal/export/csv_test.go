package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/guttosm/itchpulse/internal/book"
	"github.com/guttosm/itchpulse/internal/itch"
	"github.com/guttosm/itchpulse/internal/vwap"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestWriteVWAP(t *testing.T) {
	dir := book.NewDirectory()
	dir[1] = "ABCD"

	samples := []vwap.Sample{
		{Security: 1, Bucket: 1, VWAP: 10.0},
		{Security: 1, Bucket: 2, VWAP: 10.5},
		{Security: 9, Bucket: 1, VWAP: 3.25}, // no directory entry
	}

	path := filepath.Join(t.TempDir(), "vwap.csv")
	if err := WriteVWAP(path, dir, samples); err != nil {
		t.Fatalf("WriteVWAP: %v", err)
	}

	want := "name,hour,vwap\n" +
		"ABCD,1,10.0000\n" +
		"ABCD,2,10.5000\n" +
		"UNKNOWN,1,3.2500\n"
	if got := readFile(t, path); got != want {
		t.Fatalf("vwap.csv mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteTrades_DeterministicOrder(t *testing.T) {
	dir := book.NewDirectory()
	dir[1] = "ABCD"
	dir[2] = "WXYZ"

	ledger := book.NewLedger()
	ledger[2] = map[itch.MatchNumber]book.TradeRecord{
		7: {Timestamp: 30, Shares: 10, Price: 2.0},
	}
	ledger[1] = map[itch.MatchNumber]book.TradeRecord{
		9: {Timestamp: 20, Shares: 300, Price: 10.0},
		5: {Timestamp: 10, Shares: 200, Price: 10.0},
	}

	path := filepath.Join(t.TempDir(), "raw_trades.csv")
	for i := 0; i < 5; i++ {
		if err := WriteTrades(path, dir, ledger); err != nil {
			t.Fatalf("WriteTrades: %v", err)
		}
		want := "name,ts,vol,price\n" +
			"ABCD,10,200,10.0000\n" +
			"ABCD,20,300,10.0000\n" +
			"WXYZ,30,10,2.0000\n"
		if got := readFile(t, path); got != want {
			t.Fatalf("raw_trades.csv mismatch:\ngot:\n%s\nwant:\n%s", got, want)
		}
	}
}

func TestWriteOpenOrders(t *testing.T) {
	dir := book.NewDirectory()
	dir[3] = "EFGH"

	b := book.NewBook()
	b[3] = map[itch.OrderRef]book.RestingOrder{
		101: {Timestamp: 40, Shares: 25, Price: 7.5},
		100: {Timestamp: 35, Shares: 50, Price: 7.25},
	}

	path := filepath.Join(t.TempDir(), "open_orders.csv")
	if err := WriteOpenOrders(path, dir, b); err != nil {
		t.Fatalf("WriteOpenOrders: %v", err)
	}

	want := "name,ts,vol,price\n" +
		"EFGH,35,50,7.2500\n" +
		"EFGH,40,25,7.5000\n"
	if got := readFile(t, path); got != want {
		t.Fatalf("open_orders.csv mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteCSV_CreateError(t *testing.T) {
	err := WriteVWAP(filepath.Join(t.TempDir(), "missing", "vwap.csv"), book.NewDirectory(), nil)
	if err == nil {
		t.Fatalf("expected error for unwritable path")
	}
}

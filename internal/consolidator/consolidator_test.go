package consolidator

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nconklindev/tally/internal/testutil"
	"github.com/nconklindev/tally/internal/types"
)

func itemSheet(values [][]any) testutil.Sheet {
	return testutil.Sheet{Name: "ITEM_O", Cells: testutil.Rows(1, 2, values)}
}

// recordingSink captures what would have been written.
type recordingSink struct {
	calls int
	dir   string
	table *types.Table
	err   error
}

func (s *recordingSink) Write(dir string, table *types.Table) (string, []string, error) {
	s.calls++
	s.dir = dir
	s.table = table
	if s.err != nil {
		return "", nil, s.err
	}
	return filepath.Join(dir, "Out.xlsx"), nil, nil
}

func TestRun_SingleFileScenario(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteWorkbook(t, dir, "AvanceVentasINTI.2024.01.15.sales.xlsx", itemSheet([][]any{{1, "x"}, {2, "y"}}))

	sink := &recordingSink{}
	c := New(DefaultOptions(), sink, nil)
	res, err := c.Run(context.Background(), types.Request{Directory: dir, StartColumn: "A", EndColumn: "C", StartRow: "2"}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	table := res.Table
	if got := table.Headers(); !reflect.DeepEqual(got, []string{"A", "B", "C", "ANIO", "MES", "DIA"}) {
		t.Errorf("Headers() = %v", got)
	}
	expected := [][]any{
		{1.0, "x", nil, "2024", "01", "15"},
		{2.0, "y", nil, "2024", "01", "15"},
	}
	if !reflect.DeepEqual(table.Rows, expected) {
		t.Errorf("Rows = %#v; want %#v", table.Rows, expected)
	}

	kinds := []types.ColumnKind{types.KindNumeric, types.KindCategorical, types.KindOther, types.KindCategorical, types.KindCategorical, types.KindCategorical}
	for i, k := range kinds {
		if table.Columns[i].Kind != k {
			t.Errorf("column %s kind = %s; want %s", table.Columns[i].Name, table.Columns[i].Kind, k)
		}
	}

	if sink.calls != 1 || sink.dir != dir || sink.table != table {
		t.Errorf("sink not handed the table: %+v", sink)
	}
	if res.OutputPath != filepath.Join(dir, "Out.xlsx") {
		t.Errorf("OutputPath = %s", res.OutputPath)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if len(res.Files) != 1 || res.Files[0].Rows != 2 {
		t.Errorf("Files = %+v", res.Files)
	}
}

func TestRun_PreservesFileAndRowOrder(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteWorkbook(t, dir, testutil.SalesFile("2024", "02", "01", "b"), itemSheet([][]any{{"b1"}, {"b2"}}))
	testutil.WriteWorkbook(t, dir, testutil.SalesFile("2024", "01", "31", "a"), itemSheet([][]any{{"a1"}, {"a2"}, {"a3"}}))

	c := New(DefaultOptions(), nil, nil)
	res, err := c.Run(context.Background(), types.Request{Directory: dir, StartColumn: "A", EndColumn: "A", StartRow: "2"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	expected := [][]any{
		{"a1", "2024", "01", "31"},
		{"a2", "2024", "01", "31"},
		{"a3", "2024", "01", "31"},
		{"b1", "2024", "02", "01"},
		{"b2", "2024", "02", "01"},
	}
	if !reflect.DeepEqual(res.Table.Rows, expected) {
		t.Errorf("Rows = %v; want %v", res.Table.Rows, expected)
	}
}

func TestRun_RerunIsIdentical(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteWorkbook(t, dir, testutil.SalesFile("2024", "01", "01", "a"), itemSheet([][]any{{1, "x", 3.5}, {nil, "y"}}))
	testutil.WriteWorkbook(t, dir, testutil.SalesFile("2024", "01", "02", "b"), itemSheet([][]any{{4, "z", 1}}))

	c := New(DefaultOptions(), nil, nil)
	req := types.Request{Directory: dir, StartColumn: "A", EndColumn: "C", StartRow: "2"}
	first, err := c.Run(context.Background(), req, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Run(context.Background(), req, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Table, second.Table) {
		t.Errorf("rerun differs:\n%v\n%v", first.Table, second.Table)
	}
}

func TestRun_UndatedFileGetsEmptyTags(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteWorkbook(t, dir, "AvanceVentasINTI_enero.xlsx", itemSheet([][]any{{7}}))

	c := New(DefaultOptions(), nil, nil)
	res, err := c.Run(context.Background(), types.Request{Directory: dir, StartColumn: "A", EndColumn: "A", StartRow: "2"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Table.Rows, [][]any{{7.0, "", "", ""}}) {
		t.Errorf("Rows = %#v", res.Table.Rows)
	}
}

func TestRun_NoInput(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteWorkbook(t, dir, "Report.2024.01.15.xlsx", itemSheet([][]any{{1}}))

	sink := &recordingSink{}
	c := New(DefaultOptions(), sink, nil)
	_, err := c.Run(context.Background(), types.Request{Directory: dir, StartColumn: "A", EndColumn: "A", StartRow: "1"}, nil)
	if !errors.Is(err, ErrNoInput) {
		t.Fatalf("Run() error = %v; want ErrNoInput", err)
	}
	if sink.calls != 0 {
		t.Error("sink called despite missing input")
	}
}

func TestRun_InvalidWindowBeforeIO(t *testing.T) {
	sink := &recordingSink{}
	c := New(DefaultOptions(), sink, nil)
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	_, err := c.Run(context.Background(), types.Request{Directory: missing, StartColumn: "P", EndColumn: "A", StartRow: "2"}, nil)
	if !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("Run() error = %v; want ErrInvalidWindow", err)
	}
	if errors.Is(err, ErrDirectory) {
		t.Error("directory was checked before input validation")
	}
}

func TestRun_MissingDirectory(t *testing.T) {
	c := New(DefaultOptions(), nil, nil)
	_, err := c.Run(context.Background(), types.Request{Directory: filepath.Join(t.TempDir(), "x"), StartColumn: "A", EndColumn: "B", StartRow: "1"}, nil)
	if !errors.Is(err, ErrDirectory) {
		t.Errorf("Run() error = %v; want ErrDirectory", err)
	}
}

func TestRun_MissingSheetFailFast(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteWorkbook(t, dir, testutil.SalesFile("2024", "01", "01", "a"), itemSheet([][]any{{1}}))
	testutil.WriteWorkbook(t, dir, testutil.SalesFile("2024", "01", "02", "b"), testutil.Sheet{Name: "Hoja1", Cells: map[string]any{"A2": 2}})
	testutil.WriteWorkbook(t, dir, testutil.SalesFile("2024", "01", "03", "c"), itemSheet([][]any{{3}}))

	sink := &recordingSink{}
	c := New(DefaultOptions(), sink, nil)
	_, err := c.Run(context.Background(), types.Request{Directory: dir, StartColumn: "A", EndColumn: "A", StartRow: "2"}, nil)
	if !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("Run() error = %v; want ErrSheetNotFound", err)
	}
	if sink.calls != 0 {
		t.Error("sink called after a fatal file error")
	}
}

func TestRun_MissingSheetSkip(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteWorkbook(t, dir, testutil.SalesFile("2024", "01", "01", "a"), itemSheet([][]any{{1}}))
	bad := testutil.WriteWorkbook(t, dir, testutil.SalesFile("2024", "01", "02", "b"), testutil.Sheet{Name: "Hoja1", Cells: map[string]any{"A2": 2}})
	testutil.WriteWorkbook(t, dir, testutil.SalesFile("2024", "01", "03", "c"), itemSheet([][]any{{3}}))

	opts := DefaultOptions()
	opts.Policy = PolicySkip
	progress := make(chan float64, 10)
	c := New(opts, &recordingSink{}, nil)
	res, err := c.Run(context.Background(), types.Request{Directory: dir, StartColumn: "A", EndColumn: "A", StartRow: "2"}, progress)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Skipped) != 1 || res.Skipped[0].Path != bad || res.Skipped[0].Stage != StageSheet {
		t.Errorf("Skipped = %+v", res.Skipped)
	}
	if len(res.Files) != 2 || len(res.Table.Rows) != 2 {
		t.Errorf("Files = %+v, rows = %v", res.Files, res.Table.Rows)
	}

	close(progress)
	var got []float64
	for p := range progress {
		got = append(got, p)
	}
	if !reflect.DeepEqual(got, []float64{1.0 / 3, 2.0 / 3, 1}) {
		t.Errorf("progress = %v", got)
	}
}

func TestRun_SkipEveryFileIsNoInput(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteWorkbook(t, dir, testutil.SalesFile("2024", "01", "01", "a"), testutil.Sheet{Name: "Hoja1"})

	opts := DefaultOptions()
	opts.Policy = PolicySkip
	c := New(opts, nil, nil)
	_, err := c.Run(context.Background(), types.Request{Directory: dir, StartColumn: "A", EndColumn: "A", StartRow: "1"}, nil)
	if !errors.Is(err, ErrNoInput) || !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("Run() error = %v; want ErrNoInput joined with ErrSheetNotFound", err)
	}
}

func TestRun_SinkErrorFailsRun(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteWorkbook(t, dir, testutil.SalesFile("2024", "01", "01", "a"), itemSheet([][]any{{1}}))

	boom := errors.New("disk full")
	c := New(DefaultOptions(), &recordingSink{err: boom}, nil)
	_, err := c.Run(context.Background(), types.Request{Directory: dir, StartColumn: "A", EndColumn: "A", StartRow: "2"}, nil)
	if !errors.Is(err, boom) {
		t.Errorf("Run() error = %v; want %v", err, boom)
	}
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteWorkbook(t, dir, testutil.SalesFile("2024", "01", "01", "a"), itemSheet([][]any{{1}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	c := New(DefaultOptions(), sink, nil)
	_, err := c.Run(ctx, types.Request{Directory: dir, StartColumn: "A", EndColumn: "A", StartRow: "2"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v; want context.Canceled", err)
	}
	if sink.calls != 0 {
		t.Error("sink called after cancellation")
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input    string
		expected Policy
		wantErr  bool
	}{
		{"fail-fast", PolicyFailFast, false},
		{"skip", PolicySkip, false},
		{"", PolicyFailFast, false},
		{"retry", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.input)
		if (err != nil) != tt.wantErr || got != tt.expected {
			t.Errorf("ParsePolicy(%q) = %q, %v", tt.input, got, err)
		}
	}
}

package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lgbarn/escort-chess-go/internal/board"
	"github.com/lgbarn/escort-chess-go/internal/layout"
	"github.com/lgbarn/escort-chess-go/internal/scenario"
)

func mustBoard(t *testing.T, s string) *board.Board {
	t.Helper()
	b, err := layout.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// TestRenderBoard verifies the plain grid layout
func TestRenderBoard(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		opts   BoardOptions
		want   string
	}{
		{
			name:   "pieces",
			layout: "K2/2k",
			want: " 1  K  .  . \n" +
				" 0  .  .  k \n" +
				"    0  1  2 \n",
		},
		{
			name:   "highlights",
			layout: "K2/3",
			opts:   BoardOptions{Highlights: []board.Coord{{X: 1, Y: 1}, {X: 0, Y: 0}, {X: 0, Y: 1}}},
			want: " 1  K  +  . \n" +
				" 0  +  .  . \n" +
				"    0  1  2 \n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := RenderBoard(&buf, mustBoard(t, tt.layout), tt.opts); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, buf.String()); diff != "" {
				t.Errorf("RenderBoard() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestRenderBoard_Reservations verifies reserved tiles are marked only on request
func TestRenderBoard_Reservations(t *testing.T) {
	b := mustBoard(t, "3/R2")
	rook := b.Occupant(b.TileAt(0, 0))
	b.Reserve(b.TileAt(2, 0), rook.ID)

	var plain, marked bytes.Buffer
	if err := RenderBoard(&plain, b, BoardOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := RenderBoard(&marked, b, BoardOptions{Reservations: true}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(plain.String(), markReserved) {
		t.Errorf("reservation shown without the option:\n%s", plain.String())
	}
	if !strings.Contains(marked.String(), " 0  R  .  * ") {
		t.Errorf("reservation not marked:\n%s", marked.String())
	}
}

// TestRenderBoard_Color verifies escape codes appear only when enabled
func TestRenderBoard_Color(t *testing.T) {
	b := mustBoard(t, "K1/1k")
	var plain, colored bytes.Buffer
	if err := RenderBoard(&plain, b, BoardOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := RenderBoard(&colored, b, BoardOptions{Color: true}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(plain.String(), "\x1b[") {
		t.Error("plain output contains escape codes")
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Error("colored output has no escape codes")
	}
}

func TestRenderLayout_Invalid(t *testing.T) {
	if err := RenderLayout(&bytes.Buffer{}, "K/x", BoardOptions{}); err == nil {
		t.Error("RenderLayout accepted an invalid layout")
	}
}

var results = []scenario.Result{
	{Name: "corner", Passed: true, Width: 2, Height: 1, Layout: "1R", Ticks: 20, Events: 5},
	{Name: "blocked", Passed: false, Width: 2, Height: 1, Layout: "R1", Want: "1R", Error: `layout "R1", want "1R"`, Halts: 1},
}

// TestTextWriter verifies status lines and board rendering
func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, true, false)
	for _, r := range results {
		if err := w.WriteResult(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"PASS corner (20 ticks, 5 events, 0 halts, 0 cascades)",
		"FAIL blocked",
		`layout "R1", want "1R"`,
		" 0  .  R \n",
		" 0  R  . \n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// TestJSONWriter_Batch verifies results are buffered until Close
func TestJSONWriter_Batch(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf)
	for _, r := range results {
		if err := w.WriteResult(r); err != nil {
			t.Fatal(err)
		}
	}
	if buf.Len() != 0 {
		t.Fatal("batch writer wrote before Close")
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var got JSONOutput
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if diff := cmp.Diff(Summary{Total: 2, Passed: 1, Failed: 1}, got.Summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(results, got.Results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	if err := w.Flush(); err != nil || buf.Len() != 0 {
		t.Errorf("second Flush wrote %q, err %v", buf.String(), err)
	}
}

// TestJSONWriter_Single verifies each result is written immediately
func TestJSONWriter_Single(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriterSingle(&buf)
	if err := w.WriteResult(results[0]); err != nil {
		t.Fatal(err)
	}
	var got scenario.Result
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Name != "corner" || !got.Passed {
		t.Errorf("decoded %+v", got)
	}
}

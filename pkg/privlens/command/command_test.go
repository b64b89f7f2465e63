package command

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/cognicore/privlens/internal/pagetext"
	"github.com/cognicore/privlens/pkg/privlens"
	"github.com/cognicore/privlens/pkg/privlens/highlight"
	"github.com/cognicore/privlens/pkg/privlens/internalerr"
	"github.com/cognicore/privlens/pkg/privlens/scan"
)

const page = `<html><head><title>Acme Privacy</title></head>
<body><p>Uses GPS for location tracking, location.</p><p>Contact us by email.</p></body></html>`

func newHarness(t *testing.T, opts ...Option) (*Dispatcher, *privlens.Engine) {
	t.Helper()
	doc, err := highlight.ParseDocument(strings.NewReader(page))
	require.NoError(t, err)

	engine := privlens.New(privlens.Options{Document: doc})
	t.Cleanup(func() { engine.Close() })

	return NewDispatcher(engine, pagetext.NewDocumentPage(doc, "https://acme.example/privacy"), opts...), engine
}

func TestHandle_Scan(t *testing.T) {
	d, _ := newHarness(t)

	out, err := d.Handle(Request{Cmd: CmdScan})
	require.NoError(t, err)

	resp, ok := out.(ScanResponse)
	require.True(t, ok)
	assert.Equal(t, "Acme Privacy", resp.Title)
	assert.Equal(t, "https://acme.example/privacy", resp.URL)
	require.Contains(t, resp.Results, "Location")
	assert.Equal(t, "gps", resp.Results["Location"][0].Term)
	assert.Len(t, resp.Results["Location"][1].Matches, 2)
	assert.Contains(t, resp.Results, "Contact Info")
}

func TestHandle_ScanWithHighlightAndFilter(t *testing.T) {
	d, engine := newHarness(t)

	out, err := d.Handle(Request{Cmd: CmdScan, Highlight: true, Categories: []string{"Contact Info"}})
	require.NoError(t, err)

	resp := out.(ScanResponse)
	assert.Equal(t, []string{"Contact Info"}, resp.Results.Categories())

	var terms []string
	engine.Document().Read(func(root *html.Node) {
		for _, m := range highlight.Markers(root) {
			terms = append(terms, highlight.MarkerTerm(m))
		}
	})
	assert.Equal(t, []string{"email"}, terms)

	// Scanning the highlighted page yields the same text and offsets.
	again, _ := d.Handle(Request{Cmd: CmdScan, Categories: []string{"Contact Info"}})
	assert.Equal(t, resp.Results, again.(ScanResponse).Results)
}

func TestHandle_ScrollToTerm(t *testing.T) {
	d, _ := newHarness(t)

	out, err := d.Handle(Request{Cmd: CmdScrollToTerm, Term: "gps"})
	require.NoError(t, err)
	assert.Equal(t, ScrollResponse{OK: false}, out, "nothing highlighted yet")

	_, err = d.Handle(Request{Cmd: CmdScan, Highlight: true})
	require.NoError(t, err)

	out, err = d.Handle(Request{Cmd: CmdScrollToTerm, Term: "GPS"})
	require.NoError(t, err)
	assert.Equal(t, ScrollResponse{OK: true}, out)
}

func TestHandle_UnknownCommand(t *testing.T) {
	d, _ := newHarness(t)

	_, err := d.Handle(Request{Cmd: "explode"})
	assert.ErrorIs(t, err, internalerr.ErrUnknownCommand)
}

func TestHandle_LastReportAndHook(t *testing.T) {
	var hooked []ScanResponse
	d, _ := newHarness(t, WithScanHook(func(r ScanResponse) { hooked = append(hooked, r) }), WithCacheSize(2))

	_, err := d.Handle(Request{Cmd: CmdLastReport})
	assert.ErrorIs(t, err, internalerr.ErrNotFound)

	_, err = d.Handle(Request{Cmd: CmdScan})
	require.NoError(t, err)

	out, err := d.Handle(Request{Cmd: CmdLastReport})
	require.NoError(t, err)
	assert.Equal(t, "Acme Privacy", out.(ScanResponse).Title)

	cached, ok := d.LastReport("https://acme.example/privacy")
	assert.True(t, ok)
	assert.Equal(t, cached, out)
	assert.Len(t, hooked, 1)
}

func TestHandleFrame(t *testing.T) {
	d, _ := newHarness(t)

	tests := []struct {
		name  string
		frame string
		want  string
	}{
		{"unknown", `{"cmd":"explode"}`, `{"error":"unknown command"}`},
		{"garbage", `{not json`, `{"error":"invalid request"}`},
		{"scroll", `{"cmd":"scrollToTerm","term":"gps"}`, `{"ok":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, string(d.HandleFrame([]byte(tt.frame))))
		})
	}
}

func TestHandleFrame_EmptyResultsEncodeAsObject(t *testing.T) {
	d := NewDispatcher(stubEngine{}, pagetext.Static{PageTitle: "t", PageURL: "u", Body: "nothing"})

	out := d.HandleFrame([]byte(`{"cmd":"scan"}`))
	assert.JSONEq(t, `{"title":"t","url":"u","results":{}}`, string(out))
}

func TestServe(t *testing.T) {
	d, _ := newHarness(t)

	in := strings.NewReader(strings.Join([]string{
		`{"cmd":"scan","highlight":true,"categories":["Location"]}`,
		``,
		`{"cmd":"scrollToTerm","term":"location"}`,
		`{"cmd":"nope"}`,
	}, "\n"))
	var out bytes.Buffer

	require.NoError(t, d.Serve(context.Background(), in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var scanResp ScanResponse
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &scanResp))
	assert.Equal(t, 3, scanResp.Results.MatchCount())
	assert.JSONEq(t, `{"ok":true}`, lines[1])
	assert.JSONEq(t, `{"error":"unknown command"}`, lines[2])
}

func TestServe_StopsOnCancel(t *testing.T) {
	d, _ := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := d.Serve(ctx, strings.NewReader(`{"cmd":"scan"}`+"\n"), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

type stubEngine struct{}

func (stubEngine) Scan(string, []string) scan.Report { return nil }
func (stubEngine) Highlight([]string) int            { return 0 }
func (stubEngine) Locate(string) bool                { return false }

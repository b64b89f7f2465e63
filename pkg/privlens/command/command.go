// Package command serves the JSON message protocol a host uses to drive
// scanning, highlighting and navigation on a page.
package command

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cognicore/privlens/pkg/privlens/internalerr"
	"github.com/cognicore/privlens/pkg/privlens/scan"
)

// Command names.
const (
	CmdScan         = "scan"
	CmdScrollToTerm = "scrollToTerm"
	CmdLastReport   = "lastReport"
)

// DefaultCacheSize bounds the number of pages whose last report is kept.
const DefaultCacheSize = 64

// Page supplies the content a scan runs over.
type Page interface {
	Title() string
	URL() string
	Text() string
}

// Engine is the detection surface the dispatcher drives.
type Engine interface {
	Scan(text string, categories []string) scan.Report
	Highlight(categories []string) int
	Locate(term string) bool
}

// Request is an inbound message.
type Request struct {
	Cmd        string   `json:"cmd"`
	Highlight  bool     `json:"highlight,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Term       string   `json:"term,omitempty"`
}

// ScanResponse answers a scan.
type ScanResponse struct {
	Title   string      `json:"title"`
	URL     string      `json:"url"`
	Results scan.Report `json:"results"`
}

// ScrollResponse answers scrollToTerm.
type ScrollResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse reports a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Dispatcher routes requests to an engine for one page.
type Dispatcher struct {
	engine Engine
	page   Page
	logger *slog.Logger
	cache  *lru.Cache[string, ScanResponse]
	onScan func(ScanResponse)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithScanHook registers fn to receive every scan response, e.g. to
// persist it.
func WithScanHook(fn func(ScanResponse)) Option {
	return func(d *Dispatcher) { d.onScan = fn }
}

// WithCacheSize sets how many pages keep their last report.
func WithCacheSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.cache, _ = lru.New[string, ScanResponse](n)
		}
	}
}

// NewDispatcher creates a dispatcher serving page through engine.
func NewDispatcher(engine Engine, page Page, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		engine: engine,
		page:   page,
		logger: slog.Default(),
	}
	d.cache, _ = lru.New[string, ScanResponse](DefaultCacheSize)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetPage switches the page subsequent requests run against.
func (d *Dispatcher) SetPage(p Page) {
	d.page = p
}

// LastReport returns the most recent scan response for url.
func (d *Dispatcher) LastReport(url string) (ScanResponse, bool) {
	return d.cache.Get(url)
}

// Handle executes one request. Unknown commands return
// internalerr.ErrUnknownCommand.
func (d *Dispatcher) Handle(req Request) (interface{}, error) {
	switch req.Cmd {
	case CmdScan:
		return d.scan(req), nil
	case CmdScrollToTerm:
		return ScrollResponse{OK: d.engine.Locate(req.Term)}, nil
	case CmdLastReport:
		resp, ok := d.cache.Get(d.page.URL())
		if !ok {
			return nil, fmt.Errorf("last report for %s: %w", d.page.URL(), internalerr.ErrNotFound)
		}
		return resp, nil
	default:
		return nil, fmt.Errorf("%q: %w", req.Cmd, internalerr.ErrUnknownCommand)
	}
}

func (d *Dispatcher) scan(req Request) ScanResponse {
	if req.Highlight {
		n := d.engine.Highlight(req.Categories)
		d.logger.Debug("page highlighted", slog.Int("markers", n))
	}

	results := d.engine.Scan(d.page.Text(), req.Categories)
	if results == nil {
		results = scan.Report{}
	}
	resp := ScanResponse{
		Title:   d.page.Title(),
		URL:     d.page.URL(),
		Results: results,
	}

	d.cache.Add(resp.URL, resp)
	if d.onScan != nil {
		d.onScan(resp)
	}
	return resp
}

// HandleFrame decodes one JSON frame, executes it and returns the encoded
// response. Failures become error responses.
func (d *Dispatcher) HandleFrame(frame []byte) []byte {
	var req Request
	var resp interface{}

	if err := json.Unmarshal(frame, &req); err != nil {
		d.logger.Warn("undecodable frame", slog.Any("error", err))
		resp = ErrorResponse{Error: "invalid request"}
	} else {
		out, err := d.Handle(req)
		switch {
		case errors.Is(err, internalerr.ErrUnknownCommand):
			d.logger.Debug("unknown command", slog.String("cmd", req.Cmd))
			resp = ErrorResponse{Error: "unknown command"}
		case errors.Is(err, internalerr.ErrNotFound):
			resp = ErrorResponse{Error: "no report"}
		case err != nil:
			resp = ErrorResponse{Error: err.Error()}
		default:
			resp = out
		}
	}

	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(ErrorResponse{Error: "encode response"})
	}
	return data
}

// Serve reads JSON lines from r and writes one response line per request
// to w until r is exhausted or ctx is done.
func (d *Dispatcher) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	bw := bufio.NewWriter(w)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		if _, err := bw.Write(append(d.HandleFrame(line), '\n')); err != nil {
			return err
		}
		if err := bw.Flush(); err != nil {
			return err
		}
	}
	return sc.Err()
}

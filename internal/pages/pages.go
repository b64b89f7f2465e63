package pages

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cognicore/privlens/internal/pagetext"
)

// Item is one page of a JSONL feed. Either Text or HTML carries the
// content; HTML wins when both are set.
type Item struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
	HTML  string `json:"html"`
}

// Page returns the item as a scannable page. HTML content is rendered to
// text and its <title> is used when Title is empty.
func (it Item) Page() pagetext.Static {
	p := pagetext.Static{PageTitle: it.Title, PageURL: it.URL, Body: it.Text}
	if it.HTML != "" {
		title, text := pagetext.FromHTML(it.HTML)
		p.Body = text
		if p.PageTitle == "" {
			p.PageTitle = title
		}
	}
	return p
}

// LoadFromJSONL loads items from a JSONL file. Malformed lines are logged
// and skipped.
func LoadFromJSONL(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	defer f.Close()

	items, err := Decode(f, slog.Default().With(slog.String("file", path)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// Decode reads JSONL items from r.
func Decode(r io.Reader, logger *slog.Logger) ([]Item, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var items []Item
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		var item Item
		if err := json.Unmarshal([]byte(text), &item); err != nil {
			logger.Warn("skipping malformed JSON", slog.Int("line", line), slog.Any("error", err))
			continue
		}
		items = append(items, item)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no valid items found")
	}
	return items, nil
}

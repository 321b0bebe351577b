// package formatter renders media lists, log entries and user records as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/goccy/go-json"
)

// Format is an output format accepted by --format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat maps a flag value to a [Format]. An empty value selects plain text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidInput, s)
	}
}

// table is the shape shared by every tabular export.
type table struct {
	title   string
	headers []string
	rows    [][]string
}

func mediaTable(title string, items []models.MediaItem) table {
	t := table{title: title, headers: []string{"ID", "Title", "Kind", "Released", "Popularity", "Rating"}}
	for _, item := range items {
		t.rows = append(t.rows, []string{
			item.ID,
			item.Title,
			item.Kind.String(),
			item.ReleaseDate,
			strconv.FormatFloat(item.Popularity, 'f', 1, 64),
			FormatRating(item.Rating),
		})
	}
	return t
}

func logTable(title string, entries []models.LogEntry) table {
	t := table{title: title, headers: []string{"ID", "Title", "Watched", "Rating", "Tags"}}
	for _, e := range entries {
		t.rows = append(t.rows, []string{e.ID, e.Title, e.WatchDate, FormatRating(e.Rating), strings.Join(e.Tags, ", ")})
	}
	return t
}

// FormatRating renders an optional rating, "-" when absent.
func FormatRating(r *float64) string {
	if r == nil {
		return "-"
	}
	return strconv.FormatFloat(*r, 'f', 1, 64)
}

func (t table) csv() ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(t.headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range t.rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func (t table) markdown() []byte {
	var buf bytes.Buffer

	if t.title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", t.title)
	}
	fmt.Fprintf(&buf, "**Count**: %d\n\n", len(t.rows))
	if len(t.rows) == 0 {
		return buf.Bytes()
	}

	buf.WriteString("| " + strings.Join(t.headers, " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(t.headers)) + "\n")
	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = escapeCell(c)
		}
		buf.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	return buf.Bytes()
}

// text renders one numbered line per row: the second column followed by the remaining non-empty columns.
func (t table) text() []byte {
	var buf bytes.Buffer

	if t.title != "" {
		fmt.Fprintf(&buf, "%s (%d)\n\n", t.title, len(t.rows))
	}
	for i, row := range t.rows {
		var extra []string
		for j, c := range row {
			if j == 1 || c == "" || c == "-" {
				continue
			}
			if j == 0 {
				c = "#" + c
			}
			extra = append(extra, c)
		}
		fmt.Fprintf(&buf, "%d. %s", i+1, row[1])
		if len(extra) > 0 {
			fmt.Fprintf(&buf, " [%s]", strings.Join(extra, ", "))
		}
		buf.WriteByte('\n')
	}

	return buf.Bytes()
}

func (t table) render(format Format, v any) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ToJSON(v)
	case FormatCSV:
		return t.csv()
	case FormatMarkdown:
		return t.markdown(), nil
	case FormatText:
		return t.text(), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidInput, format)
	}
}

// ToJSON encodes v as indented JSON with a trailing newline.
func ToJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Media renders a media list. title heads Markdown and text output.
func Media(format Format, title string, items []models.MediaItem) ([]byte, error) {
	if items == nil {
		items = []models.MediaItem{}
	}
	return mediaTable(title, items).render(format, items)
}

// Logs renders log entries.
func Logs(format Format, title string, entries []models.LogEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.LogEntry{}
	}
	return logTable(title, entries).render(format, entries)
}

// Feed renders the three recommendation lists one after another.
// JSON output is a single object and CSV output is one table distinguished by the Kind column.
func Feed(format Format, set models.RecommendationSet) ([]byte, error) {
	if format == FormatJSON {
		return ToJSON(set)
	}
	if format == FormatCSV {
		all := make([]models.MediaItem, 0, len(set.Movies)+len(set.Shows)+len(set.Books))
		all = append(append(append(all, set.Movies...), set.Shows...), set.Books...)
		return mediaTable("", all).csv()
	}

	var buf bytes.Buffer
	sections := []struct {
		title string
		items []models.MediaItem
	}{
		{"Movies", set.Movies},
		{"Shows", set.Shows},
		{"Books", set.Books},
	}
	for i, s := range sections {
		if i > 0 {
			buf.WriteByte('\n')
		}
		out, err := mediaTable(s.title, s.items).render(format, nil)
		if err != nil {
			return nil, err
		}
		buf.Write(out)
	}
	return buf.Bytes(), nil
}

// User renders the relationship view of a profile.
func User(format Format, user models.UserRef) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ToJSON(user)
	case FormatCSV:
		t := table{headers: []string{"Username", "Relation", "Other"}}
		for _, rel := range []struct {
			name string
			set  []string
		}{{"following", user.Following}, {"follower", user.Followers}, {"blocked", user.Blocked}} {
			for _, other := range rel.set {
				t.rows = append(t.rows, []string{user.Username, rel.name, other})
			}
		}
		return t.csv()
	case FormatMarkdown:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "# %s\n\n", user.Username)
		fmt.Fprintf(&buf, "**Following** (%d): %s\n\n", len(user.Following), strings.Join(user.Following, ", "))
		fmt.Fprintf(&buf, "**Followers** (%d): %s\n\n", len(user.Followers), strings.Join(user.Followers, ", "))
		fmt.Fprintf(&buf, "**Blocked** (%d): %s\n", len(user.Blocked), strings.Join(user.Blocked, ", "))
		return buf.Bytes(), nil
	case FormatText:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "User: %s\n", user.Username)
		fmt.Fprintf(&buf, "Following: %d %v\n", len(user.Following), user.Following)
		fmt.Fprintf(&buf, "Followers: %d %v\n", len(user.Followers), user.Followers)
		fmt.Fprintf(&buf, "Blocked: %d %v\n", len(user.Blocked), user.Blocked)
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidInput, format)
	}
}

// Write writes rendered output to w, passing through a rendering error.
//
//	formatter.Write(os.Stdout, formatter.Media(f, "Results", items))
func Write(w io.Writer, data []byte, err error) error {
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

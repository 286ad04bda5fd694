package pulse

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"corporate-pulse/internal/entity"

	"github.com/PuerkitoBio/goquery"
)

// FromEntity normalizes a stored row. Numeric columns that fail to parse become 0.
func FromEntity(e entity.PulseLog) Record {
	headline, news := ParseNews(string(e.TopNews))
	rec := Record{
		Ticker:     strings.ToUpper(strings.TrimSpace(e.Ticker)),
		ObservedAt: e.CreatedAt,
		HypeScore:  coerce(nullable(e.HypeScore.String, e.HypeScore.Valid)),
		GapScore:   coerce(nullable(e.GapScore.String, e.GapScore.Valid)),
		Headline:   headline,
		News:       news,
		Synthetic:  e.IsSynthetic,
	}
	rec.rawPE = nullable(e.PERatio.String, e.PERatio.Valid)
	rec.PERatio = coerce(rec.rawPE)
	return rec
}

// FromEntities normalizes rows preserving their order.
func FromEntities(rows []entity.PulseLog) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, FromEntity(row))
	}
	return records
}

// FromPayload builds a record from a decoded webhook object. ok is false when the object has no ticker.
func FromPayload(obj map[string]interface{}, receivedAt time.Time) (rec Record, ok bool) {
	ticker, _ := obj["ticker"].(string)
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return Record{}, false
	}

	rec = Record{
		Ticker:     ticker,
		ObservedAt: receivedAt,
		HypeScore:  coerce(obj["hype_score"]),
		GapScore:   coerce(obj["gap_score"]),
	}

	if raw, found := obj["pe_ratio"]; found {
		rec.rawPE = raw
	} else {
		rec.rawPE = obj["PERatio"]
	}
	rec.PERatio = coerce(rec.rawPE)

	if ts, found := obj["created_at"].(string); found {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.ObservedAt = parsed
		}
	}

	switch flag := obj["is_synthetic"].(type) {
	case bool:
		rec.Synthetic = flag
	case string:
		rec.Synthetic = strings.EqualFold(flag, "true")
	}

	rec.Headline, rec.News = newsFromValue(obj["top_news"])
	return rec, true
}

func newsFromValue(v interface{}) (string, []NewsItem) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return ParseNews(t)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return "", nil
		}
		return ParseNews(string(raw))
	}
}

// ParseNews extracts a headline from a top_news value, which is either free text,
// a JSON string, a JSON news object, or a JSON list of news objects.
func ParseNews(raw string) (string, []NewsItem) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}

	switch trimmed[0] {
	case '[':
		var items []NewsItem
		if err := json.Unmarshal([]byte(trimmed), &items); err == nil {
			items = cleanItems(items)
			if len(items) == 0 {
				return "", nil
			}
			return items[0].Title, items
		}
	case '{':
		if json.Valid([]byte(trimmed)) {
			// fields of the wrong type leave the item partially filled
			var item NewsItem
			_ = json.Unmarshal([]byte(trimmed), &item)
			items := cleanItems([]NewsItem{item})
			if len(items) == 0 {
				return "", nil
			}
			return items[0].Title, items
		}
	case '"':
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return ParseNews(s)
		}
	}

	return CleanHeadline(trimmed), nil
}

func cleanItems(items []NewsItem) []NewsItem {
	out := items[:0]
	for _, item := range items {
		item.Title = CleanHeadline(item.Title)
		if item.Title == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// CleanHeadline strips markup the pipeline sometimes leaves in scraped titles and collapses whitespace.
func CleanHeadline(s string) string {
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(s))
		if err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func nullable(s string, valid bool) interface{} {
	if !valid {
		return nil
	}
	return s
}

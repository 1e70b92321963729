package trace

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/go-logfmt/logfmt"
	jsoniter "github.com/json-iterator/go"
)

// Format represents the output format for trace events.
type Format uint8

const (
	FormatAuto   Format = iota // pick by output file extension
	FormatText                 // human-readable text
	FormatNDJSON               // newline-delimited JSON
	FormatLogfmt               // key=value lines
)

// ParseFormat converts a string to Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	case "logfmt":
		return FormatLogfmt, nil
	default:
		return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson|logfmt)", s)
	}
}

const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatEvent formats an event according to the specified format.
func FormatEvent(ev *Event, format Format) []byte {
	switch format {
	case FormatNDJSON:
		return formatNDJSON(ev)
	case FormatLogfmt:
		return formatLogfmt(ev)
	default:
		return formatText(ev)
	}
}

type jsonEvent struct {
	Time     string            `json:"time"`
	Seq      uint64            `json:"seq"`
	Kind     string            `json:"kind"`
	Scope    string            `json:"scope"`
	SpanID   uint64            `json:"span_id"`
	ParentID uint64            `json:"parent_id,omitempty"`
	GID      uint64            `json:"gid,omitempty"`
	Name     string            `json:"name"`
	Detail   string            `json:"detail,omitempty"`
	Pass     int               `json:"pass,omitempty"`
	Site     string            `json:"site,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

var ndjson = jsoniter.Config{SortMapKeys: true}.Froze()

// formatNDJSON formats an event as newline-delimited JSON.
func formatNDJSON(ev *Event) []byte {
	j := jsonEvent{
		Time:     ev.Time.Format(timeLayout),
		Seq:      ev.Seq,
		Kind:     ev.Kind.String(),
		Scope:    ev.Scope.String(),
		SpanID:   ev.SpanID,
		ParentID: ev.ParentID,
		GID:      ev.GID,
		Name:     ev.Name,
		Detail:   ev.Detail,
		Pass:     ev.Site.Pass,
		Site:     ev.Site.Loc(),
		Extra:    ev.Extra,
	}

	data, err := ndjson.Marshal(j)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"name":%q,"error":%q}`, ev.Name, err.Error()))
	}
	return append(data, '\n')
}

// formatLogfmt formats an event as one logfmt record; extras are appended
// in key order.
func formatLogfmt(ev *Event) []byte {
	var buf bytes.Buffer
	enc := logfmt.NewEncoder(&buf)
	kv := []any{
		"time", ev.Time.Format(timeLayout),
		"seq", ev.Seq,
		"kind", ev.Kind.String(),
		"scope", ev.Scope.String(),
		"span", ev.SpanID,
	}
	if ev.ParentID != 0 {
		kv = append(kv, "parent", ev.ParentID)
	}
	if ev.Site.Pass != 0 {
		kv = append(kv, "pass", ev.Site.Pass)
	}
	kv = append(kv, "name", ev.Name)
	if loc := ev.Site.Loc(); loc != "" {
		kv = append(kv, "site", loc)
	}
	if ev.Detail != "" {
		kv = append(kv, "detail", ev.Detail)
	}
	for _, k := range sortedKeys(ev.Extra) {
		kv = append(kv, k, ev.Extra[k])
	}
	if err := enc.EncodeKeyvals(kv...); err != nil {
		buf.Reset()
		_ = enc.EncodeKeyvals("name", ev.Name, "error", err.Error())
	}
	_ = enc.EndRecord()
	return buf.Bytes()
}

// formatText formats an event as human-readable text.
// Format: [seq] [pN] [indent]→/← name @site (detail) {k=v}
func formatText(ev *Event) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[%6d] ", ev.Seq)
	if ev.Site.Pass != 0 {
		fmt.Fprintf(&sb, "p%d ", ev.Site.Pass)
	}

	if ev.ParentID > 0 {
		sb.WriteString("  ")
	}

	switch ev.Kind {
	case KindSpanBegin:
		sb.WriteString("\u2192 ") // →
	case KindSpanEnd:
		sb.WriteString("\u2190 ") // ←
	case KindPoint:
		sb.WriteString("\u2022 ") // •
	case KindHeartbeat:
		sb.WriteString("\u2661 ") // ♡
	}

	sb.WriteString(ev.Name)
	if loc := ev.Site.Loc(); loc != "" {
		sb.WriteString(" @")
		sb.WriteString(loc)
	}

	if ev.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(ev.Detail)
		sb.WriteString(")")
	}

	if len(ev.Extra) > 0 {
		sb.WriteString(" {")
		for i, k := range sortedKeys(ev.Extra) {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(ev.Extra[k])
		}
		sb.WriteString("}")
	}

	sb.WriteString("\n")
	return []byte(sb.String())
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

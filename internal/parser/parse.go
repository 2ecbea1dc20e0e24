package parser

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rosshhun/docktail-go/internal/docker"
)

// MaxLineSize is the largest line a parser accepts (spec §4.3).
const MaxLineSize = 1 << 20 // 1 MiB

// ErrLineTooLarge is returned when a raw line exceeds MaxLineSize. It is an
// alias of the Engine Adapter's own closed error taxonomy so RPC Surface
// handlers can map both sources through one errors.Is switch
// (internal/rpcapi.MapError).
var ErrLineTooLarge = docker.ErrLineTooLarge

// RequestDetail captures an HTTP-shaped log line's structured fields.
type RequestDetail struct {
	Method     string
	Path       string
	RemoteAddr string
	StatusCode int
	DurationMS float64
	RequestID  string
}

// ErrorDetail captures an error-shaped field group, when present.
type ErrorDetail struct {
	Type    string
	Message string
	Stack   string
	File    string
	Line    int
}

// Field is one key/value pair from a parsed line, in source order.
type Field struct {
	Key   string
	Value any
}

// ParsedLog is the structured result of parsing one raw log line
// (spec §3 data model).
type ParsedLog struct {
	Level      string
	Message    string
	Logger     string
	Timestamp  string
	Request    *RequestDetail
	Error      *ErrorDetail
	Fields     []Field
	RawContent []byte
}

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// stripANSI removes terminal color/control escape sequences before
// structured extraction (spec §4.3).
func stripANSI(line []byte) []byte {
	return ansiRE.ReplaceAll(line, nil)
}

// Parse dispatches to the parser for format, enforcing MaxLineSize and
// best-effort UTF-8 decoding (non-UTF-8 yields Message="" but preserves
// RawContent) for every format.
func Parse(format Format, line []byte) (ParsedLog, error) {
	if len(line) > MaxLineSize {
		return ParsedLog{}, ErrLineTooLarge
	}

	raw := append([]byte(nil), line...)
	clean := stripANSI(line)
	validUTF8 := utf8.Valid(clean)

	var pl ParsedLog
	switch format {
	case FormatJSON:
		pl = parseJSON(clean, validUTF8)
	case FormatLogfmt:
		pl = parseLogfmt(clean, validUTF8)
	case FormatSyslog:
		pl = parseSyslog(clean, validUTF8)
	case FormatHTTP:
		pl = parseHTTP(clean, validUTF8)
	default:
		pl = parsePlain(clean, validUTF8)
	}
	pl.RawContent = raw
	return pl, nil
}

func decodeJSONObject(line []byte) (map[string]any, bool) {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(line))
	if err := dec.Decode(&m); err != nil {
		return nil, false
	}
	return m, true
}

func parseJSON(line []byte, validUTF8 bool) ParsedLog {
	fields, ok := decodeJSONObject(line)
	if !ok {
		return parsePlain(line, validUTF8)
	}

	pl := ParsedLog{}
	for _, k := range orderedKeys(line, fields) {
		v := fields[k]
		switch k {
		case "level", "severity":
			pl.Level, _ = v.(string)
		case "msg", "message":
			if !validUTF8 {
				continue
			}
			pl.Message, _ = v.(string)
		case "logger", "logger_name":
			pl.Logger, _ = v.(string)
		case "ts", "time", "@timestamp":
			pl.Timestamp = stringify(v)
		default:
			pl.Fields = append(pl.Fields, Field{Key: k, Value: v})
		}
	}
	return pl
}

// orderedKeys best-effort recovers source key order by scanning the raw
// bytes for each key's first quoted occurrence, since encoding/json's
// map decode loses order. Ties (duplicate keys) fall back to map order.
func orderedKeys(line []byte, fields map[string]any) []string {
	type pos struct {
		key string
		idx int
	}
	positions := make([]pos, 0, len(fields))
	for k := range fields {
		idx := bytes.Index(line, []byte(`"`+k+`"`))
		positions = append(positions, pos{k, idx})
	}
	for i := 1; i < len(positions); i++ {
		for j := i; j > 0 && positions[j].idx < positions[j-1].idx; j-- {
			positions[j], positions[j-1] = positions[j-1], positions[j]
		}
	}
	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = p.key
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func parseLogfmt(line []byte, validUTF8 bool) ParsedLog {
	pl := ParsedLog{}
	// Split on whitespace outside double quotes, so quoted values keep spaces.
	var tokens [][]byte
	start, inQuote := 0, false
	for i := 0; i <= len(line); i++ {
		if i < len(line) && line[i] == '"' {
			inQuote = !inQuote
		}
		if i == len(line) || (!inQuote && (line[i] == ' ' || line[i] == '\t')) {
			if i > start {
				tokens = append(tokens, line[start:i])
			}
			start = i + 1
		}
	}
	for _, tok := range tokens {
		kv := bytes.SplitN(tok, []byte{'='}, 2)
		if len(kv) != 2 {
			continue
		}
		key := string(kv[0])
		val := strings.Trim(string(kv[1]), `"`)
		switch key {
		case "level":
			pl.Level = val
		case "msg", "message":
			if validUTF8 {
				pl.Message = val
			}
		case "logger":
			pl.Logger = val
		case "ts", "time":
			pl.Timestamp = val
		default:
			pl.Fields = append(pl.Fields, Field{Key: key, Value: val})
		}
	}
	return pl
}

func parseSyslog(line []byte, validUTF8 bool) ParsedLog {
	pl := ParsedLog{}
	s := string(line)
	if close := strings.Index(s, ">"); close > 0 && strings.HasPrefix(s, "<") {
		rest := s[close+1:]
		pl.Fields = append(pl.Fields, Field{Key: "priority", Value: s[1:close]})
		if validUTF8 {
			pl.Message = strings.TrimSpace(rest)
		}
	} else if validUTF8 {
		pl.Message = s
	}
	return pl
}

func parseHTTP(line []byte, validUTF8 bool) ParsedLog {
	pl := ParsedLog{}
	m := httpLogRE.FindSubmatch(line)
	if m == nil {
		return parsePlain(line, validUTF8)
	}

	req := &RequestDetail{
		RemoteAddr: string(m[1]),
		Method:     string(m[2]),
		Path:       string(m[3]),
	}
	if status, err := strconv.Atoi(string(m[4])); err == nil {
		req.StatusCode = status
	}
	pl.Request = req
	if validUTF8 {
		pl.Message = string(line)
	}
	return pl
}

func parsePlain(line []byte, validUTF8 bool) ParsedLog {
	pl := ParsedLog{}
	if validUTF8 {
		pl.Message = string(line)
	}
	return pl
}

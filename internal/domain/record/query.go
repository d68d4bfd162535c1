package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var fieldName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Eq - фильтр на точное совпадение текстового представления поля.
type Eq struct {
	Field string `json:"field" doc:"Имя поля"`
	Value string `json:"value" doc:"Ожидаемое значение"`
}

// Query - предикат выборки, одинаково исполняемый сервером и локальным хранилищем.
//
// Text ищется как подстрока без учета регистра в любом из Fields.
// Записи без поля "active" считаются активными.
type Query struct {
	ActiveOnly bool     `json:"active_only,omitempty" doc:"Только активные записи"`
	Filters    []Eq     `json:"filters,omitempty" doc:"Фильтры на равенство"`
	Text       string   `json:"text,omitempty" doc:"Строка поиска"`
	Fields     []string `json:"fields,omitempty" doc:"Поля для поиска"`
}

// Validate проверяет имена полей.
func (q Query) Validate() error {
	for _, f := range q.Filters {
		if !fieldName.MatchString(f.Field) {
			return fmt.Errorf("%w: filter field %q", ErrInvalidQuery, f.Field)
		}
	}
	for _, f := range q.Fields {
		if !fieldName.MatchString(f) {
			return fmt.Errorf("%w: search field %q", ErrInvalidQuery, f)
		}
	}
	return nil
}

// Match применяет предикат к данным записи.
func (q Query) Match(data json.RawMessage) bool {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return false
	}

	if q.ActiveOnly {
		if active, ok := m["active"].(bool); ok && !active {
			return false
		}
	}

	for _, f := range q.Filters {
		// null, как и отсутствующее поле, не равен ничему
		v, ok := m[f.Field]
		if !ok || v == nil || Text(v) != f.Value {
			return false
		}
	}

	if q.Text == "" {
		return true
	}

	needle := strings.ToLower(q.Text)
	for _, f := range q.Fields {
		if v, ok := m[f]; ok && v != nil && strings.Contains(strings.ToLower(Text(v)), needle) {
			return true
		}
	}
	return false
}

// Filter возвращает записи, удовлетворяющие предикату, сохраняя порядок.
func (q Query) Filter(recs []Record) []Record {
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if q.Match(r.Data) {
			out = append(out, r)
		}
	}
	return out
}

// Text приводит JSON-значение к строке так же, как оператор ->> в PostgreSQL.
// Вложенные объекты и массивы выводятся в текстовом формате jsonb.
func Text(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		var sb strings.Builder
		writeJSONB(&sb, v)
		return sb.String()
	}
}

// writeJSONB пишет значение так, как его печатает jsonb: ключи упорядочены
// по длине, затем побайтно, после запятых и двоеточий стоит пробел.
func writeJSONB(sb *strings.Builder, v any) {
	switch v := v.(type) {
	case nil:
		sb.WriteString("null")
	case string:
		writeJSONBString(sb, v)
	case json.Number:
		sb.WriteString(v.String())
	case float64:
		sb.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	case bool:
		sb.WriteString(strconv.FormatBool(v))
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if len(keys[i]) != len(keys[j]) {
				return len(keys[i]) < len(keys[j])
			}
			return keys[i] < keys[j]
		})

		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeJSONBString(sb, k)
			sb.WriteString(": ")
			writeJSONB(sb, v[k])
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, it := range v {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeJSONB(sb, it)
		}
		sb.WriteByte(']')
	default:
		b, err := json.Marshal(v)
		if err == nil {
			sb.Write(b)
		}
	}
}

// writeJSONBString экранирует строку по правилам escape_json в PostgreSQL.
func writeJSONBString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if c < 0x20 {
				fmt.Fprintf(sb, `\u%04x`, c)
			} else {
				sb.WriteByte(c)
			}
		}
	}
	sb.WriteByte('"')
}

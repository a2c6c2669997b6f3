// Пакет canonical — детерминированная сериализация метаданных для хеширования.
//
// Формат — канонический JSON с фиксированными разделителями:
// ключи объектов отсортированы лексикографически на каждом уровне вложенности,
// элементы разделяются ", ", ключ и значение — ": ", не-ASCII символы
// сохраняются как есть (без \u-экранирования). Две структурно равные
// структуры всегда дают идентичные байты независимо от порядка построения.
//
// Допустимые типы значений: string, int/int64, bool и вложенные
// map[string]any из таких значений. Всё остальное — ErrEncoding
// (защитный контракт: валидированная модель таких значений не порождает).
package canonical

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"
)

// ErrEncoding — значение не сериализуемо в каноническую форму.
var ErrEncoding = errors.New("значение не сериализуемо в каноническую форму")

// Marshal сериализует значение в канонические байты.
// Детерминированность — единственная гарантия, которая нужна потребителям:
// proof-хеш считается только над результатом этой функции.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encode рекурсивно записывает значение в buf.
func encode(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case string:
		encodeString(buf, val)
		return nil
	case int:
		fmt.Fprintf(buf, "%d", val)
		return nil
	case int64:
		fmt.Fprintf(buf, "%d", val)
		return nil
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case map[string]any:
		return encodeObject(buf, val)
	default:
		return fmt.Errorf("%w: неподдерживаемый тип %T", ErrEncoding, v)
	}
}

// encodeObject записывает объект с ключами в лексикографическом порядке.
func encodeObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		encodeString(buf, k)
		buf.WriteString(": ")
		if err := encode(buf, obj[k]); err != nil {
			return fmt.Errorf("ключ %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// encodeString записывает JSON-строку без \u-экранирования не-ASCII символов.
// Экранируются только кавычка, обратный слэш и управляющие символы < 0x20.
func encodeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else if r == utf8.RuneError {
				// Некорректный UTF-8 заменяется на replacement rune,
				// чтобы результат оставался валидным UTF-8.
				buf.WriteRune(utf8.RuneError)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

package encode

import (
	"math"
	"strconv"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/confkit/toml-csl/doctree"
	"github.com/confkit/toml-csl/token"
	"github.com/confkit/toml-csl/toml"
)

// JSON renders the tree as JSON, preserving document key order. In
// tagged mode every scalar becomes {"type": tag, "value": string}.
func JSON(node doctree.Node, tagged bool) string {
	var sb strings.Builder
	writeJSON(&sb, node, tagged)
	return sb.String()
}

func jsonString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

func writeTagged(sb *strings.Builder, typ, value string) {
	sb.WriteString(`{"type":`)
	sb.WriteString(jsonString(typ))
	sb.WriteString(`,"value":`)
	sb.WriteString(jsonString(value))
	sb.WriteString(`}`)
}

func writeJSON(sb *strings.Builder, node doctree.Node, tagged bool) {
	if node == nil {
		sb.WriteString("null")
		return
	}
	switch n := node.(type) {
	case *doctree.Value:
		writeValueJSON(sb, n, tagged)
	case *doctree.Array:
		sb.WriteString("[")
		for i, elem := range n.Elems {
			if i > 0 {
				sb.WriteString(",")
			}
			writeJSON(sb, elem, tagged)
		}
		sb.WriteString("]")
	case *doctree.Table:
		sb.WriteString("{")
		first := true
		for _, key := range n.Keys() {
			if !first {
				sb.WriteString(",")
			}
			first = false
			sb.WriteString(jsonString(key.Id))
			sb.WriteString(":")
			writeJSON(sb, key.Val, tagged)
		}
		sb.WriteString("}")
	case *doctree.Key:
		sb.WriteString("{")
		sb.WriteString(jsonString(n.Id))
		sb.WriteString(":")
		writeJSON(sb, n.Val, tagged)
		sb.WriteString("}")
	}
}

func writeValueJSON(sb *strings.Builder, value *doctree.Value, tagged bool) {
	switch value.Tag.Kind {
	case token.TagString:
		content := toml.StringContent(value.Text, value.Tag.String)
		if tagged {
			writeTagged(sb, "string", content)
		} else {
			sb.WriteString(jsonString(content))
		}
	case token.TagInteger:
		dec := toml.NormalizeInteger(value.Text)
		if tagged {
			writeTagged(sb, "integer", dec)
		} else {
			sb.WriteString(dec)
		}
	case token.TagFloat:
		norm := toml.NormalizeFloat(value.Text)
		if tagged {
			writeTagged(sb, "float", norm)
		} else {
			f, err := strconv.ParseFloat(norm, 64)
			if err != nil {
				sb.WriteString("null")
				return
			}
			sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		}
	case token.TagBoolean:
		if tagged {
			writeTagged(sb, "bool", value.Text)
		} else {
			sb.WriteString(value.Text)
		}
	case token.TagDateTime:
		if tagged {
			var typ string
			switch value.Tag.DateTime {
			case token.OffsetDateTime:
				typ = "datetime"
			case token.LocalDateTime:
				typ = "datetime-local"
			case token.LocalDate:
				typ = "date-local"
			case token.LocalTime:
				typ = "time-local"
			}
			writeTagged(sb, typ, value.Text)
		} else {
			sb.WriteString(jsonString(value.Text))
		}
	case token.TagSpecialNumber:
		if tagged {
			if value.Tag.Special == token.NaN {
				writeTagged(sb, "float", "nan")
			} else {
				writeTagged(sb, "float", value.Text)
			}
		} else {
			// JSON has no NaN or infinity; mirror their IEEE meaning as
			// closely as the format allows
			f := specialValue(value.Text)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				sb.WriteString("null")
			} else {
				sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
			}
		}
	default:
		sb.WriteString("null")
	}
}

func specialValue(text string) float64 {
	switch text {
	case "nan", "+nan":
		return math.NaN()
	case "-nan":
		return math.Copysign(math.NaN(), -1)
	case "inf", "+inf":
		return math.Inf(1)
	case "-inf":
		return math.Inf(-1)
	}
	return math.NaN()
}

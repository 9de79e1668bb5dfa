package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

// MaxTitleLength is the platform's limit on requisition titles, in characters.
const MaxTitleLength = 14

// secondsThreshold separates second from millisecond timestamps.
const secondsThreshold = 10_000_000_000

// minTimestampDigits is the shortest digit string read as an epoch
// timestamp. Shorter strings such as "20240115" go through the text layouts.
const minTimestampDigits = 10

// decimalPattern is the only numeric string form accepted. It excludes
// exponents, "NaN" and "Inf".
var decimalPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// DimensionResolver maps a free-text value onto a dimension item ID.
type DimensionResolver interface {
	ResolveItemID(ctx context.Context, dimensionName string, raw any) string
}

// datePattern is one textual date layout. Layouts without a year use the
// current one.
type datePattern struct {
	re      *regexp.Regexp
	hasYear bool
}

// datePatterns are tried in order; the first that matches decides.
var datePatterns = []datePattern{
	{re: regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`), hasYear: true},
	{re: regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`), hasYear: true},
	{re: regexp.MustCompile(`(\d{1,2})-(\d{1,2})`)},
	{re: regexp.MustCompile(`(\d{1,2})/(\d{1,2})`)},
	{re: regexp.MustCompile(`(\d{1,2})月(\d{1,2})日`)},
}

// FieldCoercer turns loosely typed extracted values into the wire values the
// platform expects. Coercion never fails; unusable values degrade to a
// safe default and are logged.
type FieldCoercer struct {
	dimensions DimensionResolver
	now        func() time.Time
	logger     *slog.Logger
}

// NewFieldCoercer creates a FieldCoercer that resolves dimension-bound fields
// through dimensions.
func NewFieldCoercer(dimensions DimensionResolver, logger *slog.Logger) *FieldCoercer {
	return &FieldCoercer{
		dimensions: dimensions,
		now:        time.Now,
		logger:     logger,
	}
}

// SetClock replaces the time source used for date defaults.
func (c *FieldCoercer) SetClock(now func() time.Time) {
	c.now = now
}

// Coerce converts raw according to field. Fields without a descriptor pass
// through. Dimension binding takes precedence over the declared type.
func (c *FieldCoercer) Coerce(ctx context.Context, name string, raw any, field *model.FieldDescriptor) any {
	if field == nil {
		return raw
	}
	if field.IsDimension() {
		return c.CoerceDimension(ctx, field, raw)
	}

	switch field.Type {
	case model.FieldTypeMoney:
		return c.coerceMoney(name, raw)
	case model.FieldTypeDate:
		return c.CoerceDate(raw)
	default:
		return raw
	}
}

// CoerceDimension resolves raw to an item ID of the field's dimension.
func (c *FieldCoercer) CoerceDimension(ctx context.Context, field *model.FieldDescriptor, raw any) string {
	return c.dimensions.ResolveItemID(ctx, field.DimensionName, raw)
}

// CoerceDate converts raw to epoch milliseconds. Numbers below 1e10 are
// taken as seconds; non-finite or out-of-range numbers are unusable. Decimal
// strings of at least ten digits are numbers. Other text is matched against the known layouts as a local
// calendar date at midnight. Anything else yields the current time.
func (c *FieldCoercer) CoerceDate(raw any) int64 {
	now := c.now()

	if s, ok := raw.(string); ok {
		if f, ok := timestampString(s); ok {
			if ms, ok := numericMillis(f); ok {
				return ms
			}
		} else if ms, ok := parseTextDate(s, now); ok {
			return ms
		}
	} else if f, ok := asNumber(raw); ok {
		if ms, ok := numericMillis(f); ok {
			return ms
		}
	}

	c.logger.Info("date not parseable, using current time",
		"value", raw,
		"degraded", true,
	)
	return now.UnixMilli()
}

func (c *FieldCoercer) coerceMoney(name string, raw any) any {
	switch v := raw.(type) {
	case model.Money, *model.Money, map[string]any:
		return raw
	case string:
		f, ok := asNumber(v)
		if !ok {
			c.logger.Warn("money value is not numeric, passing through",
				"field", name,
				"value", v,
				"degraded", true,
			)
			return raw
		}
		return model.NewCNY(fmt.Sprintf("%.2f", f))
	}

	if f, ok := asNumber(raw); ok {
		return model.NewCNY(fmt.Sprintf("%.2f", f))
	}
	return raw
}

// ValidateRequired rejects a mapping that lacks a required field or whose
// title is too long. The first problem found is reported.
func (c *FieldCoercer) ValidateRequired(mapping model.FieldMapping, fields []model.FieldDescriptor) error {
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if _, ok := mapping[f.Name]; !ok {
			return &model.ValidationError{
				Field:   f.Name,
				Message: "缺少必填字段：" + f.Label,
			}
		}
	}

	if title, ok := mapping["title"]; ok {
		if utf8.RuneCountInString(valueString(title)) > MaxTitleLength {
			return &model.ValidationError{
				Field:   "title",
				Message: fmt.Sprintf("标题长度超过%d个字符", MaxTitleLength),
			}
		}
	}

	return nil
}

// asNumber reports raw as a finite float when it is numeric or a plain
// decimal string.
func asNumber(raw any) (float64, bool) {
	f, ok := rawNumber(raw)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func rawNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		v = strings.TrimSpace(v)
		if !decimalPattern.MatchString(v) {
			return 0, false
		}
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// timestampString reports s as a number when it is a decimal string long
// enough to be an epoch timestamp.
func timestampString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	digits := strings.TrimPrefix(s, "-")
	if i := strings.IndexByte(digits, '.'); i >= 0 {
		digits = digits[:i]
	}
	if len(digits) < minTimestampDigits {
		return 0, false
	}
	return asNumber(s)
}

// numericMillis scales f to milliseconds, failing when the result does not
// fit in an int64.
func numericMillis(f float64) (int64, bool) {
	if math.Abs(f) < secondsThreshold {
		f *= 1000
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// parseTextDate applies the first matching layout. Only the label words
// 日期 and 时间 are stripped before matching. A match that is not a
// real calendar date fails rather than trying later layouts.
func parseTextDate(s string, now time.Time) (int64, bool) {
	s = strings.NewReplacer("日期", "", "时间", "").Replace(s)
	s = strings.TrimSpace(s)

	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}

		year := now.Year()
		parts := m[1:]
		if p.hasYear {
			year, _ = strconv.Atoi(parts[0])
			parts = parts[1:]
		}
		month, _ := strconv.Atoi(parts[0])
		day, _ := strconv.Atoi(parts[1])

		t, ok := calendarDate(year, month, day, now.Location())
		if !ok {
			return 0, false
		}
		return t.UnixMilli(), true
	}

	return 0, false
}

// calendarDate builds midnight of the given date, rejecting dates that
// time.Date would normalise.
func calendarDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

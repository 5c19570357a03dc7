package util

import (
    "encoding/json"
    "math"
    "strconv"
    "strings"
)

// SafeFloat coerces an arbitrary JSON-decoded value to float64. The upstream
// API sometimes sends numeric fields as strings; the boundary tolerates that
// instead of failing the whole batch. Returns (0, false) when the value is
// absent or unusable, including NaN/Inf.
func SafeFloat(v interface{}) (float64, bool) {
    switch x := v.(type) {
    case float64:
        if math.IsNaN(x) || math.IsInf(x, 0) {
            return 0, false
        }
        return x, true
    case float32:
        return float64(x), true
    case int:
        return float64(x), true
    case int64:
        return float64(x), true
    case json.Number:
        f, err := x.Float64()
        if err != nil {
            return 0, false
        }
        return f, true
    case string:
        s := strings.TrimSpace(x)
        if s == "" {
            return 0, false
        }
        f, err := strconv.ParseFloat(s, 64)
        if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
            return 0, false
        }
        return f, true
    default:
        return 0, false
    }
}

// SafeFloatDefault coerces v or returns def.
func SafeFloatDefault(v interface{}, def float64) float64 {
    if f, ok := SafeFloat(v); ok {
        return f
    }
    return def
}

// SafeInt coerces an arbitrary JSON-decoded value to int64, truncating
// fractional volumes the API occasionally reports.
func SafeInt(v interface{}) (int64, bool) {
    if s, ok := v.(string); ok {
        s = strings.TrimSpace(s)
        if n, err := strconv.ParseInt(s, 10, 64); err == nil {
            return n, true
        }
    }
    f, ok := SafeFloat(v)
    if !ok {
        return 0, false
    }
    return int64(f), true
}

// SafeIntDefault coerces v or returns def.
func SafeIntDefault(v interface{}, def int64) int64 {
    if n, ok := SafeInt(v); ok {
        return n
    }
    return def
}

// Round2 rounds to 2 decimal places, the precision the warehouse stores
// percentage metrics at.
func Round2(f float64) float64 {
    return math.Round(f*100) / 100
}

// Round4 rounds to 4 decimal places, the precision for price columns.
func Round4(f float64) float64 {
    return math.Round(f*10000) / 10000
}

// RoundPtr2 rounds through a pointer, preserving nil.
func RoundPtr2(f *float64) *float64 {
    if f == nil {
        return nil
    }
    v := Round2(*f)
    return &v
}

// Package optional 提供带“未定义”标记的数值类型。
//
// 特征工程中大量比率在分母为 0 或缺少数据时没有意义，
// 这里用 Float 显式表达“未定义”，避免被静默当成 0 参与排序。
package optional

import (
	"math"
	"strconv"

	json "github.com/goccy/go-json"
)

// Float 是可能未定义的 float64。零值即 Undefined。
type Float struct {
	V     float64
	Valid bool
}

// Undefined 返回未定义值。
func Undefined() Float { return Float{} }

// Of 返回已定义值；NaN 视为未定义。
func Of(v float64) Float {
	if math.IsNaN(v) {
		return Float{}
	}
	return Float{V: v, Valid: true}
}

// OfInt 返回已定义的整数值。
func OfInt[T ~int | ~int32 | ~int64](v T) Float {
	return Float{V: float64(v), Valid: true}
}

// Get 返回值与是否已定义。
func (f Float) Get() (float64, bool) { return f.V, f.Valid }

// OrNaN 将未定义映射为 NaN，供模型输入使用。
func (f Float) OrNaN() float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.V
}

// Add 任一操作数未定义则结果未定义。
func (f Float) Add(o Float) Float {
	if !f.Valid || !o.Valid {
		return Float{}
	}
	return Of(f.V + o.V)
}

// Sub 任一操作数未定义则结果未定义。
func (f Float) Sub(o Float) Float {
	if !f.Valid || !o.Valid {
		return Float{}
	}
	return Of(f.V - o.V)
}

// Div 任一操作数未定义或除数为 0 时结果未定义。
func (f Float) Div(o Float) Float {
	if !f.Valid || !o.Valid || o.V == 0 {
		return Float{}
	}
	return Of(f.V / o.V)
}

func (f Float) String() string {
	if !f.Valid {
		return "undefined"
	}
	return strconv.FormatFloat(f.V, 'g', -1, 64)
}

// MarshalJSON 未定义编码为 null。
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.V)
}

func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Of(v)
	return nil
}

// Mean 计算已定义值的均值；没有已定义值时返回未定义。
func Mean(values []Float) Float {
	var (
		sum float64
		n   int
	)
	for _, v := range values {
		if !v.Valid {
			continue
		}
		sum += v.V
		n++
	}
	if n == 0 {
		return Float{}
	}
	return Of(sum / float64(n))
}

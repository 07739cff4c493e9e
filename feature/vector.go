package feature

import (
	"github.com/rushteam/basketrec/pkg/optional"
)

// Vector 是一个 (用户, 商品) 对的特征向量，字段顺序见 Names。
type Vector [Size]optional.Float

// Get 按字段名取值；未知字段返回未定义。
func (v Vector) Get(name string) optional.Float {
	i, ok := Index(name)
	if !ok {
		return optional.Undefined()
	}
	return v[i]
}

// Dense 返回模型输入，未定义映射为 NaN。
func (v Vector) Dense() []float64 {
	out := make([]float64, Size)
	for i, f := range v {
		out[i] = f.OrNaN()
	}
	return out
}

// Map 返回字段名到值的映射，只包含已定义的字段。
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, Size)
	for i, f := range v {
		if x, ok := f.Get(); ok {
			out[Names[i]] = x
		}
	}
	return out
}

// Slice 转换为 core.Item.Features 的存储形式。
func (v Vector) Slice() []optional.Float {
	out := make([]optional.Float, Size)
	copy(out, v[:])
	return out
}

// FromSlice 是 Slice 的逆操作；长度不符时返回 false。
func FromSlice(s []optional.Float) (Vector, bool) {
	var v Vector
	if len(s) != Size {
		return v, false
	}
	copy(v[:], s)
	return v, true
}

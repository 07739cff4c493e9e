package utils

// 推荐链路写入的 Label key。
const (
	LabelRecallSource = "recall_source" // 召回来源 Node
	LabelRecallRank   = "recall_rank"   // 候选集中的名次（按全局复购率）
	LabelRankModel    = "rank_model"    // 打分模型
	LabelFiltered     = "filtered"      // 被哪个过滤器剔除
)

// Label 附着在候选或请求上，用于解释与观测：一个商品为什么被召回、被谁打分、被谁剔除。
// Source 是写入方所处的阶段（recall / filter / rank）。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"`
}

// MergeLabel 合并同名 Label，保留历史：Value 以 '|' 累积，Source 以 ',' 累积。
// 任一方 Value 为空时直接取另一方。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := Label{Value: existing.Value + "|" + incoming.Value}
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "", incoming.Source == existing.Source:
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

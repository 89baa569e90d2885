package dto

import "strings"

// BuildRequest 触发更新请求，targets 为空时更新整个图
type BuildRequest struct {
	Targets []string `json:"targets" binding:"omitempty,dive,required"`
}

// PlanQueryRequest 预演查询请求
// targets 可重复或用逗号分隔：?targets=a,b&targets=c
type PlanQueryRequest struct {
	Targets []string `form:"targets"`
}

// TargetIDs 展开逗号分隔的目标
func (r *PlanQueryRequest) TargetIDs() []string {
	var ids []string
	for _, t := range r.Targets {
		for _, id := range strings.Split(t, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

package model

// Stage 诊断所属阶段
type Stage string

const (
	StageRateLimit  Stage = "rate_limit"
	StageMutation   Stage = "mutation"
	StageAudience   Stage = "audience"
	StageFanout     Stage = "fanout"
	StageAudit      Stage = "audit"
	StageCache      Stage = "cache"
	StageChangeFeed Stage = "changefeed"
)

// Outcome 诊断结果
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeSkipped Outcome = "skipped"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// Diagnostic 非致命的结构化诊断信息，随成功结果一起返回
type Diagnostic struct {
	Stage   Stage   `json:"stage"`
	Outcome Outcome `json:"outcome"`
	Code    string  `json:"code,omitempty"`
	Detail  string  `json:"detail"`
}

// Diagnostics 诊断列表
type Diagnostics []Diagnostic

// Add 追加诊断
func (d *Diagnostics) Add(stage Stage, outcome Outcome, detail string) {
	*d = append(*d, Diagnostic{Stage: stage, Outcome: outcome, Detail: detail})
}

// AddCode 追加带错误码的诊断
func (d *Diagnostics) AddCode(stage Stage, outcome Outcome, code, detail string) {
	*d = append(*d, Diagnostic{Stage: stage, Outcome: outcome, Code: code, Detail: detail})
}

// ByStage 返回指定阶段的诊断
func (d Diagnostics) ByStage(stage Stage) Diagnostics {
	var out Diagnostics
	for _, diag := range d {
		if diag.Stage == stage {
			out = append(out, diag)
		}
	}
	return out
}

// HasCode 是否包含指定错误码
func (d Diagnostics) HasCode(code string) bool {
	for _, diag := range d {
		if diag.Code == code {
			return true
		}
	}
	return false
}

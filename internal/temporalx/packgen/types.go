package packgen

const (
	WorkflowName       = "adpack_generation"
	ActivityRunVariant = "adpack_run_variant"
	ActivityFinishPack = "adpack_finish_pack"
)

type Input struct {
	PackID     string   `json:"pack_id"`
	VariantIDs []string `json:"variant_ids"`
}

type VariantResult struct {
	VariantID string `json:"variant_id"`
	Failed    bool   `json:"failed"`
	Reason    string `json:"reason,omitempty"`
}

type Result struct {
	PackID     string          `json:"pack_id"`
	PackStatus string          `json:"pack_status"`
	Variants   []VariantResult `json:"variants"`
}

package dto

type CheckResult struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Elapsed string `json:"elapsed"`
}

type DiagnosticsResponse struct {
	OK     bool          `json:"ok"`
	Checks []CheckResult `json:"checks"`
}

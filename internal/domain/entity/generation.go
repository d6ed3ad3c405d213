package entity

// GenerationMetadata describes one completed generation call. Token
// counts are zero when the backend omits usage accounting; RawResponse
// keeps the decoded vendor payload for diagnosis.
type GenerationMetadata struct {
	RawResponse  any
	InputTokens  int
	OutputTokens int
}

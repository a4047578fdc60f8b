package domain

// FeedbackSession is the ephemeral per-requester state of the two-step
// post-closure survey. Not persisted; lost on restart by design.
type FeedbackSession struct {
	ServiceDescription string `json:"serviceDescription"`
	StaffTag           string `json:"staffTag"`
	PromptMessageID    string `json:"promptMessageId"`
	Rating             int    `json:"rating"` // 0 until step one completes
}

// Rated reports whether the requester has picked a star rating.
func (s *FeedbackSession) Rated() bool {
	return s.Rating >= 1 && s.Rating <= 5
}

package domain

import "time"

// Terms is a versioned terms-of-use document.
type Terms struct {
	ID        string     `json:"id"`
	Version   string     `json:"version"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	IsCurrent bool       `json:"isCurrent"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// TermsRequest is the body for creating or updating a terms document.
type TermsRequest struct {
	Version   string `json:"version,omitempty" validate:"required_without=Partial"`
	Title     string `json:"title,omitempty" validate:"required_without=Partial"`
	Content   string `json:"content,omitempty" validate:"required_without=Partial"`
	IsCurrent *bool  `json:"isCurrent,omitempty"`

	Partial bool `json:"-"`
}

// AcceptTermsRequest is the body for POST /terms/accept.
type AcceptTermsRequest struct {
	ClientUserID string `json:"clientUserId"`
	TermsID      string `json:"termsId"`
}

// TermsAcceptance joins a ClientUser to the Terms version accepted.
type TermsAcceptance struct {
	ID           string     `json:"id"`
	ClientUserID string     `json:"clientUserId"`
	TermsID      string     `json:"termsId"`
	AcceptedAt   *time.Time `json:"acceptedAt,omitempty"`
}

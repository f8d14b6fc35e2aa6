package models

// ApplicationStatus is the workflow state of a travel application.
type ApplicationStatus string

const (
	StatusDraft              ApplicationStatus = "DRAFT"
	StatusSubmitted          ApplicationStatus = "SUBMITTED"
	StatusInReview           ApplicationStatus = "IN_REVIEW"
	StatusReferredToMinister ApplicationStatus = "REFERRED_TO_MINISTER"
	StatusMinisterApproved   ApplicationStatus = "MINISTER_APPROVED"
	StatusMinisterRejected   ApplicationStatus = "MINISTER_REJECTED"
	StatusRejected           ApplicationStatus = "REJECTED"
	StatusArchived           ApplicationStatus = "ARCHIVED"
)

var AllStatuses = []ApplicationStatus{
	StatusDraft,
	StatusSubmitted,
	StatusInReview,
	StatusReferredToMinister,
	StatusMinisterApproved,
	StatusMinisterRejected,
	StatusRejected,
	StatusArchived,
}

func (s ApplicationStatus) IsTerminal() bool {
	switch s {
	case StatusArchived, StatusRejected, StatusMinisterRejected:
		return true
	}
	return false
}

func (s ApplicationStatus) Valid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

package domain

import "time"

// ChannelStatus is the review state of a creator channel
type ChannelStatus string

const (
	ChannelStatusApproved ChannelStatus = "approved"
	ChannelStatusPending  ChannelStatus = "pending"
	ChannelStatusRejected ChannelStatus = "rejected"
)

// Channel is an approved content channel resolved for an account
type Channel struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Status           ChannelStatus `json:"status"`
	AnalyticsID      string        `json:"analytics_id,omitempty"`
	Link             string        `json:"link,omitempty"`
	Thumbnail        string        `json:"thumbnail,omitempty"`
	RegistrationDate time.Time     `json:"registration_date"`
	ApprovalDate     time.Time     `json:"approval_date"`
}

// HasAnalytics reports whether the channel resolved to an analytics identifier
func (c *Channel) HasAnalytics() bool {
	return c != nil && c.AnalyticsID != ""
}

// PrimaryRequest is the account's onboarding application (user_requests row)
type PrimaryRequest struct {
	ID               string        `json:"id"`
	UserID           string        `json:"user_id"`
	Status           ChannelStatus `json:"status"`
	ChannelName      string        `json:"youtube_channel_name"`
	ChannelThumbnail string        `json:"youtube_channel_thumbnail"`
	SplitPercent     *float64      `json:"split_percent,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// IsApproved returns true if the request passed review
func (r *PrimaryRequest) IsApproved() bool {
	return r != nil && r.Status == ChannelStatusApproved
}

// ChannelRecord is a secondary linked channel (channels row)
type ChannelRecord struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	MainRequestID string        `json:"main_request_id,omitempty"`
	ChannelName   string        `json:"channel_name"`
	Link          string        `json:"link,omitempty"`
	Status        ChannelStatus `json:"status"`
	AnalyticsCID  string        `json:"analytics_cid,omitempty"`
	Thumbnail     string        `json:"thumbnail,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     *time.Time    `json:"updated_at,omitempty"`
}

// LastChanged returns updated_at, falling back to created_at
func (r *ChannelRecord) LastChanged() time.Time {
	if r.UpdatedAt != nil && !r.UpdatedAt.IsZero() {
		return *r.UpdatedAt
	}
	return r.CreatedAt
}

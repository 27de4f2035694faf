package admin

import "strconv"

// Typed list items. Timestamps stay strings: the backend sends local date
// times without a zone.

// Coupon is an item of the coupons list.
type Coupon struct {
	CouponID    int64  `json:"couponId"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	IssuedCount int    `json:"issuedCount"`
	MaxCount    int    `json:"maxCount"`
	StartAt     string `json:"startDateTime"`
	EndAt       string `json:"endDateTime"`
}

// ItemID implements pagination.Identifiable.
func (c Coupon) ItemID() string { return strconv.FormatInt(c.CouponID, 10) }

// PollOption is one choice of a poll.
type PollOption struct {
	OptionID int64  `json:"optionId"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
}

// Poll is an item of the polls list.
type Poll struct {
	PollID    int64        `json:"pollId"`
	Title     string       `json:"title"`
	Category  string       `json:"categoryId"`
	Status    string       `json:"status"`
	Options   []PollOption `json:"options"`
	CreatedAt string       `json:"createdAt"`
}

// ItemID implements pagination.Identifiable.
func (p Poll) ItemID() string { return strconv.FormatInt(p.PollID, 10) }

// StoreImage is a photo uploaded to a store page.
type StoreImage struct {
	ImageID   int64  `json:"imageId"`
	StoreID   string `json:"storeId"`
	URL       string `json:"url"`
	CreatedAt string `json:"createdAt"`
}

// ItemID implements pagination.Identifiable.
func (i StoreImage) ItemID() string { return strconv.FormatInt(i.ImageID, 10) }

// StoreMessage is a message left for a store owner.
type StoreMessage struct {
	MessageID string `json:"messageId"`
	StoreID   string `json:"storeId"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
}

// ItemID implements pagination.Identifiable.
func (m StoreMessage) ItemID() string { return m.MessageID }

// UserRanking is an item of the user rankings list.
type UserRanking struct {
	UserID   int64  `json:"userId"`
	Nickname string `json:"nickname"`
	Rank     int    `json:"rank"`
	Score    int64  `json:"score"`
}

// ItemID implements pagination.Identifiable.
func (u UserRanking) ItemID() string { return strconv.FormatInt(u.UserID, 10) }

// Registration is a store registration reported by a user.
type Registration struct {
	RegistrationID string   `json:"registrationId"`
	StoreName      string   `json:"storeName"`
	Categories     []string `json:"categories"`
	Status         string   `json:"status"`
	ReporterID     int64    `json:"reporterId"`
	CreatedAt      string   `json:"createdAt"`
}

// ItemID implements pagination.Identifiable.
func (r Registration) ItemID() string { return r.RegistrationID }

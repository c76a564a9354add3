package dto

// NotificationQuery filters the caller's inbox.
type NotificationQuery struct {
	UnreadOnly bool `form:"unread"`
	Limit      int  `form:"limit"`
	Offset     int  `form:"offset"`
}

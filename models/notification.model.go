package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
)

type DeliveryMethod string

const (
	DeliveryInApp DeliveryMethod = "in_app"
	DeliveryEmail DeliveryMethod = "email"
	DeliveryBoth  DeliveryMethod = "both"
)

// Notification is the in-app copy of a dispatched event.
type Notification struct {
	gorm.Model
	UserID         uint                 `gorm:"not null;index" json:"userId"`
	Type           string               `gorm:"type:varchar(40);not null;index" json:"type"`
	Title          string               `gorm:"not null" json:"title"`
	Message        string               `gorm:"type:text;not null" json:"message"`
	Data           datatypes.JSON       `json:"data,omitempty"`
	IsRead         bool                 `gorm:"default:false;index" json:"read"`
	Priority       NotificationPriority `gorm:"type:varchar(10);default:'medium'" json:"priority"`
	DeliveryMethod DeliveryMethod       `gorm:"type:varchar(10);default:'both'" json:"deliveryMethod"`
	EmailSent      bool                 `gorm:"default:false" json:"emailSent"`
}

func (Notification) TableName() string {
	return "notifications"
}

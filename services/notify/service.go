package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"flexvest/metrics"
	"flexvest/models"
	"flexvest/utils/apperror"
	"flexvest/utils/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Dispatcher is the fire-and-forget sink the savings core emits events to.
type Dispatcher interface {
	Notify(ctx context.Context, userID uint, ev Event)
}

// Service persists every event as an in-app Notification and emails users
// who opted in. Work happens on background goroutines; Wait blocks until all
// in-flight deliveries finish.
type Service struct {
	db          *gorm.DB
	mailer      Mailer
	log         logrus.FieldLogger
	sendTimeout time.Duration
	wg          sync.WaitGroup
}

// NewService builds a dispatcher. mailer may be nil to disable email.
func NewService(db *gorm.DB, mailer Mailer, log logrus.FieldLogger) *Service {
	return &Service{
		db:          db,
		mailer:      mailer,
		log:         logger.Component(log, "notify"),
		sendTimeout: 15 * time.Second,
	}
}

func (s *Service) Notify(ctx context.Context, userID uint, ev Event) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Deliver(context.WithoutCancel(ctx), userID, ev); err != nil {
			s.log.WithFields(logrus.Fields{
				"user_id": userID,
				"event":   ev.Type(),
			}).WithError(err).Warn("notification delivery failed")
		}
	}()
}

// Wait blocks until queued deliveries are done.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Deliver runs one delivery synchronously.
func (s *Service) Deliver(ctx context.Context, userID uint, ev Event) error {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "email", "email_notifications").First(&user, userID).Error; err != nil {
		return err
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	delivery := models.DeliveryInApp
	if user.EmailNotifications && s.mailer != nil {
		delivery = models.DeliveryBoth
	}
	n := models.Notification{
		UserID:         userID,
		Type:           string(ev.Type()),
		Title:          ev.Title(),
		Message:        ev.Message(),
		Data:           datatypes.JSON(payload),
		Priority:       ev.Priority(),
		DeliveryMethod: delivery,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return err
	}
	metrics.RecordNotification(string(ev.Type()), "in_app", true)

	if delivery != models.DeliveryBoth {
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	subject, body := renderEmail(ev)
	if err := s.mailer.Send(sendCtx, user.Email, subject, body); err != nil {
		metrics.RecordNotification(string(ev.Type()), "email", false)
		return err
	}
	metrics.RecordNotification(string(ev.Type()), "email", true)
	return s.db.WithContext(ctx).Model(&n).Update("email_sent", true).Error
}

// List returns a user's notifications, newest first.
func List(db *gorm.DB, userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	q := db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var items []models.Notification
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&items).Error
	return items, err
}

// MarkRead flags one of userID's notifications as read.
func MarkRead(db *gorm.DB, userID, id uint) error {
	res := db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("notification")
	}
	return nil
}

// Package session schedules live transcription sessions
package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"notedai/api/app/respond"
	"notedai/api/internal"
	"notedai/api/internal/model"
	"notedai/api/validators"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultDuration = 60
	upcomingLimit   = 50
)

type createBody struct {
	Title        string   `json:"title" binding:"required,max=200"`
	Description  string   `json:"description" binding:"max=2000"`
	Date         string   `json:"date" binding:"required,datetime=2006-01-02"`
	Time         string   `json:"time" binding:"required,datetime=15:04"`
	Duration     int      `json:"duration" binding:"min=1,max=480"`
	Participants []string `json:"participants" binding:"max=50,dive,email"`
	Public       bool     `json:"isPublic"`
}

func (b *createBody) Normalize() {
	b.Title = strings.TrimSpace(b.Title)

	if b.Duration == 0 {
		b.Duration = defaultDuration
	}

	for i, p := range b.Participants {
		b.Participants[i] = validators.NormalizeEmail(p)
	}
}

// startsAt reads date and time as a wall clock in loc.
func (b *createBody) startsAt(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.Time, loc)
	if err != nil {
		return time.Time{}, err
	}

	return t.UTC(), nil
}

// userLocation falls back to UTC for empty or unknown zones.
func userLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}

	return loc
}

func SessionCreate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data createBody
	if err := validators.Bind(c.Request.Body, &data); err != nil {
		respond.Invalid(c, err)
		return
	}

	tx, err := d.Store.Connect(c.Request.Context())
	if err != nil {
		respond.Internal(c, "Failed to connect to database", err)
		return
	}

	var user model.User

	err = tx.Select("id", "timezone").Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		respond.Internal(c, "Failed to fetch user", err)
		return
	}

	start, err := data.startsAt(userLocation(user.Timezone))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid date or time",
			"requestID": requestID,
		})
		return
	}

	s := model.LiveSession{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        data.Title,
		Description:  data.Description,
		StartsAt:     start,
		Duration:     data.Duration,
		Participants: model.StringSlice(data.Participants),
		Public:       data.Public,
	}

	if err := tx.Create(&s).Error; err != nil {
		respond.Internal(c, "Failed to create session", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session": s,
	})
}

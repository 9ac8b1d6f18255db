package user

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"notedai/api/app/respond"
	"notedai/api/internal"
	"notedai/api/internal/model"
	"notedai/api/validators"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var errWrongPassword = errors.New("current password is incorrect")

// settingsUpdate is one variant of a settings change. Each variant carries
// its own validation tags and returns the columns it changed, the only
// ones written back.
type settingsUpdate interface {
	apply(u *model.User, d *internal.Deps) ([]string, error)
}

type profileUpdate struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=100"`
	Bio      *string `json:"bio" binding:"omitempty,max=160"`
	JobTitle *string `json:"jobTitle" binding:"omitempty,max=100"`
	Location *string `json:"location" binding:"omitempty,max=100"`
	Timezone *string `json:"timezone" binding:"omitempty,max=64"`
}

func (p *profileUpdate) Normalize() {
	if p.Name != nil {
		*p.Name = strings.TrimSpace(*p.Name)
	}
}

func (p *profileUpdate) apply(u *model.User, _ *internal.Deps) ([]string, error) {
	var cols []string
	set(&cols, "name", &u.Name, p.Name)
	set(&cols, "bio", &u.Bio, p.Bio)
	set(&cols, "job_title", &u.JobTitle, p.JobTitle)
	set(&cols, "location", &u.Location, p.Location)
	set(&cols, "timezone", &u.Timezone, p.Timezone)
	return cols, nil
}

type passwordUpdate struct {
	CurrentPassword string `json:"currentPassword" binding:"required,min=6"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=255,nefield=CurrentPassword"`
}

func (p *passwordUpdate) apply(u *model.User, d *internal.Deps) ([]string, error) {
	ok, err := d.Argon.VerifyPasswd(p.CurrentPassword, u.Password)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, errWrongPassword
	}

	// Hashed by the save hook
	u.SetPassword(p.NewPassword)
	return []string{"password"}, nil
}

type notificationsUpdate struct {
	NotificationsEnabled      *bool `json:"notificationsEnabled"`
	EmailNotificationsEnabled *bool `json:"emailNotificationsEnabled"`
	SoundNotificationsEnabled *bool `json:"soundNotificationsEnabled"`
}

func (n *notificationsUpdate) apply(u *model.User, _ *internal.Deps) ([]string, error) {
	var cols []string
	set(&cols, "notifications_enabled", &u.NotificationsEnabled, n.NotificationsEnabled)
	set(&cols, "email_notifications_enabled", &u.EmailNotificationsEnabled, n.EmailNotificationsEnabled)
	set(&cols, "sound_notifications_enabled", &u.SoundNotificationsEnabled, n.SoundNotificationsEnabled)
	return cols, nil
}

type appearanceUpdate struct {
	Theme *model.Theme `json:"theme" binding:"omitempty,oneof=light dark system"`
}

func (a *appearanceUpdate) apply(u *model.User, _ *internal.Deps) ([]string, error) {
	var cols []string
	set(&cols, "theme", &u.Theme, a.Theme)
	return cols, nil
}

var settingsVariants = map[string]func() settingsUpdate{
	"profile":       func() settingsUpdate { return &profileUpdate{} },
	"password":      func() settingsUpdate { return &passwordUpdate{} },
	"notifications": func() settingsUpdate { return &notificationsUpdate{} },
	"appearance":    func() settingsUpdate { return &appearanceUpdate{} },
}

type settingsBody struct {
	UpdateType string          `json:"updateType"`
	Data       json.RawMessage `json:"data"`
}

// set copies v into dst when present and records its column.
func set[T any](cols *[]string, col string, dst *T, v *T) {
	if v != nil {
		*dst = *v
		*cols = append(*cols, col)
	}
}

func UserSettingsFetch(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	tx, err := d.Store.Connect(c.Request.Context())
	if err != nil {
		respond.Internal(c, "Failed to connect to database", err)
		return
	}

	var user model.User
	if !loadUser(c, tx.Scopes(model.WithoutPassword), userID, &user) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user.Profile(),
	})
}

func UserSettingsUpdate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	tx, err := d.Store.Connect(c.Request.Context())
	if err != nil {
		respond.Internal(c, "Failed to connect to database", err)
		return
	}

	// Loaded with the password for the password variant
	var user model.User
	if !loadUser(c, tx, userID, &user) {
		return
	}

	var body settingsBody
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
		respond.Invalid(c, err)
		return
	}

	newVariant, ok := settingsVariants[body.UpdateType]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid update type",
			"requestID": requestID,
		})
		return
	}

	if len(body.Data) == 0 {
		body.Data = json.RawMessage("{}")
	}

	update := newVariant()
	if err := validators.Bind(bytes.NewReader(body.Data), update); err != nil {
		respond.Invalid(c, err)
		return
	}

	cols, err := update.apply(&user, d)
	if err != nil {
		if errors.Is(err, errWrongPassword) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Current password is incorrect",
				"requestID": requestID,
			})
			return
		}

		respond.Internal(c, "Failed to apply settings update", err)
		return
	}

	if len(cols) > 0 {
		res := tx.Model(&user).Select(cols).Updates(&user)
		if res.Error != nil {
			respond.Internal(c, "Failed to save settings", res.Error)
			return
		}

		// Deleted after it was loaded
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user.Profile(),
	})
}

// loadUser writes the error response itself and reports whether the
// handler may continue.
func loadUser(c *gin.Context, tx *gorm.DB, userID string, user *model.User) bool {
	err := tx.Where("id = ?", userID).First(user).Error
	if err == nil {
		return true
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "User not found",
			"requestID": c.GetString("requestID"),
		})
		return false
	}

	respond.Internal(c, "Failed to fetch user", err)
	return false
}

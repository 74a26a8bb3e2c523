package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/model"
	"github.com/tandemdaily/api/shared"
)

// MediaService owns the avatar catalog and user profiles. Avatar images live
// in object storage; the database row's image_path is the canonical reference
// every response joins through.
type MediaService struct {
	context.DefaultService

	db       *gorm.DB
	minioSvc *MinIOService
}

const MEDIA_SVC = "media_svc"

func (svc MediaService) Id() string {
	return MEDIA_SVC
}

func (svc *MediaService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *MediaService) Start() error {
	svc.db = dbOf(svc.Service(POSTGRES_SVC), svc.Service(SQLITE_SVC))
	if m := svc.Service(MINIO_SVC); m != nil {
		svc.minioSvc = m.(*MinIOService)
	}
	return nil
}

// ==================== AVATARS ====================

func (svc *MediaService) ListAvatars() ([]dto.AvatarResponse, error) {
	var avatars []model.Avatar
	if err := svc.db.Order("sort_order asc, name asc").Find(&avatars).Error; err != nil {
		return nil, err
	}

	out := make([]dto.AvatarResponse, 0, len(avatars))
	for _, a := range avatars {
		out = append(out, dto.AvatarResponse{ID: a.ID, Name: a.Name, ImagePath: a.ImagePath})
	}
	return out, nil
}

// CreateAvatar uploads the image and registers the catalog row. Admin only.
func (svc *MediaService) CreateAvatar(name string, sortOrder int, file *multipart.FileHeader) (*dto.AvatarResponse, error) {
	if !isValidImageFile(file.Filename) {
		return nil, shared.ErrValidation("Invalid image file format. Supported: JPG, PNG, WEBP")
	}
	if file.Size > 2*1024*1024 {
		return nil, shared.ErrValidation("Image file too large. Maximum size: 2MB")
	}
	if svc.minioSvc == nil {
		return nil, shared.ErrUpstreamUnavailable("Object storage is not configured")
	}

	id, _ := uuid.NewV7()
	objectName := fmt.Sprintf("avatars/%s%s", id.String(), strings.ToLower(filepath.Ext(file.Filename)))

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if _, err := svc.minioSvc.UploadFile(objectName, src, file.Size, file.Header.Get("Content-Type")); err != nil {
		return nil, err
	}

	avatar := model.Avatar{
		ID:        id.String(),
		Name:      name,
		ImagePath: objectName,
		SortOrder: sortOrder,
		CreatedAt: time.Now(),
	}
	if err := svc.db.Create(&avatar).Error; err != nil {
		if delErr := svc.minioSvc.DeleteFile(objectName); delErr != nil {
			log.Printf("Failed to clean up avatar object %s: %v", objectName, delErr)
		}
		return nil, err
	}

	return &dto.AvatarResponse{ID: avatar.ID, Name: avatar.Name, ImagePath: avatar.ImagePath}, nil
}

func (svc *MediaService) DeleteAvatar(avatarID string) error {
	var avatar model.Avatar
	err := svc.db.Where("id = ?", avatarID).First(&avatar).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound("Avatar not found")
	}
	if err != nil {
		return err
	}

	// Detach users first so the catalog row can go.
	if err := svc.db.Model(&model.User{}).Where("avatar_id = ?", avatarID).
		Update("avatar_id", nil).Error; err != nil {
		return err
	}

	if svc.minioSvc != nil {
		if err := svc.minioSvc.DeleteFile(avatar.ImagePath); err != nil {
			log.Printf("Failed to delete avatar object %s: %v", avatar.ImagePath, err)
		}
	}

	return svc.db.Delete(&avatar).Error
}

// AvatarURL resolves a stored image path to a presigned link.
func (svc *MediaService) AvatarURL(imagePath string) (string, error) {
	if svc.minioSvc == nil {
		return "", shared.ErrUpstreamUnavailable("Object storage is not configured")
	}
	return svc.minioSvc.GetFileURL(imagePath, 24*time.Hour)
}

// ==================== PROFILES ====================

func (svc *MediaService) GetProfile(userID string) (*dto.UserProfileResponse, error) {
	var user model.User
	err := svc.db.Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound("User not found")
	}
	if err != nil {
		return nil, err
	}

	return svc.profileOf(&user)
}

func (svc *MediaService) UpdateProfile(userID string, req dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	var user model.User
	err := svc.db.Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound("User not found")
	}
	if err != nil {
		return nil, err
	}

	if req.Username != nil && *req.Username != user.Username {
		var count int64
		if err := svc.db.Model(&model.User{}).
			Where("LOWER(username) = LOWER(?) AND id <> ?", *req.Username, userID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, shared.ErrConflict("Username already taken")
		}
		user.Username = *req.Username
	}

	if req.AvatarID != nil {
		if *req.AvatarID == "" {
			user.AvatarID = nil
		} else {
			var count int64
			if err := svc.db.Model(&model.Avatar{}).Where("id = ?", *req.AvatarID).Count(&count).Error; err != nil {
				return nil, err
			}
			if count == 0 {
				return nil, shared.ErrValidation("Unknown avatar")
			}
			user.AvatarID = req.AvatarID
		}
	}

	if req.CountryCode != nil {
		code := strings.ToUpper(*req.CountryCode)
		user.CountryCode = code
		user.CountryFlag = countryFlag(code)
	}

	if req.Onboarded != nil {
		user.Onboarded = *req.Onboarded
	}

	user.UpdatedAt = time.Now()
	if err := svc.db.Save(&user).Error; err != nil {
		return nil, err
	}

	return svc.profileOf(&user)
}

func (svc *MediaService) profileOf(user *model.User) (*dto.UserProfileResponse, error) {
	resp := &dto.UserProfileResponse{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		AvatarID:    user.AvatarID,
		CountryCode: user.CountryCode,
		CountryFlag: user.CountryFlag,
		Onboarded:   user.Onboarded,
	}

	if user.AvatarID != nil {
		var avatar model.Avatar
		if err := svc.db.Where("id = ?", *user.AvatarID).First(&avatar).Error; err == nil {
			resp.AvatarPath = avatar.ImagePath
		}
	}

	return resp, nil
}

// ==================== HELPERS ====================

func isValidImageFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}

// countryFlag maps an ISO 3166-1 alpha-2 code to its regional-indicator
// emoji.
func countryFlag(code string) string {
	if len(code) != 2 {
		return ""
	}
	var flag []rune
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ""
		}
		flag = append(flag, rune(0x1F1E6)+r-'A')
	}
	return string(flag)
}

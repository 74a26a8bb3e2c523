package handlers

import (
	"context"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/model"
)

type AuthServiceInterface interface {
	Register(req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(req dto.LoginRequest) (*dto.LoginResponse, error)
	AdminLogin(req dto.AdminLoginRequest) (*dto.LoginResponse, string, error)
	RequiredAuth() fiber.Handler
	OptionalAuth() fiber.Handler
	RequireAdmin() fiber.Handler
	RequireSubscription() fiber.Handler
	SetCSRFCookie(c *fiber.Ctx, token string)
}

type ContentServiceInterface interface {
	CreatePuzzle(createdBy string, req dto.CreatePuzzleRequest) (*dto.PuzzleResponse, error)
	UpdatePuzzle(id string, req dto.UpdatePuzzleRequest) (*dto.PuzzleResponse, error)
	DeletePuzzle(id string) error
	ListPuzzles(game string, req dto.ListPuzzlesRequest) ([]dto.PuzzleResponse, error)
	CreateSubmission(userID string, req dto.SubmitPuzzleRequest) (*dto.SubmissionResponse, error)
	ListSubmissions(status string) ([]model.PuzzleSubmission, error)
	ReviewSubmission(id, admin string, req dto.ReviewSubmissionRequest) error
}

type DeliveryServiceInterface interface {
	GetDaily(game, date string) (*dto.DailyPuzzleResponse, error)
	GetArchivePage(game string, page, limit int, sort string) (*dto.ArchivePage, error)
	GetBatch(game string, dates []string) (map[string]*dto.DailyPuzzleResponse, error)
}

type ProgressServiceInterface interface {
	CompletePuzzle(userID string, req dto.CompletePuzzleRequest) (*dto.CompletePuzzleResponse, error)
	GetStats(userID, game string) (*dto.StatsPayload, error)
	MergeStats(userID, game string, incoming dto.StatsPayload) (*dto.StatsPayload, error)
}

type LeaderboardServiceInterface interface {
	SubmitDaily(userID string, req dto.SubmitDailyScoreRequest) (*dto.SubmitScoreResponse, error)
	SubmitStreak(userID string, req dto.SubmitStreakRequest) (*dto.SubmitScoreResponse, error)
	GetBoard(game, board, date string, limit int, callerID string) (*dto.LeaderboardResponse, error)
	SetPreference(userID string, enabled bool) error
}

type CoopServiceInterface interface {
	CreateSession(hostID string, req dto.CreateCoopSessionRequest) (*dto.CoopSessionResponse, error)
	JoinSession(userID, inviteCode string) (*dto.CoopSessionResponse, error)
	GetSession(userID, sessionID string) (*dto.CoopSessionResponse, error)
	ApplyMove(userID string, req dto.CoopMoveRequest) (*dto.CoopSessionResponse, error)
	CompleteSession(userID, sessionID string) (*dto.CoopSessionResponse, error)
	AbandonSession(userID, sessionID string) (*dto.CoopSessionResponse, error)
	SaveSlot(userID string, slot int, req dto.CoopSaveRequest) error
}

type MediaServiceInterface interface {
	ListAvatars() ([]dto.AvatarResponse, error)
	CreateAvatar(name string, sortOrder int, file *multipart.FileHeader) (*dto.AvatarResponse, error)
	DeleteAvatar(avatarID string) error
	GetProfile(userID string) (*dto.UserProfileResponse, error)
	UpdateProfile(userID string, req dto.UpdateProfileRequest) (*dto.UserProfileResponse, error)
}

type AIServiceInterface interface {
	Available() bool
	SuggestThemes(ctx context.Context, req dto.SuggestThemesRequest) (*dto.SuggestThemesResponse, error)
	SuggestConnections(ctx context.Context, req dto.SuggestConnectionsRequest) (*dto.SuggestConnectionsResponse, error)
	SuggestCrosswordWords(ctx context.Context, req dto.SuggestCrosswordWordsRequest) (*dto.SuggestCrosswordWordsResponse, error)
	GenerateHints(ctx context.Context, req dto.GenerateHintsRequest) (*dto.GenerateHintsResponse, error)
	RegenerateEmojiPair(ctx context.Context, req dto.RegenerateEmojiPairRequest) (*dto.RegenerateEmojiPairResponse, error)
	AssessCrypticDifficulty(ctx context.Context, req dto.AssessCrypticDifficultyRequest) (*dto.AssessCrypticDifficultyResponse, error)
}

type AccountServiceInterface interface {
	DeleteAccount(ctx context.Context, userID string) (*dto.DeleteAccountResponse, error)
	GrantSubscription(req dto.GrantSubscriptionRequest) (*model.Subscription, error)
	RevokeSubscription(userID string) error
}

package handlers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samanvay/attendance_service/internal/model"
	"github.com/samanvay/attendance_service/internal/service"
	"go.uber.org/zap"
)

// TokenManager is the presenter side of the token store.
type TokenManager interface {
	AuthorizePresenter(ctx context.Context, presenter model.Identity, scope model.Scope) error
	Rotate(ctx context.Context, scope model.Scope) (*model.AttendanceToken, error)
	IssueExamTokens(ctx context.Context, examID, subjectID int64) ([]*model.AttendanceToken, error)
	ActiveToken(ctx context.Context, scope model.Scope) (*model.AttendanceToken, error)
	Close(ctx context.Context, scope model.Scope, closedBy string) (*model.ScopeSummary, error)
	LectureTokenTTL() time.Duration
}

type Claimer interface {
	Claim(ctx context.Context, token string) (*model.ClaimSession, error)
	SessionTTL() time.Duration
}

type Recorder interface {
	Record(ctx context.Context, sessionID string, studentID int64) (*service.RecordResult, error)
	RecordLectureScan(ctx context.Context, lectureID int64, token string, studentID int64) (*service.RecordResult, error)
	RecordExamScan(ctx context.Context, subject model.Scope, token string) (*service.RecordResult, error)
	ListScope(ctx context.Context, scope model.Scope) ([]*model.AttendanceRecord, error)
}

// IdentityParser verifies bearer tokens.
type IdentityParser interface {
	Parse(raw string) (*model.Identity, error)
}

// Handlers holds the dependencies of the HTTP endpoints
type Handlers struct {
	tokens       TokenManager
	claims       Claimer
	attendance   Recorder
	identities   IdentityParser
	validate     *validator.Validate
	secureCookie bool
	logger       *zap.Logger
}

// NewHandlers creates the endpoint set. secureCookie marks the session
// cookie Secure and should be on behind TLS.
func NewHandlers(
	tokens TokenManager,
	claims Claimer,
	attendance Recorder,
	identities IdentityParser,
	secureCookie bool,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		tokens:       tokens,
		claims:       claims,
		attendance:   attendance,
		identities:   identities,
		validate:     validator.New(),
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// ============ Request bodies ============

// ScanRequest carries a scanned token in the body of a one-shot scan.
type ScanRequest struct {
	Token string `json:"token" validate:"required,max=128"`
}

// ============ Responses ============

type ClaimResponse struct {
	Success   bool      `json:"success"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RecordResponse struct {
	Success     bool                 `json:"success"`
	Message     string               `json:"message"`
	StudentName string               `json:"studentName"`
	Status      service.RecordStatus `json:"status"`
}

// QRCodeResponse is a token as a presenter or student displays it.
type QRCodeResponse struct {
	Success    bool       `json:"success"`
	Token      string     `json:"token"`
	Scope      string     `json:"scope"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	TTLSeconds int        `json:"ttl_seconds,omitempty"`
	QRCode     string     `json:"qr_code"`
}

type IssuedToken struct {
	StudentID int64  `json:"student_id"`
	Token     string `json:"token"`
}

type IssueResponse struct {
	Success bool          `json:"success"`
	Scope   string        `json:"scope"`
	Count   int           `json:"count"`
	Tokens  []IssuedToken `json:"tokens"`
}

type CloseResponse struct {
	Success bool                `json:"success"`
	Summary *model.ScopeSummary `json:"summary"`
}

type AttendanceListResponse struct {
	Success bool                      `json:"success"`
	Scope   string                    `json:"scope"`
	Count   int                       `json:"count"`
	Records []*model.AttendanceRecord `json:"records"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

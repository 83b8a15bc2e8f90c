package certificate

import (
	"errors"
	"fmt"
	"log"
	"math"
	"quizserver/models"
	"sync"

	"gorm.io/gorm"
)

// Status reports the outcome of an issuance request.
type Status string

const (
	StatusExists     Status = "exists"
	StatusGenerated  Status = "generated"
	StatusIneligible Status = "ineligible"
	StatusNoUser     Status = "no-user"
)

// MinAttempts is the eligibility threshold: a certificate is issued only
// after the second completed attempt.
const MinAttempts = 2

// certNumberRetries bounds the re-render loop on certificate number
// collisions.
const certNumberRetries = 3

// AttemptScore is one completed attempt as seen by the aggregation step.
type AttemptScore struct {
	Score          float64 `json:"score"`
	TotalQuestions float64 `json:"totalQuestions"`
	Percentage     float64 `json:"percentage"`
	CompletionTime *int    `json:"completionTime"`
}

// Outcome is the result of EnsureCertificate. Certificate is set for the
// exists and generated statuses; AttemptsCompleted for ineligible.
type Outcome struct {
	Status            Status              `json:"status"`
	Certificate       *models.Certificate `json:"certificate,omitempty"`
	AttemptsCompleted int                 `json:"attemptsCompleted,omitempty"`
	BestAttempt       *AttemptScore       `json:"-"`
}

// EligibilityInfo summarises a user's progress towards a certificate.
type EligibilityInfo struct {
	Eligible          bool   `json:"eligible"`
	SubmissionCount   int64  `json:"submissionCount"`
	HasCertificate    bool   `json:"hasCertificate"`
	CertificateNumber string `json:"certificateNumber,omitempty"`
}

// Engine decides whether a certificate should be issued for a user,
// aggregates the printed score, and guarantees at-most-once issuance.
// Issuance is serialized per user in-process; the unique index on
// certificates.user_id covers concurrent writers in other processes.
type Engine struct {
	db       *gorm.DB
	renderer Renderer

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewEngine builds an Engine around a database handle and a renderer.
func NewEngine(db *gorm.DB, r Renderer) *Engine {
	return &Engine{
		db:       db,
		renderer: r,
		locks:    make(map[uint]*sync.Mutex),
	}
}

func (e *Engine) userLock(userID uint) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[userID] = l
	}
	return l
}

// EnsureCertificate returns the user's certificate, issuing it first if the
// user just became eligible. Repeated calls for an already-certified user
// return the existing record unchanged: no file is re-rendered and no row is
// touched.
func (e *Engine) EnsureCertificate(userID uint, submissions []AttemptScore) (*Outcome, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	// Idempotency guard, checked first and unconditionally.
	if existing, err := e.findByUser(userID); err != nil {
		return nil, fmt.Errorf("certificate lookup: %w", err)
	} else if existing != nil {
		return &Outcome{Status: StatusExists, Certificate: existing}, nil
	}

	var user models.User
	if err := e.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Outcome{Status: StatusNoUser}, nil
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	attempts := normalizeAttempts(submissions)
	if len(attempts) < MinAttempts {
		return &Outcome{Status: StatusIneligible, AttemptsCompleted: len(attempts)}, nil
	}

	totalScore := 0.0
	sumPercentage := 0.0
	best := attempts[0]
	for _, a := range attempts {
		totalScore += a.Score
		sumPercentage += a.Percentage
		if a.Percentage > best.Percentage {
			best = a
		}
	}
	avgScore := totalScore / float64(len(attempts))
	avgPercentage := sumPercentage / float64(len(attempts))
	// All attempts share the same question-set size; the first attempt's is
	// taken as the certificate's max score.
	maxScore := int(attempts[0].TotalQuestions)

	profile := Profile{
		Name:     user.Name,
		Phone:    user.Phone,
		School:   user.School,
		Language: user.Language,
		State:    user.State,
		District: user.District,
	}
	stats := Stats{
		TotalScore: int(math.Round(avgScore)),
		MaxScore:   maxScore,
		Percentage: avgPercentage,
	}

	cert, err := e.renderAndPersist(user, profile, stats)
	if err != nil {
		return nil, err
	}
	if cert.exists != nil {
		return &Outcome{Status: StatusExists, Certificate: cert.exists}, nil
	}

	return &Outcome{
		Status:      StatusGenerated,
		Certificate: cert.created,
		BestAttempt: &best,
	}, nil
}

type persistResult struct {
	created *models.Certificate
	exists  *models.Certificate
}

// renderAndPersist writes the certificate file first and only then commits
// the database row, so a stored record always references a real file. A row
// that loses the user_id uniqueness race degrades to the existing record; a
// certificate number collision re-renders with a fresh number, a bounded
// number of times.
func (e *Engine) renderAndPersist(user models.User, profile Profile, stats Stats) (*persistResult, error) {
	var lastErr error
	for i := 0; i < certNumberRetries; i++ {
		rendered, err := e.renderer.Render(profile, stats)
		if err != nil {
			return nil, fmt.Errorf("certificate render: %w", err)
		}

		school := user.School
		if school == "" {
			school = "N/A"
		}
		language := user.Language
		if language == "" {
			language = "N/A"
		}

		cert := models.Certificate{
			UserID:            user.ID,
			CertificateNumber: rendered.CertificateNumber,
			UserName:          user.Name,
			Phone:             user.Phone,
			School:            school,
			Language:          language,
			TotalScore:        stats.TotalScore,
			MaxScore:          stats.MaxScore,
			Percentage:        stats.Percentage,
			FilePath:          rendered.FilePath,
			FileName:          rendered.FileName,
			IssueDate:         rendered.IssueDate,
		}

		if err := e.db.Create(&cert).Error; err != nil {
			// A concurrent writer may have won the user_id constraint.
			existing, lookupErr := e.findByUser(user.ID)
			if lookupErr == nil && existing != nil {
				log.Printf("Certificate race for user %d, returning existing record %s", user.ID, existing.CertificateNumber)
				return &persistResult{exists: existing}, nil
			}
			// Otherwise assume a certificate number collision and retry with
			// a regenerated number. The rendered file is orphaned on disk; a
			// known gap, logged rather than masked.
			log.Printf("Certificate persist failed for user %d (file %s kept on disk): %v", user.ID, rendered.FileName, err)
			lastErr = err
			continue
		}

		return &persistResult{created: &cert}, nil
	}

	return nil, fmt.Errorf("certificate persist: %w", lastErr)
}

// CertificateByUser is the read-only lookup behind the "get my certificate"
// endpoint. Returns nil when the user has no certificate.
func (e *Engine) CertificateByUser(userID uint) (*models.Certificate, error) {
	return e.findByUser(userID)
}

// Eligibility reports submission count and certificate state for a user.
func (e *Engine) Eligibility(userID uint) (*EligibilityInfo, error) {
	var count int64
	if err := e.db.Model(&models.Submission{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("submission count: %w", err)
	}

	info := &EligibilityInfo{
		Eligible:        count >= MinAttempts,
		SubmissionCount: count,
	}

	cert, err := e.findByUser(userID)
	if err != nil {
		return nil, err
	}
	if cert != nil {
		info.HasCertificate = true
		info.CertificateNumber = cert.CertificateNumber
	}

	return info, nil
}

func (e *Engine) findByUser(userID uint) (*models.Certificate, error) {
	var cert models.Certificate
	err := e.db.Where("user_id = ?", userID).First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// normalizeAttempts coerces loosely-shaped attempt data into defined numeric
// records, defaulting invalid values to 0.
func normalizeAttempts(submissions []AttemptScore) []AttemptScore {
	out := make([]AttemptScore, 0, len(submissions))
	for _, s := range submissions {
		out = append(out, AttemptScore{
			Score:          coerce(s.Score),
			TotalQuestions: coerce(s.TotalQuestions),
			Percentage:     coerce(s.Percentage),
			CompletionTime: s.CompletionTime,
		})
	}
	return out
}

func coerce(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// AttemptsFromSubmissions derives attempt records from stored submissions,
// guarding the percentage against an empty question set.
func AttemptsFromSubmissions(submissions []models.Submission) []AttemptScore {
	attempts := make([]AttemptScore, 0, len(submissions))
	for _, s := range submissions {
		percentage := s.Percentage
		if percentage == 0 && s.TotalQuestions > 0 {
			percentage = float64(s.Score) / float64(s.TotalQuestions) * 100
		}
		attempts = append(attempts, AttemptScore{
			Score:          float64(s.Score),
			TotalQuestions: float64(s.TotalQuestions),
			Percentage:     percentage,
			CompletionTime: s.CompletionTime,
		})
	}
	return attempts
}

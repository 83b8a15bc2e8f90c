package certificate

import (
	"errors"
	"fmt"
	"quizserver/models"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// A single pooled connection keeps every query on the same in-memory
	// database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}, &models.Submission{}, &models.Answer{}, &models.Certificate{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{
		Name:     "Asha Patel",
		Phone:    "9876543210",
		School:   "Green Valley School",
		Language: "Hindi",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// fakeRenderer records calls and fabricates unique metadata without touching
// disk.
type fakeRenderer struct {
	calls  int32
	failed bool
}

func (f *fakeRenderer) Render(profile Profile, stats Stats) (*RenderResult, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.failed {
		return nil, errors.New("disk full")
	}
	return &RenderResult{
		CertificateNumber: fmt.Sprintf("CERT-2026-%d%03d", time.Now().UnixNano(), n),
		FilePath:          fmt.Sprintf("/certificates/certificate_%s_%d.png", profile.Phone, n),
		FileName:          fmt.Sprintf("certificate_%s_%d.png", profile.Phone, n),
		IssueDate:         time.Now(),
	}, nil
}

func twoAttempts() []AttemptScore {
	return []AttemptScore{
		{Score: 8, TotalQuestions: 10, Percentage: 80},
		{Score: 6, TotalQuestions: 10, Percentage: 60},
	}
}

func TestEnsureCertificate_Ineligible(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	renderer := &fakeRenderer{}
	engine := NewEngine(db, renderer)

	for _, attempts := range [][]AttemptScore{nil, {{Score: 8, TotalQuestions: 10, Percentage: 80}}} {
		outcome, err := engine.EnsureCertificate(user.ID, attempts)
		if err != nil {
			t.Fatalf("EnsureCertificate: %v", err)
		}
		if outcome.Status != StatusIneligible {
			t.Fatalf("expected ineligible, got %s", outcome.Status)
		}
		if outcome.AttemptsCompleted != len(attempts) {
			t.Fatalf("expected %d attempts completed, got %d", len(attempts), outcome.AttemptsCompleted)
		}
	}

	if renderer.calls != 0 {
		t.Fatalf("renderer must not be called for ineligible users, got %d calls", renderer.calls)
	}
}

func TestEnsureCertificate_NoUser(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db, &fakeRenderer{})

	outcome, err := engine.EnsureCertificate(999, twoAttempts())
	if err != nil {
		t.Fatalf("EnsureCertificate: %v", err)
	}
	if outcome.Status != StatusNoUser {
		t.Fatalf("expected no-user, got %s", outcome.Status)
	}

	var count int64
	db.Model(&models.Certificate{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no certificate rows, got %d", count)
	}
}

func TestEnsureCertificate_Aggregation(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	engine := NewEngine(db, &fakeRenderer{})

	outcome, err := engine.EnsureCertificate(user.ID, twoAttempts())
	if err != nil {
		t.Fatalf("EnsureCertificate: %v", err)
	}
	if outcome.Status != StatusGenerated {
		t.Fatalf("expected generated, got %s", outcome.Status)
	}

	cert := outcome.Certificate
	if cert.TotalScore != 7 {
		t.Fatalf("expected total score 7, got %d", cert.TotalScore)
	}
	if cert.MaxScore != 10 {
		t.Fatalf("expected max score 10, got %d", cert.MaxScore)
	}
	if cert.Percentage != 70 {
		t.Fatalf("expected percentage 70, got %v", cert.Percentage)
	}
	if cert.UserName != user.Name || cert.Phone != user.Phone {
		t.Fatalf("certificate snapshot mismatch: %q %q", cert.UserName, cert.Phone)
	}
	if outcome.BestAttempt == nil || outcome.BestAttempt.Percentage != 80 {
		t.Fatalf("expected best attempt at 80%%, got %+v", outcome.BestAttempt)
	}
}

func TestEnsureCertificate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	renderer := &fakeRenderer{}
	engine := NewEngine(db, renderer)

	first, err := engine.EnsureCertificate(user.ID, twoAttempts())
	if err != nil {
		t.Fatalf("first EnsureCertificate: %v", err)
	}
	if first.Status != StatusGenerated {
		t.Fatalf("expected generated, got %s", first.Status)
	}

	// Second call, even with different attempt data, returns the same record.
	second, err := engine.EnsureCertificate(user.ID, []AttemptScore{
		{Score: 10, TotalQuestions: 10, Percentage: 100},
		{Score: 10, TotalQuestions: 10, Percentage: 100},
		{Score: 10, TotalQuestions: 10, Percentage: 100},
	})
	if err != nil {
		t.Fatalf("second EnsureCertificate: %v", err)
	}
	if second.Status != StatusExists {
		t.Fatalf("expected exists, got %s", second.Status)
	}
	if second.Certificate.CertificateNumber != first.Certificate.CertificateNumber {
		t.Fatalf("expected identical certificate, got %s vs %s",
			second.Certificate.CertificateNumber, first.Certificate.CertificateNumber)
	}
	if second.Certificate.TotalScore != 7 {
		t.Fatalf("snapshot must not be recomputed, got total score %d", second.Certificate.TotalScore)
	}

	if renderer.calls != 1 {
		t.Fatalf("expected exactly one render, got %d", renderer.calls)
	}
	var count int64
	db.Model(&models.Certificate{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one row, got %d", count)
	}
}

func TestEnsureCertificate_ZeroQuestions(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	engine := NewEngine(db, &fakeRenderer{})

	outcome, err := engine.EnsureCertificate(user.ID, []AttemptScore{
		{Score: 0, TotalQuestions: 0, Percentage: 0},
		{Score: 0, TotalQuestions: 0, Percentage: 0},
	})
	if err != nil {
		t.Fatalf("EnsureCertificate: %v", err)
	}
	if outcome.Status != StatusGenerated {
		t.Fatalf("expected generated, got %s", outcome.Status)
	}
	if outcome.Certificate.Percentage != 0 {
		t.Fatalf("expected percentage 0, got %v", outcome.Certificate.Percentage)
	}
	if outcome.Certificate.MaxScore != 0 {
		t.Fatalf("expected max score 0, got %d", outcome.Certificate.MaxScore)
	}
}

func TestEnsureCertificate_RenderFailureCreatesNoRow(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	engine := NewEngine(db, &fakeRenderer{failed: true})

	_, err := engine.EnsureCertificate(user.ID, twoAttempts())
	if err == nil {
		t.Fatal("expected render failure to propagate")
	}

	var count int64
	db.Model(&models.Certificate{}).Count(&count)
	if count != 0 {
		t.Fatalf("render failure must not create a row, got %d", count)
	}
}

func TestEnsureCertificate_ConcurrentIssuance(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	renderer := &fakeRenderer{}
	engine := NewEngine(db, renderer)

	var wg sync.WaitGroup
	outcomes := make([]*Outcome, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = engine.EnsureCertificate(user.ID, twoAttempts())
		}(i)
	}
	wg.Wait()

	generated := 0
	for i := 0; i < 2; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if outcomes[i].Status == StatusGenerated {
			generated++
		} else if outcomes[i].Status != StatusExists {
			t.Fatalf("caller %d got unexpected status %s", i, outcomes[i].Status)
		}
	}
	if generated != 1 {
		t.Fatalf("expected exactly one generated outcome, got %d", generated)
	}
	if outcomes[0].Certificate.CertificateNumber != outcomes[1].Certificate.CertificateNumber {
		t.Fatal("both callers must observe the same certificate")
	}

	var count int64
	db.Model(&models.Certificate{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one row, got %d", count)
	}
	if renderer.calls != 1 {
		t.Fatalf("expected exactly one render, got %d", renderer.calls)
	}
}

func TestEnsureCertificate_DuplicateRaceFromOtherWriter(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)

	// Simulate a writer in another process that already committed a row.
	existing := models.Certificate{
		UserID:            user.ID,
		CertificateNumber: "CERT-2026-1",
		UserName:          user.Name,
		Phone:             user.Phone,
		School:            user.School,
		Language:          user.Language,
		TotalScore:        5,
		MaxScore:          10,
		Percentage:        50,
		FilePath:          "/certificates/existing.png",
		FileName:          "existing.png",
		IssueDate:         time.Now(),
	}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatalf("seed certificate: %v", err)
	}

	renderer := &fakeRenderer{}
	engine := NewEngine(db, renderer)

	outcome, err := engine.EnsureCertificate(user.ID, twoAttempts())
	if err != nil {
		t.Fatalf("EnsureCertificate: %v", err)
	}
	if outcome.Status != StatusExists {
		t.Fatalf("expected exists, got %s", outcome.Status)
	}
	if outcome.Certificate.CertificateNumber != "CERT-2026-1" {
		t.Fatalf("expected the committed certificate, got %s", outcome.Certificate.CertificateNumber)
	}
	if renderer.calls != 0 {
		t.Fatalf("no render expected, got %d", renderer.calls)
	}
}

func TestEligibility(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	engine := NewEngine(db, &fakeRenderer{})

	info, err := engine.Eligibility(user.ID)
	if err != nil {
		t.Fatalf("Eligibility: %v", err)
	}
	if info.Eligible || info.SubmissionCount != 0 || info.HasCertificate {
		t.Fatalf("unexpected eligibility for new user: %+v", info)
	}

	for i := 1; i <= 2; i++ {
		sub := models.Submission{UserID: user.ID, AttemptNumber: i, Score: 5, TotalQuestions: 10, Percentage: 50, SubmittedAt: time.Now()}
		if err := db.Create(&sub).Error; err != nil {
			t.Fatalf("seed submission: %v", err)
		}
	}

	if _, err := engine.EnsureCertificate(user.ID, twoAttempts()); err != nil {
		t.Fatalf("EnsureCertificate: %v", err)
	}

	info, err = engine.Eligibility(user.ID)
	if err != nil {
		t.Fatalf("Eligibility: %v", err)
	}
	if !info.Eligible || info.SubmissionCount != 2 || !info.HasCertificate || info.CertificateNumber == "" {
		t.Fatalf("unexpected eligibility after issuance: %+v", info)
	}
}

func TestAttemptsFromSubmissions(t *testing.T) {
	minutes := 12
	subs := []models.Submission{
		{Score: 7, TotalQuestions: 10, Percentage: 0, CompletionTime: &minutes},
		{Score: 3, TotalQuestions: 0, Percentage: 0},
	}

	attempts := AttemptsFromSubmissions(subs)
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	if attempts[0].Percentage != 70 {
		t.Fatalf("expected derived percentage 70, got %v", attempts[0].Percentage)
	}
	if attempts[0].CompletionTime == nil || *attempts[0].CompletionTime != 12 {
		t.Fatal("completion time must be carried through")
	}
	// Zero question sets must not divide.
	if attempts[1].Percentage != 0 {
		t.Fatalf("expected percentage 0 for empty question set, got %v", attempts[1].Percentage)
	}
}

package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/skobyn/media-core/internal/config"
	"github.com/skobyn/media-core/internal/models"
	"github.com/skobyn/media-core/internal/streaming"
	"github.com/skobyn/media-core/pkg/logger"
	"github.com/skobyn/media-core/pkg/utils"
)

const (
	// minRecommendSamples is how many bandwidth reports a session needs
	// before recommendations kick in.
	minRecommendSamples = 3
	// bufferPressureThreshold is the buffer health below which a
	// rebuffer report triggers a downswitch hint.
	bufferPressureThreshold = 0.3
	// watchTimeGapCap bounds the watch time accrued per telemetry call
	// so a stalled player cannot inflate analytics.
	watchTimeGapCap = 30.0
)

// Streaming session manager
type sessionManager struct {
	cfg      *config.Config
	repo     streaming.Repository
	resolver streaming.ContentResolver
	logger   logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// downloadMu serializes read-modify-write cycles on download records.
	// The manager is the only writer of download:{id}; without this lock
	// a cancel landing inside a transfer tick would be overwritten, moving
	// the status backwards.
	downloadMu sync.Mutex
}

// Streaming session manager constructor
func NewSessionManager(cfg *config.Config, repo streaming.Repository, resolver streaming.ContentResolver, logger logger.Logger) streaming.UseCase {
	ctx, cancel := context.WithCancel(context.Background())
	return &sessionManager{
		cfg:      cfg,
		repo:     repo,
		resolver: resolver,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the idle-session sweeper.
func (m *sessionManager) Start() {
	m.wg.Add(1)
	go m.sweeper()
}

// Stop halts the sweeper and any in-flight download transfers.
func (m *sessionManager) Stop() {
	m.cancel()
	m.wg.Wait()
}

func (m *sessionManager) sweeper() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.Streaming.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			idleBefore := time.Now().Add(-m.cfg.Streaming.SessionTTL)
			removed, err := m.repo.SweepIdleSessions(m.ctx, idleBefore)
			if err != nil {
				m.logger.Errorf("session sweep failed: %v", err)
				continue
			}
			if removed > 0 {
				m.logger.Infof("session sweep removed %d idle sessions", removed)
			}
		}
	}
}

func (m *sessionManager) StartSession(ctx context.Context, input *models.SessionStartInput) (*models.StreamingSession, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		return nil, errors.Wrap(err, "sessionManager.StartSession.ValidateStruct")
	}
	if _, err := m.resolver.Ladder(ctx, input.VideoID); err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.StreamingSession{
		ID:             uuid.New().String(),
		ViewerID:       input.ViewerID,
		VideoID:        input.VideoID,
		CurrentQuality: models.QualityAuto,
		BufferHealth:   1,
		LastActive:     now,
		Analytics:      models.StreamingAnalytics{StartedAt: now},
	}
	if err := m.repo.SaveSession(ctx, session, m.cfg.Streaming.SessionTTL); err != nil {
		return nil, err
	}
	m.logger.Infof("session %s started: viewer=%s video=%s", session.ID, session.ViewerID, session.VideoID)
	return session, nil
}

func (m *sessionManager) GetSession(ctx context.Context, sessionID string) (*models.StreamingSession, error) {
	return m.repo.GetSession(ctx, sessionID)
}

func (m *sessionManager) RecordBandwidth(ctx context.Context, sessionID string, input *models.BandwidthInput) (*models.StreamingSession, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		return nil, errors.Wrap(err, "sessionManager.RecordBandwidth.ValidateStruct")
	}
	session, err := m.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sample := int64(float64(input.Bytes) * 8 / input.TransferTime)
	session.Bandwidth = sample
	session.BandwidthHistory = append(session.BandwidthHistory, sample)
	if window := m.cfg.Streaming.BandwidthWindow; len(session.BandwidthHistory) > window {
		session.BandwidthHistory = session.BandwidthHistory[len(session.BandwidthHistory)-window:]
	}

	var sum int64
	peak := session.Analytics.PeakBandwidth
	for _, bw := range session.BandwidthHistory {
		sum += bw
		if bw > peak {
			peak = bw
		}
	}
	session.Analytics.AvgBandwidth = sum / int64(len(session.BandwidthHistory))
	session.Analytics.PeakBandwidth = peak

	m.touch(session)
	if err := m.repo.SaveSession(ctx, session, m.cfg.Streaming.SessionTTL); err != nil {
		return nil, err
	}
	return session, nil
}

// RecommendQuality returns a nil hint when the session has fewer than
// three bandwidth samples.
func (m *sessionManager) RecommendQuality(ctx context.Context, sessionID string) (*models.QualityHint, error) {
	session, err := m.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ladder, err := m.resolver.Ladder(ctx, session.VideoID)
	if err != nil {
		return nil, err
	}
	quality, ok := recommendQuality(session, ladder, m.cfg.Streaming.DownswitchFactor, m.cfg.Streaming.UpswitchFactor)
	if !ok {
		return nil, nil
	}
	return &models.QualityHint{Quality: quality, Reason: string(models.SwitchReasonAuto)}, nil
}

// recommendQuality picks the highest rung sustainable at the mean of the
// last three samples, discounted by the downswitch factor. Climbing above
// the current rung additionally demands upswitch-factor headroom so the
// player does not oscillate.
func recommendQuality(session *models.StreamingSession, ladder []models.QualityLevel, downFactor, upFactor float64) (string, bool) {
	if len(session.BandwidthHistory) < minRecommendSamples || len(ladder) == 0 {
		return "", false
	}
	recent := session.BandwidthHistory[len(session.BandwidthHistory)-minRecommendSamples:]
	var sum float64
	for _, bw := range recent {
		sum += float64(bw)
	}
	mean := sum / float64(len(recent))

	currentRank := ladderRank(ladder, session.CurrentQuality)
	best := ""
	for i, level := range ladder {
		required := float64(level.Bandwidth)
		if required > mean*downFactor {
			continue
		}
		if currentRank >= 0 && i > currentRank && required*upFactor > mean {
			continue
		}
		best = level.Name
	}
	if best == "" {
		best = ladder[0].Name
	}
	return best, true
}

// ladderRank returns -1 for auto or unknown qualities.
func ladderRank(ladder []models.QualityLevel, quality string) int {
	for i, level := range ladder {
		if level.Name == quality {
			return i
		}
	}
	return -1
}

func (m *sessionManager) SwitchQuality(ctx context.Context, sessionID string, input *models.QualitySwitchInput) (*models.StreamingSession, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		return nil, errors.Wrap(err, "sessionManager.SwitchQuality.ValidateStruct")
	}
	session, err := m.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if input.Quality != models.QualityAuto {
		ladder, err := m.resolver.Ladder(ctx, session.VideoID)
		if err != nil {
			return nil, err
		}
		if ladderRank(ladder, input.Quality) < 0 {
			return nil, streaming.ErrQualityUnavailable
		}
	}

	reason := input.Reason
	if reason == "" {
		reason = models.SwitchReasonUser
	}
	session.CurrentQuality = input.Quality
	session.Analytics.QualitySwitches++
	m.touch(session)
	if err := m.repo.SaveSession(ctx, session, m.cfg.Streaming.SessionTTL); err != nil {
		return nil, err
	}
	m.logger.Infof("session %s switched to %s (%s)", session.ID, input.Quality, reason)
	return session, nil
}

// ReportBuffering records buffer telemetry and, under pressure, hints one
// rung below the current quality.
func (m *sessionManager) ReportBuffering(ctx context.Context, sessionID string, input *models.BufferingInput) (*models.QualityHint, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		return nil, errors.Wrap(err, "sessionManager.ReportBuffering.ValidateStruct")
	}
	session, err := m.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.BufferHealth = input.Health
	if input.RebufferTime > 0 {
		session.Analytics.RebufferCount++
		session.Analytics.RebufferTime += input.RebufferTime
	}
	m.touch(session)
	if err := m.repo.SaveSession(ctx, session, m.cfg.Streaming.SessionTTL); err != nil {
		return nil, err
	}

	if input.Health >= bufferPressureThreshold || input.RebufferTime <= 0 {
		return nil, nil
	}
	ladder, err := m.resolver.Ladder(ctx, session.VideoID)
	if err != nil {
		return nil, err
	}
	rank := ladderRank(ladder, session.CurrentQuality)
	if rank <= 0 {
		return nil, nil
	}
	return &models.QualityHint{
		Quality: ladder[rank-1].Name,
		Reason:  string(models.SwitchReasonBuffer),
	}, nil
}

func (m *sessionManager) ReportError(ctx context.Context, sessionID string, input *models.ErrorReportInput) error {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		return errors.Wrap(err, "sessionManager.ReportError.ValidateStruct")
	}
	session, err := m.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	session.Analytics.Errors = append(session.Analytics.Errors, models.StreamingError{
		Category:  input.Category,
		Message:   input.Message,
		Timestamp: time.Now(),
		Quality:   session.CurrentQuality,
		Bandwidth: session.Bandwidth,
	})
	m.touch(session)
	return m.repo.SaveSession(ctx, session, m.cfg.Streaming.SessionTTL)
}

// touch advances LastActive and accrues capped watch time.
func (m *sessionManager) touch(session *models.StreamingSession) {
	now := time.Now()
	delta := now.Sub(session.LastActive).Seconds()
	if delta < 0 {
		delta = 0
	}
	if delta > watchTimeGapCap {
		delta = watchTimeGapCap
	}
	session.WatchTime += delta
	session.Analytics.TotalWatchTime += delta
	session.LastActive = now
}

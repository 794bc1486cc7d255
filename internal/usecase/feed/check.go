package feed

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"guildsync/internal/domain/entity"
	"guildsync/internal/observability/logging"
)

// CheckResult reports a one-off gallery pipeline run. CheckID correlates
// the response with the worker's log lines for the run.
type CheckResult struct {
	CheckID    string                 `json:"check_id"`
	PageID     string                 `json:"page_id"`
	Fragment   string                 `json:"fragment,omitempty"`
	Strategy   string                 `json:"strategy"`
	Candidates []entity.CandidatePost `json:"candidates"`
	Published  bool                   `json:"published"`
}

// RunGalleryCheck runs the fetch and extract pipeline once against an
// arbitrary page reference, without touching any stored feed state. When
// channelID is non-empty the newest candidate is enriched and actually
// published there, so an operator can verify the full pipeline end to end.
func (s *Service) RunGalleryCheck(ctx context.Context, pageRef, channelID string) (*CheckResult, error) {
	checkID := uuid.NewString()
	pageID := entity.ExtractPageID(pageRef)
	if pageID == "" {
		return nil, entity.ErrInvalidPageRef
	}

	f := &entity.GalleryFeed{
		PageID:          pageID,
		GalleryFragment: entity.ExtractGalleryFragment(pageRef),
		ChannelID:       channelID,
		IntervalMinutes: entity.DefaultGalleryIntervalMinutes,
		Enabled:         true,
		BackfillDone:    true,
	}

	checkCtx, cancel := s.feedBudget(ctx)
	defer cancel()

	logger := logging.WithFeed(slog.Default(), "manual-check", pageID).
		With(slog.String("check_id", checkID))
	candidates := s.extractCandidates(checkCtx, logger, f)

	result := &CheckResult{
		CheckID:    checkID,
		PageID:     pageID,
		Fragment:   f.GalleryFragment,
		Candidates: candidates,
	}
	if len(candidates) > 0 {
		result.Strategy = candidates[0].SourceStrategy
	}

	if channelID != "" && len(candidates) > 0 {
		sent, err := s.publishGalleryBatch(checkCtx, f, candidates[:1], s.now())
		result.Published = len(sent) > 0
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

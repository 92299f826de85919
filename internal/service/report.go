package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"situationroom/internal/cache"
	"situationroom/internal/metrics"
	"situationroom/internal/model"
	"situationroom/internal/report"

	"go.uber.org/zap"
)

type ReportService struct {
	forms       *FormService
	submissions *SubmissionService
	cache       cache.Cache
	ttl         time.Duration
}

// NewReportService caches default-option reports in c for ttl. A nil cache
// computes on every call. The submission service invalidates through it on
// every write.
func NewReportService(forms *FormService, submissions *SubmissionService, c cache.Cache, ttl time.Duration) *ReportService {
	s := &ReportService{forms: forms, submissions: submissions, cache: c, ttl: ttl}
	if submissions != nil {
		submissions.reports = s
	}
	return s
}

// Invalidate drops the cached default report of form
func (s *ReportService) Invalidate(ctx context.Context, form *model.Form) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, reportKey(form)); err != nil && s.submissions != nil {
		s.submissions.log.Warn("Failed to invalidate cached report", zap.String("form", form.ID), zap.Error(err))
	}
}

// reportKey changes whenever the definition does, so edited fields never
// serve an old tally
func reportKey(form *model.Form) string {
	return "report:" + form.ID + ":" + form.UpdatedAt
}

func (s *ReportService) compute(ctx context.Context, form *model.Form, opts report.Options) (*report.Report, error) {
	subs, err := s.submissions.query(ctx, form, nil)
	if err != nil {
		return nil, err
	}
	rep := report.Aggregate(*form, subs, opts)
	return &rep, nil
}

func (s *ReportService) store(ctx context.Context, form *model.Form, rep *report.Report) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(rep)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, reportKey(form), data, s.ttl)
}

// Get returns the report of a form. Reports with default options come from
// the cache when present.
func (s *ReportService) Get(ctx context.Context, formRef string, opts report.Options) (*report.Report, error) {
	form, err := s.forms.Resolve(ctx, formRef)
	if err != nil {
		return nil, err
	}
	if opts != (report.Options{}) || s.cache == nil {
		return s.compute(ctx, form, opts)
	}

	data, err := s.cache.Get(ctx, reportKey(form))
	switch {
	case err == nil:
		var rep report.Report
		if jsonErr := json.Unmarshal(data, &rep); jsonErr == nil {
			metrics.ReportCache.WithLabelValues("hit").Inc()
			return &rep, nil
		}
	case !errors.Is(err, cache.ErrMiss):
		metrics.ReportCache.WithLabelValues("error").Inc()
		return s.compute(ctx, form, opts)
	}

	metrics.ReportCache.WithLabelValues("miss").Inc()
	rep, err := s.compute(ctx, form, opts)
	if err != nil {
		return nil, err
	}
	s.store(ctx, form, rep)
	return rep, nil
}

// Rebuild recomputes the default report of a form and refreshes the cache
func (s *ReportService) Rebuild(ctx context.Context, formRef string) (*report.Report, error) {
	form, err := s.forms.Resolve(ctx, formRef)
	if err != nil {
		return nil, fmt.Errorf("rebuild report: %w", err)
	}
	rep, err := s.compute(ctx, form, report.Options{})
	if err != nil {
		return nil, err
	}
	s.store(ctx, form, rep)
	return rep, nil
}

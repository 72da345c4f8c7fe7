package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"judgegate/internal/submit/model"
	"judgegate/internal/submit/repository"
	appErr "judgegate/pkg/errors"
	"judgegate/pkg/utils/logger"

	"go.uber.org/zap"
)

// Publisher hands a task to the judging workers.
type Publisher interface {
	Publish(ctx context.Context, task any) error
}

// TimeoutConfig holds timeout settings for collaborator calls.
type TimeoutConfig struct {
	DB time.Duration `yaml:"db"`
	MQ time.Duration `yaml:"mq"`
}

// Config holds dispatch service dependencies and settings.
type Config struct {
	SubmissionRepo repository.SubmissionRepository
	Auth           Authenticator
	Publisher      Publisher
	Logger         *zap.Logger
	Timeouts       TimeoutConfig
}

// DispatchService enriches submissions from the database and publishes them.
type DispatchService struct {
	submissionRepo repository.SubmissionRepository
	auth           Authenticator
	publisher      Publisher
	log            *zap.Logger
	timeouts       TimeoutConfig
}

// NewDispatchService creates a new dispatch service.
func NewDispatchService(cfg Config) (*DispatchService, error) {
	if cfg.SubmissionRepo == nil {
		return nil, fmt.Errorf("submission repository is required")
	}
	if cfg.Publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if cfg.Auth == nil {
		cfg.Auth = AllowAll{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &DispatchService{
		submissionRepo: cfg.SubmissionRepo,
		auth:           cfg.Auth,
		publisher:      cfg.Publisher,
		log:            cfg.Logger,
		timeouts:       cfg.Timeouts,
	}, nil
}

// Submit authenticates the request, loads the ungraded submission and
// publishes the enriched task. A publish failure is logged, not returned:
// the submission stays ungraded and can be rejudged.
func (s *DispatchService) Submit(ctx context.Context, req model.SubmissionRequest) error {
	log := logger.WithContext(ctx, s.log.Named("SubmissionHandler"))

	if err := s.auth.Validate(ctx, req.Token); err != nil {
		log.Warn("token rejected", zap.String("sub_id", req.SubmissionID), zap.Error(err))
		return appErr.New(appErr.TokenInvalid)
	}

	log.Info("submission received",
		zap.String("sub_id", req.SubmissionID),
		zap.String("prob_id", req.StandardID),
		zap.String("problem_type", req.ProblemType))

	ctxDB := withTimeout(ctx, s.timeouts.DB)
	record, err := s.submissionRepo.FindUngraded(ctxDB.ctx, req.SubmissionID, req.StandardID)
	ctxDB.cancel()
	if err != nil {
		if !appErr.Is(err, appErr.SubmissionNotFound) {
			log.Error("query submission from database failed", zap.Error(err))
		}
		return appErr.New(appErr.SubmissionNotFound)
	}

	task, err := BuildTask(record, req.SubmissionID, req.StandardID, req.SubmissionType)
	if err != nil {
		log.Error("can not parse config or detail", zap.Error(err))
		return appErr.Wrap(err, appErr.FileStructureInvalid).WithMessage(appErr.FileStructureInvalid.Message())
	}

	s.publish(ctx, log, task)
	return nil
}

// Rejudge loads a submission regardless of its grade and publishes it again.
// The returned error only classifies the outcome; callers answer with an
// empty body either way.
func (s *DispatchService) Rejudge(ctx context.Context, subID string) error {
	log := logger.WithContext(ctx, s.log.Named("RejudgeHandler"))

	subID = strings.TrimSpace(subID)
	if subID == "" {
		log.Warn("request missing sub_id")
		return appErr.Newf(appErr.InvalidParams, "sub_id is required")
	}

	ctxDB := withTimeout(ctx, s.timeouts.DB)
	record, err := s.submissionRepo.FindByID(ctxDB.ctx, subID)
	ctxDB.cancel()
	if err != nil {
		log.Warn("sub_id not found", zap.String("sub_id", subID), zap.Error(err))
		return appErr.New(appErr.SubmissionNotFound)
	}

	task, err := BuildTask(record, subID, record.ProbID, record.IsStandard)
	if err != nil {
		log.Error("can not parse config or detail", zap.String("sub_id", subID), zap.Error(err))
		return appErr.Wrap(err, appErr.FileStructureInvalid).WithMessage(appErr.FileStructureInvalid.Message())
	}

	log.Info("rejudge submission", zap.String("sub_id", subID), zap.String("prob_id", task.StandardID))
	s.publish(ctx, log, task)
	return nil
}

func (s *DispatchService) publish(ctx context.Context, log *zap.Logger, task *model.Task) {
	// the request may end before the broker answers
	ctxMQ := withTimeout(context.WithoutCancel(ctx), s.timeouts.MQ)
	defer ctxMQ.cancel()
	if err := s.publisher.Publish(ctxMQ.ctx, task); err != nil {
		log.Error("publish task failed", zap.String("sub_id", task.SubmissionID), zap.Error(err))
	}
}

// BuildTask turns a database record into the worker message. The problem
// type comes from the record; config and detail must be JSON or NULL.
func BuildTask(record *model.SubmissionRecord, subID, standardID, submissionType string) (*model.Task, error) {
	if record == nil {
		return nil, fmt.Errorf("record is nil")
	}
	ptype, err := strconv.Atoi(strings.TrimSpace(record.PTypeID))
	if err != nil {
		return nil, fmt.Errorf("ptype_id %q: %w", record.PTypeID, err)
	}
	config, err := jsonDocument("config", record.Config)
	if err != nil {
		return nil, err
	}
	detail, err := jsonDocument("detail", record.Detail)
	if err != nil {
		return nil, err
	}
	return &model.Task{
		SubmissionID:   subID,
		StandardID:     standardID,
		ProblemType:    model.ProblemType(ptype),
		SubmissionType: submissionType,
		Config:         config,
		Detail:         detail,
		UpdatedAt:      record.UpdatedAt,
	}, nil
}

func jsonDocument(field string, value *string) (json.RawMessage, error) {
	if value == nil {
		return json.RawMessage("null"), nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(*value)); err != nil {
		return nil, fmt.Errorf("%s is not valid json: %w", field, err)
	}
	return json.RawMessage(buf.Bytes()), nil
}

type timeoutCtx struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func withTimeout(ctx context.Context, timeout time.Duration) timeoutCtx {
	if timeout <= 0 {
		return timeoutCtx{ctx: ctx, cancel: func() {}}
	}
	ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
	return timeoutCtx{ctx: ctxTimeout, cancel: cancel}
}
